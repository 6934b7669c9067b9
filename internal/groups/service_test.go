package groups

import (
	"context"
	"testing"

	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/memstore"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *models.Group) {
	t.Helper()
	s := NewService(memstore.New())
	g, err := s.Create(context.Background(), "admin", CreateInput{Name: " Femmes de Bamako ", Currency: "xof"})
	require.NoError(t, err)
	return s, g
}

func TestCreate(t *testing.T) {
	s, g := setup(t)

	assert.Equal(t, "Femmes de Bamako", g.Name)
	assert.Equal(t, "XOF", g.Currency)

	members, err := s.Members(context.Background(), g.ID, "admin")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleAdmin, members[0].Role)

	_, err = s.Create(context.Background(), "admin", CreateInput{Name: "  "})
	assert.ErrorIs(t, err, common.ErrorInvalidInput)

	bad := 120.0
	_, err = s.Create(context.Background(), "admin", CreateInput{Name: "x", QuorumPercent: &bad})
	assert.ErrorIs(t, err, common.ErrorInvalidInput)
}

func TestSetMember(t *testing.T) {
	ctx := context.Background()
	s, g := setup(t)

	m, err := s.SetMember(ctx, g.ID, "admin", "fatou", models.RoleTreasurer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTreasurer, m.Role)

	_, err = s.SetMember(ctx, g.ID, "fatou", "issa", models.RoleMember)
	assert.ErrorIs(t, err, common.ErrorForbidden, "treasurers cannot manage members")

	_, err = s.SetMember(ctx, g.ID, "stranger", "issa", models.RoleMember)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.SetMember(ctx, g.ID, "admin", "issa", "chief")
	assert.ErrorIs(t, err, common.ErrorInvalidInput)

	_, err = s.SetMember(ctx, "missing", "admin", "issa", models.RoleMember)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLastAdminIsKept(t *testing.T) {
	ctx := context.Background()
	s, g := setup(t)

	_, err := s.SetMember(ctx, g.ID, "admin", "admin", models.RoleMember)
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.ErrorIs(t, s.RemoveMember(ctx, g.ID, "admin", "admin"), ErrLastAdmin)

	_, err = s.SetMember(ctx, g.ID, "admin", "awa", models.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, s.RemoveMember(ctx, g.ID, "awa", "admin"))

	_, err = s.Get(ctx, g.ID, "admin")
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestSetQuorum(t *testing.T) {
	ctx := context.Background()
	s, g := setup(t)

	q := 60.0
	got, err := s.SetQuorum(ctx, g.ID, "admin", &q)
	require.NoError(t, err)
	require.NotNil(t, got.QuorumPercent)
	assert.Equal(t, 60.0, *got.QuorumPercent)

	got, err = s.SetQuorum(ctx, g.ID, "admin", nil)
	require.NoError(t, err)
	assert.Nil(t, got.QuorumPercent)

	neg := -1.0
	_, err = s.SetQuorum(ctx, g.ID, "admin", &neg)
	assert.ErrorIs(t, err, common.ErrorInvalidInput)
}
