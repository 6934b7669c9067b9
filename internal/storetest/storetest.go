// Package storetest holds the behaviour every storage backend must share.
// Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Backend is the union of the repository interfaces a storage backend serves.
type Backend interface {
	Insert(ctx context.Context, p *models.Proposal) error
	Get(ctx context.Context, id string) (*models.Proposal, error)
	ListByGroup(ctx context.Context, groupID string) ([]*models.Proposal, error)
	ListPending(ctx context.Context) ([]*models.Proposal, error)
	Update(ctx context.Context, id string, fn func(*models.Proposal) (*models.Transaction, error)) (*models.Proposal, error)

	CreateGroup(ctx context.Context, g *models.Group, owner models.Member) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	SetQuorum(ctx context.Context, groupID string, quorum *float64) error
	PutMember(ctx context.Context, m models.Member) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	GetMember(ctx context.Context, groupID, userID string) (*models.Member, error)

	AppendTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

var base = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

// Run exercises newBackend with the shared contract. Each subtest gets a
// fresh backend.
func Run(t *testing.T, newBackend func(t *testing.T) Backend) {
	tests := []struct {
		name string
		fn   func(*testing.T, Backend)
	}{
		{"ProposalRoundTrip", testProposalRoundTrip},
		{"ProposalNotFound", testProposalNotFound},
		{"ListByGroupAndPending", testListByGroupAndPending},
		{"UpdateCommitsWithTransaction", testUpdateCommitsWithTransaction},
		{"UpdateErrorWritesNothing", testUpdateErrorWritesNothing},
		{"UpdateRejectsSecondVote", testUpdateRejectsSecondVote},
		{"ConcurrentUpdates", testConcurrentUpdates},
		{"Groups", testGroups},
		{"Members", testMembers},
		{"Transactions", testTransactions},
		{"FullScaleAmounts", testFullScaleAmounts},
		{"Users", testUsers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newBackend(t))
		})
	}
}

func seedGroup(t *testing.T, b Backend, id string) {
	t.Helper()
	require.NoError(t, b.CreateGroup(context.Background(),
		&models.Group{ID: id, Name: "Group " + id, Currency: "XOF", CreatedBy: "owner", CreatedAt: base},
		models.Member{GroupID: id, UserID: "owner", Role: models.RoleAdmin, JoinedAt: base}))
}

func newProposal(groupID string, createdAt time.Time) *models.Proposal {
	return &models.Proposal{
		ID:             uuid.New().String(),
		GroupID:        groupID,
		Title:          "Repair the well",
		Description:    "The village well pump needs new seals",
		Amount:         decimal.RequireFromString("125000.75"),
		Currency:       "XOF",
		Category:       models.CategoryEmergency,
		Priority:       models.PriorityUrgent,
		Recipient:      &models.Recipient{Name: "Pump repair co", Details: "Orange Money 77 000 00 00"},
		ProposedBy:     "owner",
		VotingDeadline: createdAt.Add(72 * time.Hour),
		Status:         models.StatusPending,
		Votes:          []models.Vote{},
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func assertSameProposal(t *testing.T, want, got *models.Proposal) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.GroupID, got.GroupID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Description, got.Description)
	assert.True(t, want.Amount.Equal(got.Amount), "amount %s != %s", want.Amount, got.Amount)
	assert.Equal(t, want.Currency, got.Currency)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Priority, got.Priority)
	assert.Equal(t, want.Recipient, got.Recipient)
	assert.Equal(t, want.ProposedBy, got.ProposedBy)
	assert.True(t, want.VotingDeadline.Equal(got.VotingDeadline))
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.ExecutedBy, got.ExecutedBy)
	assert.Equal(t, want.TransactionID, got.TransactionID)
	assert.Equal(t, want.ReminderSent, got.ReminderSent)
	assert.Equal(t, want.Result, got.Result)
	require.Len(t, got.Votes, len(want.Votes))
	for i := range want.Votes {
		assert.Equal(t, want.Votes[i].UserID, got.Votes[i].UserID)
		assert.Equal(t, want.Votes[i].Decision, got.Votes[i].Decision)
		assert.Equal(t, want.Votes[i].Comment, got.Votes[i].Comment)
		assert.True(t, want.Votes[i].CastAt.Equal(got.Votes[i].CastAt))
	}
}

func testProposalRoundTrip(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")
	p := newProposal("g1", base)

	require.NoError(t, b.Insert(ctx, p))
	got, err := b.Get(ctx, p.ID)
	require.NoError(t, err)
	assertSameProposal(t, p, got)
	assert.Nil(t, got.FinalizedAt)
	assert.Nil(t, got.ExecutedAt)

	assert.ErrorIs(t, b.Insert(ctx, p), common.ErrorAlreadyExists)
}

func testProposalNotFound(t *testing.T, b Backend) {
	ctx := context.Background()
	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = b.Update(ctx, "missing", func(*models.Proposal) (*models.Transaction, error) { return nil, nil })
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func testListByGroupAndPending(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")
	seedGroup(t, b, "g2")

	older := newProposal("g1", base)
	newer := newProposal("g1", base.Add(time.Hour))
	other := newProposal("g2", base.Add(2*time.Hour))
	for _, p := range []*models.Proposal{older, newer, other} {
		require.NoError(t, b.Insert(ctx, p))
	}

	list, err := b.ListByGroup(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	empty, err := b.ListByGroup(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = b.Update(ctx, newer.ID, func(p *models.Proposal) (*models.Transaction, error) {
		p.Status = models.StatusExpired
		return nil, nil
	})
	require.NoError(t, err)

	pending, err := b.ListPending(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, p := range pending {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{older.ID, other.ID}, ids)
}

func testUpdateCommitsWithTransaction(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")
	p := newProposal("g1", base)
	require.NoError(t, b.Insert(ctx, p))

	castAt := base.Add(time.Minute)
	updated, err := b.Update(ctx, p.ID, func(cur *models.Proposal) (*models.Transaction, error) {
		cur.Votes = append(cur.Votes, models.Vote{UserID: "owner", Decision: models.DecisionFor, Comment: "yes", CastAt: castAt})
		cur.Result = &models.TallyResult{VotesFor: 1, TotalVotes: 1, EligibleMembers: 1, ParticipationRate: 100, Passed: true}
		cur.Status = models.StatusApproved
		cur.FinalizedAt = &castAt
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)

	execAt := base.Add(2 * time.Minute)
	tx := &models.Transaction{
		ID:          uuid.New().String(),
		GroupID:     "g1",
		Type:        models.TxWithdrawal,
		Amount:      p.Amount,
		Description: "Proposal: " + p.Title,
		Recipient:   p.Recipient,
		ProposalID:  p.ID,
		Category:    p.Category,
		CreatedBy:   "owner",
		CreatedAt:   execAt,
	}
	_, err = b.Update(ctx, p.ID, func(cur *models.Proposal) (*models.Transaction, error) {
		cur.Status = models.StatusExecuted
		cur.ExecutedAt = &execAt
		cur.ExecutedBy = "owner"
		cur.TransactionID = tx.ID
		return tx, nil
	})
	require.NoError(t, err)

	got, err := b.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExecuted, got.Status)
	require.NotNil(t, got.ExecutedAt)
	assert.True(t, execAt.Equal(*got.ExecutedAt))
	require.NotNil(t, got.FinalizedAt)
	assert.True(t, castAt.Equal(*got.FinalizedAt))
	require.Len(t, got.Votes, 1)
	assert.Equal(t, "yes", got.Votes[0].Comment)
	require.NotNil(t, got.Result)
	assert.Equal(t, 1, got.Result.VotesFor)

	txs, err := b.ListTransactions(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, tx.ID, txs[0].ID)
	assert.Equal(t, p.ID, txs[0].ProposalID)
	assert.True(t, txs[0].Amount.Equal(p.Amount))
	assert.Equal(t, p.Recipient, txs[0].Recipient)
}

func testUpdateErrorWritesNothing(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")
	p := newProposal("g1", base)
	require.NoError(t, b.Insert(ctx, p))

	boom := errors.New("boom")
	_, err := b.Update(ctx, p.ID, func(cur *models.Proposal) (*models.Transaction, error) {
		cur.Status = models.StatusApproved
		cur.Votes = append(cur.Votes, models.Vote{UserID: "owner", Decision: models.DecisionFor, CastAt: base})
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := b.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Empty(t, got.Votes)
	txs, err := b.ListTransactions(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func testUpdateRejectsSecondVote(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")
	p := newProposal("g1", base)
	require.NoError(t, b.Insert(ctx, p))

	vote := func(cur *models.Proposal) (*models.Transaction, error) {
		cur.Votes = append(cur.Votes, models.Vote{UserID: "owner", Decision: models.DecisionAgainst, CastAt: base})
		return nil, nil
	}
	_, err := b.Update(ctx, p.ID, vote)
	require.NoError(t, err)
	_, err = b.Update(ctx, p.ID, vote)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := b.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Votes, 1)
}

func testConcurrentUpdates(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")
	p := newProposal("g1", base)
	require.NoError(t, b.Insert(ctx, p))

	const voters = 8
	var wg sync.WaitGroup
	errs := make([]error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := fmt.Sprintf("voter-%d", i)
			_, errs[i] = b.Update(ctx, p.ID, func(cur *models.Proposal) (*models.Transaction, error) {
				if cur.HasVoted(uid) {
					return nil, common.ErrorAlreadyExists
				}
				cur.Votes = append(cur.Votes, models.Vote{UserID: uid, Decision: models.DecisionFor, CastAt: base})
				return nil, nil
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := b.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Votes, voters)
}

func testGroups(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")

	g, err := b.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Group g1", g.Name)
	assert.Equal(t, "XOF", g.Currency)
	assert.True(t, base.Equal(g.CreatedAt))
	assert.Nil(t, g.QuorumPercent)

	err = b.CreateGroup(ctx, &models.Group{ID: "g1", Name: "again", CreatedAt: base},
		models.Member{GroupID: "g1", UserID: "x", Role: models.RoleAdmin, JoinedAt: base})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	q := 66.5
	require.NoError(t, b.SetQuorum(ctx, "g1", &q))
	g, err = b.GetGroup(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, g.QuorumPercent)
	assert.Equal(t, 66.5, *g.QuorumPercent)

	require.NoError(t, b.SetQuorum(ctx, "g1", nil))
	g, err = b.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, g.QuorumPercent)

	_, err = b.GetGroup(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, b.SetQuorum(ctx, "missing", &q), common.ErrorNotFound)
}

func testMembers(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")

	require.NoError(t, b.PutMember(ctx, models.Member{GroupID: "g1", UserID: "awa", Role: models.RoleMember, JoinedAt: base.Add(time.Hour)}))
	require.NoError(t, b.PutMember(ctx, models.Member{GroupID: "g1", UserID: "awa", Role: models.RoleTreasurer, JoinedAt: base.Add(5 * time.Hour)}))

	m, err := b.GetMember(ctx, "g1", "awa")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTreasurer, m.Role)
	assert.True(t, base.Add(time.Hour).Equal(m.JoinedAt), "role change keeps the join time")

	members, err := b.ListMembers(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "owner", members[0].UserID)
	assert.Equal(t, "awa", members[1].UserID)

	require.NoError(t, b.RemoveMember(ctx, "g1", "awa"))
	_, err = b.GetMember(ctx, "g1", "awa")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, b.RemoveMember(ctx, "g1", "awa"), common.ErrorNotFound)

	assert.ErrorIs(t, b.PutMember(ctx, models.Member{GroupID: "missing", UserID: "x", Role: models.RoleMember, JoinedAt: base}), common.ErrorNotFound)
}

func testTransactions(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")

	for i, amount := range []string{"5000", "2500.25"} {
		require.NoError(t, b.AppendTransaction(ctx, &models.Transaction{
			ID:          uuid.New().String(),
			GroupID:     "g1",
			Type:        models.TxContribution,
			Amount:      decimal.RequireFromString(amount),
			Description: "dues",
			CreatedBy:   "owner",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}
	txs, err := b.ListTransactions(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
		assert.Equal(t, models.TxContribution, tx.Type)
		assert.Nil(t, tx.Recipient)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("7500.25")))

	err = b.AppendTransaction(ctx, &models.Transaction{ID: uuid.New().String(), GroupID: "missing",
		Type: models.TxContribution, Amount: decimal.NewFromInt(1), CreatedAt: base})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

// Amounts at the largest accepted scale come back unchanged.
func testFullScaleAmounts(t *testing.T, b Backend) {
	ctx := context.Background()
	seedGroup(t, b, "g1")

	p := newProposal("g1", base)
	p.Amount = decimal.RequireFromString("98765.4321")
	require.NoError(t, b.Insert(ctx, p))
	got, err := b.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(got.Amount), "amount %s != %s", p.Amount, got.Amount)

	require.NoError(t, b.AppendTransaction(ctx, &models.Transaction{
		ID:        uuid.New().String(),
		GroupID:   "g1",
		Type:      models.TxContribution,
		Amount:    decimal.RequireFromString("0.0001"),
		CreatedBy: "owner",
		CreatedAt: base,
	}))
	txs, err := b.ListTransactions(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("0.0001")), "amount %s", txs[0].Amount)
}

func testUsers(t *testing.T, b Backend) {
	ctx := context.Background()
	u := &models.User{ID: uuid.New().String(), Username: "kadiatou", PasswordHash: "$2a$hash", CreatedAt: base}

	require.NoError(t, b.CreateUser(ctx, u))
	assert.ErrorIs(t, b.CreateUser(ctx, &models.User{ID: "other", Username: "kadiatou", CreatedAt: base}), common.ErrorAlreadyExists)

	got, err := b.GetUserByUsername(ctx, "kadiatou")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.True(t, base.Equal(got.CreatedAt))

	_, err = b.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
