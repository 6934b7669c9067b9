package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/saxenaaman628/badenya/internal/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestStore opens a private in-memory SQLite database. A single
// connection keeps every query on the same database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), Config(nil))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Backend { return newTestStore(t) })
}

func TestOneTransactionPerProposal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateGroup(ctx, &models.Group{ID: "g1", Name: "G", Currency: "XOF", CreatedAt: now},
		models.Member{GroupID: "g1", UserID: "u1", Role: models.RoleAdmin, JoinedAt: now}))

	tx := func(id string) *models.Transaction {
		return &models.Transaction{ID: id, GroupID: "g1", Type: models.TxExpense, Amount: decimal.NewFromInt(5),
			ProposalID: "p1", CreatedAt: now}
	}
	require.NoError(t, s.AppendTransaction(ctx, tx("t1")))
	assert.Error(t, s.AppendTransaction(ctx, tx("t2")))

	// contributions carry no proposal and never collide
	for _, id := range []string{"c1", "c2"} {
		require.NoError(t, s.AppendTransaction(ctx, &models.Transaction{ID: id, GroupID: "g1", Type: models.TxContribution,
			Amount: decimal.NewFromInt(1), CreatedAt: now}))
	}
}

func TestEnsureParam(t *testing.T) {
	assert.Equal(t, "u:p@tcp(h)/db?parseTime=true", ensureParam("u:p@tcp(h)/db", "parseTime", "true"))
	assert.Equal(t, "u@/db?a=b&parseTime=true", ensureParam("u@/db?a=b", "parseTime", "true"))
	assert.Equal(t, "u@/db?parseTime=false", ensureParam("u@/db?parseTime=false", "parseTime", "true"))
}
