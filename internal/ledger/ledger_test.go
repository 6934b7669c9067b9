package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/saxenaaman628/badenya/internal/memstore"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeForCategory(t *testing.T) {
	tests := map[models.Category]models.TransactionType{
		models.CategoryLoan:       models.TxLoan,
		models.CategoryInvestment: models.TxInvestment,
		models.CategoryEmergency:  models.TxWithdrawal,
		models.CategoryCharity:    models.TxExpense,
		models.CategoryEvent:      models.TxExpense,
		models.CategoryOther:      models.TxExpense,
	}
	for c, want := range tests {
		assert.Equal(t, want, TypeForCategory(c), c)
	}
}

func TestSummarize(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []*models.Transaction{
		{Type: models.TxContribution, Amount: decimal.RequireFromString("1000.50"), CreatedAt: t0},
		{Type: models.TxContribution, Amount: decimal.NewFromInt(500), CreatedAt: t0.Add(time.Hour)},
		{Type: models.TxLoan, Amount: decimal.NewFromInt(700), CreatedAt: t0.Add(3 * time.Hour)},
		{Type: models.TxRepayment, Amount: decimal.NewFromInt(200), CreatedAt: t0.Add(2 * time.Hour)},
	}

	s := Summarize("g1", txs)

	assert.Equal(t, 4, s.Count)
	assert.True(t, s.TotalIn.Equal(decimal.RequireFromString("1700.50")))
	assert.True(t, s.TotalOut.Equal(decimal.NewFromInt(700)))
	assert.True(t, s.Balance.Equal(decimal.RequireFromString("1000.50")))
	assert.True(t, s.ByType[models.TxContribution].Equal(decimal.RequireFromString("1500.50")))
	require.NotNil(t, s.LastTransactionAt)
	assert.Equal(t, t0.Add(3*time.Hour), *s.LastTransactionAt)

	empty := Summarize("g2", nil)
	assert.True(t, empty.Balance.IsZero())
	assert.Nil(t, empty.LastTransactionAt)
}

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   error
	}{
		{"1", nil},
		{"0.0001", nil},
		{"250.5000", nil},
		{"1.500000", nil},
		{"9999999999999999.9999", nil},
		{"0", ErrInvalidAmount},
		{"-5", ErrInvalidAmount},
		{"0.00001", ErrAmountPrecision},
		{"12.34567", ErrAmountPrecision},
		{"10000000000000000", ErrAmountPrecision},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := CheckAmount(decimal.RequireFromString(tt.amount))
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.CreateGroup(ctx, &models.Group{ID: "g1", Currency: "XOF"},
		models.Member{GroupID: "g1", UserID: "u1", Role: models.RoleAdmin}))

	clock := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	svc := NewService(store)
	svc.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	_, err := svc.RecordContribution(ctx, "g1", "u1", decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.RecordContribution(ctx, "g1", "u1", decimal.RequireFromString("10.00001"), "")
	assert.ErrorIs(t, err, ErrAmountPrecision)

	first, err := svc.RecordContribution(ctx, "g1", "u1", decimal.NewFromInt(2500), "")
	require.NoError(t, err)
	assert.Equal(t, "Member contribution", first.Description)
	second, err := svc.RecordContribution(ctx, "g1", "u1", decimal.NewFromInt(1500), " March dues ")
	require.NoError(t, err)

	txs, err := svc.Transactions(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, second.ID, txs[0].ID)

	sum, err := svc.Summary(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, sum.Balance.Equal(decimal.NewFromInt(4000)))

	_, err = svc.RecordContribution(ctx, "missing", "u1", decimal.NewFromInt(1), "")
	assert.Error(t, err)
}
