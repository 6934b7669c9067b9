package proposals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/saxenaaman628/badenya/internal/memstore"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Notification
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) byEvent(t models.EventType) []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for _, ev := range n.events {
		if ev.Event == t {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	engine   *Engine
	store    *memstore.Store
	clock    *fakeClock
	notifier *recordingNotifier
	groupID  string
	members  []string
}

// newFixture builds a group of n members: u1 is admin, u2 treasurer, the rest plain members.
func newFixture(t *testing.T, n int, quorum float64) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}

	f := &fixture{store: store, clock: clock, notifier: notifier, groupID: "g1"}
	for i := 1; i <= n; i++ {
		f.members = append(f.members, fmt.Sprintf("u%d", i))
	}

	require.NoError(t, store.CreateGroup(ctx, &models.Group{ID: f.groupID, Name: "Tontine", Currency: "XOF", CreatedBy: "u1"},
		models.Member{GroupID: f.groupID, UserID: "u1", Role: models.RoleAdmin, JoinedAt: clock.Now()}))
	for i, id := range f.members[1:] {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleTreasurer
		}
		require.NoError(t, store.PutMember(ctx, models.Member{GroupID: f.groupID, UserID: id, Role: role, JoinedAt: clock.Now()}))
	}

	f.engine = New(Deps{
		Store:    store,
		Members:  store,
		Groups:   store,
		Quorum:   StaticQuorum(quorum),
		Notifier: notifier,
		Clock:    clock.Now,
	})
	return f
}

func (f *fixture) input() CreateInput {
	return CreateInput{
		Title:          "Buy a grain mill",
		Description:    "Shared grain mill for the cooperative members",
		Amount:         decimal.NewFromInt(50000),
		Category:       models.CategoryInvestment,
		Priority:       models.PriorityHigh,
		Recipient:      &models.Recipient{Name: "Mill supplier", Details: "Account 123"},
		VotingDeadline: f.clock.Now().Add(48 * time.Hour),
	}
}

func (f *fixture) create(t *testing.T) *models.Proposal {
	t.Helper()
	p, err := f.engine.CreateProposal(context.Background(), f.groupID, "u1", f.input())
	require.NoError(t, err)
	return p
}

func (f *fixture) vote(t *testing.T, proposalID, userID string, d models.Decision) *models.Proposal {
	t.Helper()
	p, err := f.engine.CastVote(context.Background(), proposalID, userID, string(d), "")
	require.NoError(t, err)
	return p
}

func TestCreateProposal(t *testing.T) {
	f := newFixture(t, 4, 0)

	p := f.create(t)

	assert.Equal(t, models.StatusPending, p.Status)
	assert.Empty(t, p.Votes)
	assert.Nil(t, p.Result)
	assert.Nil(t, p.ExecutedAt)
	assert.Equal(t, "XOF", p.Currency)
	assert.Equal(t, "u1", p.ProposedBy)

	created := f.notifier.byEvent(models.EventProposalCreated)
	require.Len(t, created, 1)
	assert.ElementsMatch(t, []string{"u2", "u3", "u4"}, created[0].Recipients)
}

func TestCreateProposal_ValidationListsEveryField(t *testing.T) {
	f := newFixture(t, 3, 0)
	in := CreateInput{
		Title:          "Hi",
		Description:    "too short",
		Amount:         decimal.Zero,
		Category:       "vacation",
		Priority:       "whenever",
		VotingDeadline: f.clock.Now().Add(-time.Minute),
	}

	_, err := f.engine.CreateProposal(context.Background(), f.groupID, "u1", in)

	require.ErrorIs(t, err, ErrValidation)
	var engineErr *Error
	require.True(t, errors.As(err, &engineErr))
	var fields []string
	for _, fe := range engineErr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"title", "description", "amount", "category", "priority", "voting_deadline"}, fields)
}

func TestCreateProposal_AmountBeyondStoredScale(t *testing.T) {
	f := newFixture(t, 3, 0)
	in := f.input()
	in.Amount = decimal.RequireFromString("0.00001")

	_, err := f.engine.CreateProposal(context.Background(), f.groupID, "u1", in)

	require.ErrorIs(t, err, ErrValidation)
	var engineErr *Error
	require.True(t, errors.As(err, &engineErr))
	require.Len(t, engineErr.Fields, 1)
	assert.Equal(t, "amount", engineErr.Fields[0].Field)

	in.Amount = decimal.RequireFromString("1250.2500")
	p, err := f.engine.CreateProposal(context.Background(), f.groupID, "u1", in)
	require.NoError(t, err)
	assert.Equal(t, "1250.25", p.Amount.String())
}

func TestCreateProposal_DeadlineMustBeStrictlyFuture(t *testing.T) {
	f := newFixture(t, 3, 0)
	in := f.input()
	in.VotingDeadline = f.clock.Now()

	_, err := f.engine.CreateProposal(context.Background(), f.groupID, "u1", in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateProposal_Authorization(t *testing.T) {
	f := newFixture(t, 3, 0)

	_, err := f.engine.CreateProposal(context.Background(), f.groupID, "stranger", f.input())
	assert.ErrorIs(t, err, ErrNotAMember)

	_, err = f.engine.CreateProposal(context.Background(), "missing-group", "u1", f.input())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProposal_NotificationFailureDoesNotFail(t *testing.T) {
	f := newFixture(t, 3, 0)
	f.notifier.err = errors.New("broker down")

	p, err := f.engine.CreateProposal(context.Background(), f.groupID, "u1", f.input())
	require.NoError(t, err)

	stored, err := f.engine.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)
}

func TestGetProposal_NotFound(t *testing.T) {
	f := newFixture(t, 3, 0)
	_, err := f.engine.GetProposal(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProposalsForGroup_MostRecentFirst(t *testing.T) {
	f := newFixture(t, 3, 0)
	first := f.create(t)
	f.clock.Advance(time.Minute)
	second := f.create(t)
	f.clock.Advance(time.Minute)
	third := f.create(t)

	list, err := f.engine.ListProposalsForGroup(context.Background(), f.groupID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	pending, err := f.engine.ListProposalsForGroup(context.Background(), f.groupID, models.StatusApproved)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCastVote_InvalidDecision(t *testing.T) {
	f := newFixture(t, 3, 0)
	p := f.create(t)

	for _, d := range []string{"", "yes", "FOR", "aye"} {
		_, err := f.engine.CastVote(context.Background(), p.ID, "u2", d, "")
		assert.ErrorIs(t, err, ErrInvalidDecision, d)
	}
}

func TestCastVote_Preconditions(t *testing.T) {
	f := newFixture(t, 3, 0)
	p := f.create(t)

	_, err := f.engine.CastVote(context.Background(), "missing", "u2", "for", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.CastVote(context.Background(), p.ID, "stranger", "for", "")
	assert.ErrorIs(t, err, ErrNotAMember)

	f.clock.Advance(49 * time.Hour)
	_, err = f.engine.CastVote(context.Background(), p.ID, "u2", "for", "")
	assert.ErrorIs(t, err, ErrVotingClosed)
}

// Scenario: member casts for, then tries against on the same proposal.
func TestCastVote_DuplicateRejected(t *testing.T) {
	f := newFixture(t, 4, 0)
	p := f.create(t)

	f.vote(t, p.ID, "u2", models.DecisionFor)
	_, err := f.engine.CastVote(context.Background(), p.ID, "u2", "against", "changed my mind")
	require.ErrorIs(t, err, ErrDuplicateVote)

	got, err := f.engine.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, got.Votes, 1)
	assert.Equal(t, models.DecisionFor, got.Votes[0].Decision)
}

func TestCastVote_ConcurrentSameMemberRecordsOnce(t *testing.T) {
	f := newFixture(t, 5, 0)
	p := f.create(t)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.CastVote(context.Background(), p.ID, "u3", "for", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, dup := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateVote):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)

	got, err := f.engine.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Votes, 1)
}

func TestCastVote_TallyMatchesVotes(t *testing.T) {
	f := newFixture(t, 6, 0)
	p := f.create(t)

	f.vote(t, p.ID, "u1", models.DecisionFor)
	f.vote(t, p.ID, "u2", models.DecisionAgainst)
	got := f.vote(t, p.ID, "u3", models.DecisionAbstain)

	require.NotNil(t, got.Result)
	r := got.Result
	assert.Equal(t, r.TotalVotes, r.VotesFor+r.VotesAgainst+r.VotesAbstain)
	assert.Equal(t, len(got.Votes), r.TotalVotes)
	assert.InDelta(t, 50.0, r.ParticipationRate, 1e-9)
	assert.Equal(t, models.StatusPending, got.Status)
}

// Scenario: 4 members, 3 for / 1 against, quorum 0.
func TestScenario_MajorityApproval(t *testing.T) {
	f := newFixture(t, 4, 0)
	p := f.create(t)

	f.vote(t, p.ID, "u1", models.DecisionFor)
	f.vote(t, p.ID, "u2", models.DecisionFor)
	f.vote(t, p.ID, "u3", models.DecisionAgainst)
	got := f.vote(t, p.ID, "u4", models.DecisionFor)

	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, &models.TallyResult{
		VotesFor: 3, VotesAgainst: 1, VotesAbstain: 0, TotalVotes: 4,
		EligibleMembers: 4, ParticipationRate: 100, QuorumPercent: 0, Passed: true,
	}, got.Result)
	assert.NotNil(t, got.FinalizedAt)
	assert.Len(t, f.notifier.byEvent(models.EventProposalApproved), 1)
}

// Scenario: all 3 members vote before the deadline, proposal closes on the 3rd vote.
func TestScenario_FullMemberEarlyClose(t *testing.T) {
	f := newFixture(t, 3, 0)
	p := f.create(t)

	f.vote(t, p.ID, "u1", models.DecisionFor)
	mid := f.vote(t, p.ID, "u2", models.DecisionAgainst)
	assert.Equal(t, models.StatusPending, mid.Status)

	got := f.vote(t, p.ID, "u3", models.DecisionFor)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.True(t, f.clock.Now().Before(got.VotingDeadline))
}

func TestScenario_DepartedVoterDoesNotCloseEarly(t *testing.T) {
	f := newFixture(t, 3, 0)
	ctx := context.Background()
	p := f.create(t)

	f.vote(t, p.ID, "u1", models.DecisionFor)
	f.vote(t, p.ID, "u2", models.DecisionFor)
	require.NoError(t, f.store.RemoveMember(ctx, f.groupID, "u2"))

	got, err := f.engine.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status, "u3 has not voted yet")

	got = f.vote(t, p.ID, "u3", models.DecisionAgainst)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, 3, got.Result.TotalVotes)
	assert.Equal(t, 2, got.Result.EligibleMembers)
}

func TestScenario_FullMemberRejection(t *testing.T) {
	f := newFixture(t, 3, 0)
	p := f.create(t)

	f.vote(t, p.ID, "u1", models.DecisionAgainst)
	f.vote(t, p.ID, "u2", models.DecisionFor)
	got := f.vote(t, p.ID, "u3", models.DecisionAbstain)

	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Len(t, f.notifier.byEvent(models.EventProposalRejected), 1)
}

// Scenario: 5 members, deadline passes with no votes.
func TestScenario_ExpiredWithNoEngagement(t *testing.T) {
	f := newFixture(t, 5, 0)
	p := f.create(t)

	f.clock.Advance(48 * time.Hour)
	got, err := f.engine.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusExpired, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 0, got.Result.TotalVotes)
	assert.Len(t, f.notifier.byEvent(models.EventProposalExpired), 1)

	again, err := f.engine.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, again.Status)
	assert.Len(t, f.notifier.byEvent(models.EventProposalExpired), 1, "finalization happens once")
}

func TestViewProposal_OutsiderCannotFinalize(t *testing.T) {
	f := newFixture(t, 3, 0)
	ctx := context.Background()
	p := f.create(t)
	f.clock.Advance(48 * time.Hour)

	_, err := f.engine.ViewProposal(ctx, p.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.engine.ViewProposal(ctx, "missing", "stranger")
	assert.ErrorIs(t, err, ErrNotFound, "outsiders cannot tell missing from hidden")

	_, err = f.engine.CastVote(ctx, p.ID, "stranger", "for", "")
	assert.ErrorIs(t, err, ErrNotAMember)

	stored, err := f.store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, f.notifier.byEvent(models.EventProposalExpired))

	got, err := f.engine.ViewProposal(ctx, p.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)
	assert.Len(t, f.notifier.byEvent(models.EventProposalExpired), 1)
}

func TestDeadline_WithVotesDecidesByPassRule(t *testing.T) {
	tests := []struct {
		name  string
		votes []models.Decision
		want  models.ProposalStatus
	}{
		{"for wins", []models.Decision{models.DecisionFor}, models.StatusApproved},
		{"tie rejects", []models.Decision{models.DecisionFor, models.DecisionAgainst}, models.StatusRejected},
		{"only abstain rejects", []models.Decision{models.DecisionAbstain}, models.StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 5, 0)
			p := f.create(t)
			for i, d := range tt.votes {
				f.vote(t, p.ID, f.members[i], d)
			}
			f.clock.Advance(48 * time.Hour)

			got, err := f.engine.GetProposal(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestQuorumThreshold(t *testing.T) {
	// 5 members, 2 for / 0 against => participation 40%.
	tests := []struct {
		quorum float64
		want   models.ProposalStatus
	}{
		{0, models.StatusApproved},
		{40, models.StatusApproved},
		{40.1, models.StatusRejected},
		{50, models.StatusRejected},
		{100, models.StatusRejected},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("quorum=%v", tt.quorum), func(t *testing.T) {
			f := newFixture(t, 5, tt.quorum)
			p := f.create(t)
			f.vote(t, p.ID, "u1", models.DecisionFor)
			f.vote(t, p.ID, "u2", models.DecisionFor)
			f.clock.Advance(48 * time.Hour)

			got, err := f.engine.GetProposal(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.quorum, got.Result.QuorumPercent)
		})
	}
}

func TestGroupQuorumOverride(t *testing.T) {
	f := newFixture(t, 4, 0)
	q := 75.0
	require.NoError(t, f.store.SetQuorum(context.Background(), f.groupID, &q))
	f.engine.quorum = GroupQuorum{Groups: f.store, Default: 0}

	p := f.create(t)
	f.vote(t, p.ID, "u1", models.DecisionFor)
	f.vote(t, p.ID, "u2", models.DecisionFor)
	f.clock.Advance(48 * time.Hour)

	got, err := f.engine.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status, "half the group voted, below its 75 percent quorum")
}

func approved(t *testing.T, f *fixture) *models.Proposal {
	t.Helper()
	p := f.create(t)
	for _, id := range f.members {
		p = f.vote(t, p.ID, id, models.DecisionFor)
	}
	require.Equal(t, models.StatusApproved, p.Status)
	return p
}

func TestExecuteProposal(t *testing.T) {
	f := newFixture(t, 3, 0)
	p := approved(t, f)

	got, err := f.engine.ExecuteProposal(context.Background(), p.ID, "u2")
	require.NoError(t, err)

	assert.Equal(t, models.StatusExecuted, got.Status)
	require.NotNil(t, got.ExecutedAt)
	assert.Equal(t, "u2", got.ExecutedBy)

	txs, err := f.store.ListTransactions(context.Background(), f.groupID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, got.TransactionID, txs[0].ID)
	assert.Equal(t, models.TxInvestment, txs[0].Type)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, "Mill supplier", txs[0].Recipient.Name)
	assert.Len(t, f.notifier.byEvent(models.EventProposalExecuted), 1)
}

func TestExecuteProposal_Twice(t *testing.T) {
	f := newFixture(t, 3, 0)
	p := approved(t, f)

	_, err := f.engine.ExecuteProposal(context.Background(), p.ID, "u1")
	require.NoError(t, err)
	_, err = f.engine.ExecuteProposal(context.Background(), p.ID, "u1")
	require.ErrorIs(t, err, ErrAlreadyExecuted)

	txs, err := f.store.ListTransactions(context.Background(), f.groupID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestExecuteProposal_ConcurrentAtMostOnce(t *testing.T) {
	f := newFixture(t, 3, 0)
	p := approved(t, f)

	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, already := 0, 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.ExecuteProposal(context.Background(), p.ID, "u1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrAlreadyExecuted):
				already++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, already)
	txs, err := f.store.ListTransactions(context.Background(), f.groupID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestExecuteProposal_Guards(t *testing.T) {
	f := newFixture(t, 3, 0)
	pending := f.create(t)

	_, err := f.engine.ExecuteProposal(context.Background(), pending.ID, "u3")
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = f.engine.ExecuteProposal(context.Background(), pending.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotAMember)

	_, err = f.engine.ExecuteProposal(context.Background(), pending.ID, "u1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.engine.ExecuteProposal(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// failingLedger wraps a store so any update that writes a transaction fails.
type failingLedger struct {
	*memstore.Store
	err error
}

func (s failingLedger) Update(ctx context.Context, id string, fn UpdateFunc) (*models.Proposal, error) {
	return s.Store.Update(ctx, id, func(p *models.Proposal) (*models.Transaction, error) {
		tx, err := fn(p)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			return nil, s.err
		}
		return nil, nil
	})
}

func TestExecuteProposal_NoPartialExecution(t *testing.T) {
	f := newFixture(t, 3, 0)
	p := approved(t, f)

	broken := New(Deps{
		Store:   failingLedger{Store: f.store, err: errors.New("ledger unavailable")},
		Members: f.store,
		Groups:  f.store,
		Clock:   f.clock.Now,
	})

	_, err := broken.ExecuteProposal(context.Background(), p.ID, "u1")
	require.ErrorIs(t, err, ErrExecutionFailed)

	got, err := f.engine.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Nil(t, got.ExecutedAt)
	txs, err := f.store.ListTransactions(context.Background(), f.groupID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	// retry succeeds once the ledger is back
	_, err = f.engine.ExecuteProposal(context.Background(), p.ID, "u1")
	require.NoError(t, err)
}

func TestSweep(t *testing.T) {
	f := newFixture(t, 3, 0)
	f.engine.reminderWindow = 12 * time.Hour

	overdue := f.create(t)
	f.clock.Advance(40 * time.Hour)
	soon := f.create(t) // deadline 48h after this point
	f.vote(t, soon.ID, "u2", models.DecisionFor)
	f.clock.Advance(9 * time.Hour) // overdue passes its deadline, soon is 39h out

	rep, err := f.engine.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 2, Finalized: 1}, rep)

	got, err := f.store.Get(context.Background(), overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)

	f.clock.Advance(30 * time.Hour) // soon is 9h out, inside the reminder window
	rep, err = f.engine.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 1, Reminded: 1}, rep)

	reminders := f.notifier.byEvent(models.EventDeadlineApproaching)
	require.Len(t, reminders, 1)
	assert.ElementsMatch(t, []string{"u1", "u3"}, reminders[0].Recipients)

	rep, err = f.engine.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Reminded, "reminders are sent once")
}
