// Package proposals implements the proposal lifecycle: creation, voting,
// tallying, state transitions and execution into the group ledger.
package proposals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/ledger"
	"github.com/saxenaaman628/badenya/internal/models"
	"go.uber.org/zap"
)

// UpdateFunc mutates a fresh snapshot of a proposal in place. A returned
// transaction is written to the group ledger in the same atomic unit. If it
// returns an error nothing is written and the error is passed through as is.
type UpdateFunc = func(p *models.Proposal) (*models.Transaction, error)

// Store persists proposals. Update must apply fn atomically with respect to
// every other Update on the same proposal (check-and-set semantics).
type Store interface {
	Insert(ctx context.Context, p *models.Proposal) error
	Get(ctx context.Context, id string) (*models.Proposal, error)
	ListByGroup(ctx context.Context, groupID string) ([]*models.Proposal, error)
	ListPending(ctx context.Context) ([]*models.Proposal, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*models.Proposal, error)
}

// MembershipRegistry is the read-only view of group membership.
type MembershipRegistry interface {
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	GetMember(ctx context.Context, groupID, userID string) (*models.Member, error)
}

type GroupReader interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

type QuorumPolicy interface {
	QuorumPercent(ctx context.Context, groupID string) (float64, error)
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Notification) error { return nil }

// errNoop aborts an update that found nothing left to do.
var errNoop = errors.New("no change")

// Deps wires an Engine to its collaborators. Quorum, Notifier, Logger and
// Clock are optional.
type Deps struct {
	Store          Store
	Members        MembershipRegistry
	Groups         GroupReader
	Quorum         QuorumPolicy
	Notifier       Notifier
	Logger         *zap.Logger
	Clock          func() time.Time
	ReminderWindow time.Duration
}

type Engine struct {
	store          Store
	members        MembershipRegistry
	groups         GroupReader
	quorum         QuorumPolicy
	notifier       Notifier
	logger         *zap.Logger
	now            func() time.Time
	reminderWindow time.Duration
}

func New(d Deps) *Engine {
	e := &Engine{
		store:          d.Store,
		members:        d.Members,
		groups:         d.Groups,
		quorum:         d.Quorum,
		notifier:       d.Notifier,
		logger:         d.Logger,
		now:            d.Clock,
		reminderWindow: d.ReminderWindow,
	}
	if e.quorum == nil {
		e.quorum = StaticQuorum(0)
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.reminderWindow <= 0 {
		e.reminderWindow = 24 * time.Hour
	}
	return e
}

// CreateProposal opens a new pending proposal in groupID on behalf of authorID.
func (e *Engine) CreateProposal(ctx context.Context, groupID, authorID string, in CreateInput) (*models.Proposal, error) {
	g, err := e.groups.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, newError(KindNotFound, "group %s not found", groupID)
		}
		return nil, fmt.Errorf("load group %s: %w", groupID, err)
	}
	if _, err := e.requireMember(ctx, groupID, authorID); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	if err := in.validate(now); err != nil {
		return nil, err
	}

	p := &models.Proposal{
		ID:             uuid.New().String(),
		GroupID:        groupID,
		Title:          in.Title,
		Description:    in.Description,
		Amount:         in.Amount,
		Currency:       g.Currency,
		Category:       in.Category,
		Priority:       in.Priority,
		Recipient:      in.Recipient,
		ProposedBy:     authorID,
		VotingDeadline: in.VotingDeadline.UTC(),
		Status:         models.StatusPending,
		Votes:          []models.Vote{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert proposal: %w", err)
	}

	e.logger.Info("proposal created",
		zap.String("proposal_id", p.ID),
		zap.String("group_id", groupID),
		zap.String("proposed_by", authorID),
		zap.String("amount", p.Amount.String()),
	)

	recipients, err := e.memberIDs(ctx, groupID, func(id string) bool { return id != authorID })
	if err != nil {
		e.logger.Warn("list members for notification", zap.String("group_id", groupID), zap.Error(err))
	} else if len(recipients) > 0 {
		e.notify(ctx, models.Notification{
			Event:      models.EventProposalCreated,
			GroupID:    groupID,
			Recipients: recipients,
			ProposalID: p.ID,
			Payload:    map[string]string{"title": p.Title, "amount": p.Amount.String(), "proposed_by": authorID},
		})
	}
	return p, nil
}

// GetProposal returns the proposal, finalizing it first if its deadline has passed.
func (e *Engine) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	p, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.refresh(ctx, p)
}

// ViewProposal is GetProposal for a reader who must belong to the proposal's
// group. Outsiders get NotFound whether or not the proposal exists, and their
// reads never finalize anything.
func (e *Engine) ViewProposal(ctx context.Context, id, viewerID string) (*models.Proposal, error) {
	p, _, err := e.loadAsMember(ctx, id, viewerID)
	if errors.Is(err, ErrNotAMember) {
		return nil, newError(KindNotFound, "proposal %s not found", id)
	}
	return p, err
}

// ListProposalsForGroup returns the group's proposals, most recent first.
// Optional statuses filter the result after overdue proposals are finalized.
func (e *Engine) ListProposalsForGroup(ctx context.Context, groupID string, statuses ...models.ProposalStatus) ([]*models.Proposal, error) {
	list, err := e.store.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list proposals for group %s: %w", groupID, err)
	}

	out := make([]*models.Proposal, 0, len(list))
	for _, p := range list {
		p, err = e.refresh(ctx, p)
		if err != nil {
			return nil, err
		}
		if matchStatus(p.Status, statuses) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CastVote records userID's decision on a pending proposal and closes voting
// if this vote completes it.
func (e *Engine) CastVote(ctx context.Context, proposalID, userID, decision, comment string) (*models.Proposal, error) {
	d, ok := models.ParseDecision(decision)
	if !ok {
		return nil, newError(KindInvalidDecision, "decision must be for, against or abstain, got %q", decision)
	}

	p, _, err := e.loadAsMember(ctx, proposalID, userID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusPending {
		return nil, newError(KindVotingClosed, "proposal is %s", p.Status)
	}
	if p.HasVoted(userID) {
		return nil, newError(KindDuplicateVote, "member has already voted on this proposal")
	}

	roster, quorum, err := e.votingContext(ctx, p.GroupID)
	if err != nil {
		return nil, err
	}

	var closedAs models.ProposalStatus
	updated, err := e.store.Update(ctx, proposalID, func(cur *models.Proposal) (*models.Transaction, error) {
		closedAs = ""
		now := e.now().UTC()
		if cur.Status != models.StatusPending || !now.Before(cur.VotingDeadline) {
			return nil, newError(KindVotingClosed, "voting on this proposal has closed")
		}
		if cur.HasVoted(userID) {
			return nil, newError(KindDuplicateVote, "member has already voted on this proposal")
		}
		cur.Votes = append(cur.Votes, models.Vote{UserID: userID, Decision: d, Comment: comment, CastAt: now})
		cur.UpdatedAt = now

		r := Tally(cur.Votes, len(roster), quorum)
		cur.Result = &r
		if next, ok := nextStatus(cur, r, roster, now); ok {
			if err := transition(cur, next, now); err != nil {
				return nil, err
			}
			closedAs = next
		}
		return nil, nil
	})
	if err != nil {
		return nil, e.storeError(proposalID, err, func(err error) error {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return newError(KindDuplicateVote, "member has already voted on this proposal")
			}
			return fmt.Errorf("cast vote: %w", err)
		})
	}

	e.logger.Info("vote cast",
		zap.String("proposal_id", proposalID),
		zap.String("user_id", userID),
		zap.String("decision", string(d)),
	)
	if closedAs != "" {
		e.announce(ctx, updated)
	}
	return updated, nil
}

// ExecuteProposal turns an approved proposal into exactly one ledger
// transaction. The transaction and the status change commit together.
func (e *Engine) ExecuteProposal(ctx context.Context, proposalID, executorID string) (*models.Proposal, error) {
	_, m, err := e.loadAsMember(ctx, proposalID, executorID)
	if err != nil {
		return nil, err
	}
	if !m.Role.CanExecute() {
		return nil, newError(KindInsufficientRole, "only an admin or treasurer can execute proposals")
	}

	updated, err := e.store.Update(ctx, proposalID, func(cur *models.Proposal) (*models.Transaction, error) {
		if cur.Status == models.StatusExecuted || cur.ExecutedAt != nil {
			return nil, newError(KindAlreadyExecuted, "proposal was already executed")
		}
		if cur.Status != models.StatusApproved {
			return nil, newError(KindInvalidTransition, "cannot execute a %s proposal", cur.Status)
		}
		now := e.now().UTC()
		tx := ledger.FromProposal(cur, executorID, now)
		if err := transition(cur, models.StatusExecuted, now); err != nil {
			return nil, err
		}
		cur.ExecutedBy = executorID
		cur.TransactionID = tx.ID
		return tx, nil
	})
	if err != nil {
		return nil, e.storeError(proposalID, err, func(err error) error {
			return &Error{Kind: KindExecutionFailed, Message: "could not record the transaction, retry later", Err: err}
		})
	}

	e.logger.Info("proposal executed",
		zap.String("proposal_id", proposalID),
		zap.String("executed_by", executorID),
		zap.String("transaction_id", updated.TransactionID),
	)
	e.announce(ctx, updated)
	return updated, nil
}

// loadAsMember checks userID's membership before the proposal is refreshed,
// so callers outside the group cannot trigger finalization.
func (e *Engine) loadAsMember(ctx context.Context, id, userID string) (*models.Proposal, *models.Member, error) {
	p, err := e.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	m, err := e.requireMember(ctx, p.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	p, err = e.refresh(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return p, m, nil
}

func (e *Engine) load(ctx context.Context, id string) (*models.Proposal, error) {
	p, err := e.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, newError(KindNotFound, "proposal %s not found", id)
		}
		return nil, fmt.Errorf("load proposal %s: %w", id, err)
	}
	return p, nil
}

// refresh recomputes the tally of a pending proposal and finalizes it when
// voting is over. Finalization is check-and-set, so concurrent readers
// finalize at most once.
func (e *Engine) refresh(ctx context.Context, p *models.Proposal) (*models.Proposal, error) {
	if p.Status != models.StatusPending {
		return p, nil
	}
	roster, quorum, err := e.votingContext(ctx, p.GroupID)
	if err != nil {
		return nil, err
	}
	r := Tally(p.Votes, len(roster), quorum)
	if _, due := nextStatus(p, r, roster, e.now().UTC()); !due {
		if len(p.Votes) > 0 {
			p.Result = &r
		}
		return p, nil
	}

	var closedAs models.ProposalStatus
	updated, err := e.store.Update(ctx, p.ID, func(cur *models.Proposal) (*models.Transaction, error) {
		closedAs = ""
		now := e.now().UTC()
		r := Tally(cur.Votes, len(roster), quorum)
		next, due := nextStatus(cur, r, roster, now)
		if !due {
			return nil, errNoop
		}
		cur.Result = &r
		if err := transition(cur, next, now); err != nil {
			return nil, err
		}
		closedAs = next
		return nil, nil
	})
	if errors.Is(err, errNoop) {
		return e.load(ctx, p.ID)
	}
	if err != nil {
		return nil, e.storeError(p.ID, err, func(err error) error {
			return fmt.Errorf("finalize proposal %s: %w", p.ID, err)
		})
	}
	if closedAs != "" {
		e.announce(ctx, updated)
	}
	return updated, nil
}

func (e *Engine) storeError(id string, err error, other func(error) error) error {
	var engineErr *Error
	switch {
	case errors.As(err, &engineErr):
		return engineErr
	case errors.Is(err, common.ErrorNotFound):
		return newError(KindNotFound, "proposal %s not found", id)
	default:
		return other(err)
	}
}

// votingContext returns the ids of the group's current members and its quorum.
func (e *Engine) votingContext(ctx context.Context, groupID string) ([]string, float64, error) {
	roster, err := e.memberIDs(ctx, groupID, func(string) bool { return true })
	if err != nil {
		return nil, 0, fmt.Errorf("list members of %s: %w", groupID, err)
	}
	quorum, err := e.quorum.QuorumPercent(ctx, groupID)
	if err != nil {
		return nil, 0, fmt.Errorf("quorum for %s: %w", groupID, err)
	}
	return roster, quorum, nil
}

func (e *Engine) requireMember(ctx context.Context, groupID, userID string) (*models.Member, error) {
	m, err := e.members.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, newError(KindNotAMember, "user is not a member of this group")
		}
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return m, nil
}

func (e *Engine) memberIDs(ctx context.Context, groupID string, keep func(string) bool) ([]string, error) {
	members, err := e.members.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if keep(m.UserID) {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

// announce tells the group about a status change.
func (e *Engine) announce(ctx context.Context, p *models.Proposal) {
	e.logger.Info("proposal status changed",
		zap.String("proposal_id", p.ID),
		zap.String("group_id", p.GroupID),
		zap.String("status", string(p.Status)),
	)
	payload := map[string]string{"title": p.Title, "status": string(p.Status)}
	if p.Result != nil {
		payload["votes_for"] = fmt.Sprint(p.Result.VotesFor)
		payload["votes_against"] = fmt.Sprint(p.Result.VotesAgainst)
		payload["votes_abstain"] = fmt.Sprint(p.Result.VotesAbstain)
	}
	if p.TransactionID != "" {
		payload["transaction_id"] = p.TransactionID
	}
	recipients, err := e.memberIDs(ctx, p.GroupID, func(string) bool { return true })
	if err != nil {
		e.logger.Warn("list members for notification", zap.String("group_id", p.GroupID), zap.Error(err))
		return
	}
	e.notify(ctx, models.Notification{
		Event:      eventFor(p.Status),
		GroupID:    p.GroupID,
		Recipients: recipients,
		ProposalID: p.ID,
		Payload:    payload,
	})
}

// notify never fails the caller; delivery problems are only logged.
func (e *Engine) notify(ctx context.Context, n models.Notification) {
	n.CreatedAt = e.now().UTC()
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Warn("notification failed",
			zap.String("event", string(n.Event)),
			zap.String("proposal_id", n.ProposalID),
			zap.Error(err),
		)
	}
}

func matchStatus(s models.ProposalStatus, filter []models.ProposalStatus) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == s {
			return true
		}
	}
	return false
}
