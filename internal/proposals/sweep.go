package proposals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saxenaaman628/badenya/internal/models"
	"go.uber.org/zap"
)

// SweepReport summarizes one Sweep pass.
type SweepReport struct {
	Scanned   int
	Finalized int
	Reminded  int
	Failed    int
}

// Sweep finalizes every overdue pending proposal and sends a one-time
// deadline reminder to members who have not voted yet. A failure on one
// proposal is logged and does not stop the pass.
func (e *Engine) Sweep(ctx context.Context) (SweepReport, error) {
	var rep SweepReport

	pending, err := e.store.ListPending(ctx)
	if err != nil {
		return rep, fmt.Errorf("list pending proposals: %w", err)
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Scanned++

		refreshed, err := e.refresh(ctx, p)
		if err != nil {
			rep.Failed++
			e.logger.Warn("sweep proposal", zap.String("proposal_id", p.ID), zap.Error(err))
			continue
		}
		if refreshed.Status != models.StatusPending {
			rep.Finalized++
			continue
		}

		reminded, err := e.remind(ctx, refreshed)
		if err != nil {
			rep.Failed++
			e.logger.Warn("deadline reminder", zap.String("proposal_id", p.ID), zap.Error(err))
			continue
		}
		if reminded {
			rep.Reminded++
		}
	}
	return rep, nil
}

func (e *Engine) remind(ctx context.Context, p *models.Proposal) (bool, error) {
	if p.ReminderSent || p.VotingDeadline.Sub(e.now()) > e.reminderWindow {
		return false, nil
	}

	updated, err := e.store.Update(ctx, p.ID, func(cur *models.Proposal) (*models.Transaction, error) {
		if cur.Status != models.StatusPending || cur.ReminderSent {
			return nil, errNoop
		}
		cur.ReminderSent = true
		return nil, nil
	})
	if errors.Is(err, errNoop) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	recipients, err := e.memberIDs(ctx, updated.GroupID, func(id string) bool { return !updated.HasVoted(id) })
	if err != nil {
		return true, err
	}
	if len(recipients) == 0 {
		return true, nil
	}
	e.notify(ctx, models.Notification{
		Event:      models.EventDeadlineApproaching,
		GroupID:    updated.GroupID,
		Recipients: recipients,
		ProposalID: updated.ID,
		Payload: map[string]string{
			"title":           updated.Title,
			"voting_deadline": updated.VotingDeadline.Format(time.RFC3339),
		},
	})
	return true, nil
}
