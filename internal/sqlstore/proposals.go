package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) Insert(ctx context.Context, p *models.Proposal) error {
	row, err := toProposalRow(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.ErrorAlreadyExists
			}
			return err
		}
		for _, v := range p.Votes {
			vr := toVoteRow(p.ID, v)
			if err := tx.Create(&vr).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Get(ctx context.Context, id string) (*models.Proposal, error) {
	return getProposal(s.db.WithContext(ctx), id)
}

func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]*models.Proposal, error) {
	var rows []proposalRow
	if err := s.db.WithContext(ctx).Where("group_id = ?", groupID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.withVotes(ctx, rows)
}

func (s *Store) ListPending(ctx context.Context) ([]*models.Proposal, error) {
	var rows []proposalRow
	err := s.db.WithContext(ctx).
		Where("status = ?", string(models.StatusPending)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return s.withVotes(ctx, rows)
}

// withVotes loads the votes of every row in one query.
func (s *Store) withVotes(ctx context.Context, rows []proposalRow) ([]*models.Proposal, error) {
	out := make([]*models.Proposal, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var votes []voteRow
	if err := s.db.WithContext(ctx).Where("proposal_id IN ?", ids).Order("id").Find(&votes).Error; err != nil {
		return nil, err
	}
	byProposal := make(map[string][]voteRow, len(rows))
	for _, v := range votes {
		byProposal[v.ProposalID] = append(byProposal[v.ProposalID], v)
	}
	for _, r := range rows {
		p, err := r.model(byProposal[r.ID])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update locks the proposal row, applies fn and writes the new votes, the
// proposal and the ledger entry in one database transaction. The unique
// (proposal_id, user_id) index rejects a second vote from the same member
// even if fn let it through.
func (s *Store) Update(ctx context.Context, id string, fn func(*models.Proposal) (*models.Transaction, error)) (*models.Proposal, error) {
	var out *models.Proposal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row proposalRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrorNotFound
		}
		if err != nil {
			return err
		}
		var votes []voteRow
		if err := tx.Where("proposal_id = ?", id).Order("id").Find(&votes).Error; err != nil {
			return err
		}
		cur, err := row.model(votes)
		if err != nil {
			return err
		}

		before := len(cur.Votes)
		ledgerTx, err := fn(cur)
		if err != nil {
			return err
		}
		if len(cur.Votes) < before {
			return fmt.Errorf("proposal %s: votes cannot be removed", id)
		}
		for _, v := range cur.Votes[before:] {
			vr := toVoteRow(id, v)
			if err := tx.Create(&vr).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return common.ErrorAlreadyExists
				}
				return err
			}
		}

		next, err := toProposalRow(cur)
		if err != nil {
			return err
		}
		next.Version = row.Version + 1
		res := tx.Model(&proposalRow{}).
			Where("id = ? AND version = ?", id, row.Version).
			Select("*").
			Updates(&next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrConflict
		}

		if ledgerTx != nil {
			tr := toTransactionRow(ledgerTx)
			if err := tx.Create(&tr).Error; err != nil {
				return fmt.Errorf("write ledger transaction: %w", err)
			}
		}
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getProposal(db *gorm.DB, id string) (*models.Proposal, error) {
	var row proposalRow
	err := db.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	var votes []voteRow
	if err := db.Where("proposal_id = ?", id).Order("id").Find(&votes).Error; err != nil {
		return nil, err
	}
	return row.model(votes)
}
