package redishandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/models"
)

func (s *Store) Insert(ctx context.Context, p *models.Proposal) error {
	n, err := s.rdb.Exists(ctx, proposalKey(p.ID)).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return common.ErrorAlreadyExists
	}
	fields, err := proposalFields(p)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, proposalKey(p.ID), fields)
		for _, v := range p.Votes {
			if err := pushVote(ctx, pipe, p.ID, v); err != nil {
				return err
			}
		}
		pipe.ZAdd(ctx, groupProposalsKey(p.GroupID), redis.Z{Score: float64(p.CreatedAt.UnixNano()), Member: p.ID})
		if p.Status == models.StatusPending {
			pipe.SAdd(ctx, pendingKey, p.ID)
		}
		return nil
	})
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*models.Proposal, error) {
	return loadProposal(ctx, s.rdb, id)
}

func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]*models.Proposal, error) {
	ids, err := s.rdb.ZRevRange(ctx, groupProposalsKey(groupID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.loadMany(ctx, ids)
}

func (s *Store) ListPending(ctx context.Context) ([]*models.Proposal, error) {
	ids, err := s.rdb.SMembers(ctx, pendingKey).Result()
	if err != nil {
		return nil, err
	}
	out, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) loadMany(ctx context.Context, ids []string) ([]*models.Proposal, error) {
	out := make([]*models.Proposal, 0, len(ids))
	for _, id := range ids {
		p, err := loadProposal(ctx, s.rdb, id)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update watches the proposal's keys, applies fn to a fresh copy and commits
// the result in one MULTI block. Losing a race to another writer restarts the
// attempt from a fresh read.
func (s *Store) Update(ctx context.Context, id string, fn func(*models.Proposal) (*models.Transaction, error)) (*models.Proposal, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		var out *models.Proposal
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := loadProposal(ctx, tx, id)
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
			added := cur.Votes[before:]
			seen := map[string]struct{}{}
			for _, v := range added {
				if _, dup := seen[v.UserID]; dup {
					return common.ErrorAlreadyExists
				}
				seen[v.UserID] = struct{}{}
				voted, err := tx.SIsMember(ctx, votersKey(id), v.UserID).Result()
				if err != nil {
					return err
				}
				if voted {
					return common.ErrorAlreadyExists
				}
			}

			fields, err := proposalFields(cur)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, proposalKey(id), fields)
				for _, v := range added {
					if err := pushVote(ctx, pipe, id, v); err != nil {
						return err
					}
				}
				if cur.Status != models.StatusPending {
					pipe.SRem(ctx, pendingKey, id)
				}
				if ledgerTx != nil {
					writeTransaction(ctx, pipe, ledgerTx)
				}
				return nil
			})
			if err != nil {
				return err
			}
			out = cur
			return nil
		}, proposalKey(id), votesKey(id), votersKey(id))

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, common.ErrConflict
}

func pushVote(ctx context.Context, pipe redis.Pipeliner, proposalID string, v models.Vote) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pipe.SAdd(ctx, votersKey(proposalID), v.UserID)
	pipe.RPush(ctx, votesKey(proposalID), b)
	return nil
}

func loadProposal(ctx context.Context, c redis.Cmdable, id string) (*models.Proposal, error) {
	data, err := c.HGetAll(ctx, proposalKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, common.ErrorNotFound
	}
	p, err := decodeProposal(data)
	if err != nil {
		return nil, err
	}

	raw, err := c.LRange(ctx, votesKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	for _, r := range raw {
		var v models.Vote
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			return nil, fmt.Errorf("proposal %s vote: %w", id, err)
		}
		p.Votes = append(p.Votes, v)
	}
	return p, nil
}
