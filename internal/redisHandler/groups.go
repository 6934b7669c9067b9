package redishandler

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/models"
)

func (s *Store) CreateGroup(ctx context.Context, g *models.Group, owner models.Member) error {
	ownerJSON, err := json.Marshal(owner)
	if err != nil {
		return err
	}
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, groupKey(g.ID)).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return common.ErrorAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, groupKey(g.ID), groupFields(g))
			pipe.HSet(ctx, membersKey(g.ID), owner.UserID, ownerJSON)
			return nil
		})
		return err
	}, groupKey(g.ID))
	if errors.Is(err, redis.TxFailedErr) {
		return common.ErrorAlreadyExists
	}
	return err
}

func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	data, err := s.rdb.HGetAll(ctx, groupKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, common.ErrorNotFound
	}
	return decodeGroup(data)
}

func (s *Store) SetQuorum(ctx context.Context, groupID string, quorum *float64) error {
	if err := s.groupExists(ctx, groupID); err != nil {
		return err
	}
	if quorum == nil {
		return s.rdb.HDel(ctx, groupKey(groupID), "quorum_percent").Err()
	}
	return s.rdb.HSet(ctx, groupKey(groupID), "quorum_percent", strconv.FormatFloat(*quorum, 'f', -1, 64)).Err()
}

// PutMember adds or updates a member. An existing member keeps their original join time.
func (s *Store) PutMember(ctx context.Context, m models.Member) error {
	if err := s.groupExists(ctx, m.GroupID); err != nil {
		return err
	}
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			existing, err := getMember(ctx, tx, m.GroupID, m.UserID)
			switch {
			case err == nil:
				m.JoinedAt = existing.JoinedAt
			case !errors.Is(err, common.ErrorNotFound):
				return err
			}
			b, err := json.Marshal(m)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, membersKey(m.GroupID), m.UserID, b)
				return nil
			})
			return err
		}, membersKey(m.GroupID))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return common.ErrConflict
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	n, err := s.rdb.HDel(ctx, membersKey(groupID), userID).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	data, err := s.rdb.HGetAll(ctx, membersKey(groupID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.Member, 0, len(data))
	for _, raw := range data {
		var m models.Member
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s *Store) GetMember(ctx context.Context, groupID, userID string) (*models.Member, error) {
	return getMember(ctx, s.rdb, groupID, userID)
}

func getMember(ctx context.Context, c redis.Cmdable, groupID, userID string) (*models.Member, error) {
	raw, err := c.HGet(ctx, membersKey(groupID), userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	var m models.Member
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) groupExists(ctx context.Context, groupID string) error {
	n, err := s.rdb.Exists(ctx, groupKey(groupID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
