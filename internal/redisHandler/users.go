package redishandler

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, userKey(u.Username)).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return common.ErrorAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, userKey(u.Username), map[string]interface{}{
				"id":            u.ID,
				"username":      u.Username,
				"password_hash": u.PasswordHash,
				"created_at":    formatTime(u.CreatedAt),
			})
			return nil
		})
		return err
	}, userKey(u.Username))
	if errors.Is(err, redis.TxFailedErr) {
		return common.ErrorAlreadyExists
	}
	return err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	data, err := s.rdb.HGetAll(ctx, userKey(username)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, common.ErrorNotFound
	}
	return decodeUser(data)
}
