package redishandler

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/saxenaaman628/badenya/internal/models"
)

func (s *Store) AppendTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.groupExists(ctx, tx.GroupID); err != nil {
		return err
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		writeTransaction(ctx, pipe, tx)
		return nil
	})
	return err
}

func (s *Store) ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	ids, err := s.rdb.ZRange(ctx, groupTxKey(groupID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Transaction, 0, len(ids))
	for _, id := range ids {
		data, err := s.rdb.HGetAll(ctx, transactionKey(id)).Result()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		tx, err := decodeTransaction(data)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func writeTransaction(ctx context.Context, pipe redis.Pipeliner, tx *models.Transaction) {
	pipe.HSet(ctx, transactionKey(tx.ID), transactionFields(tx))
	pipe.ZAdd(ctx, groupTxKey(tx.GroupID), redis.Z{Score: float64(tx.CreatedAt.UnixNano()), Member: tx.ID})
}
