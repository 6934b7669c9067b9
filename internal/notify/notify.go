// Package notify delivers proposal events to group members. Delivery is best
// effort: the engine logs failures and carries on.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saxenaaman628/badenya/internal/models"
	"go.uber.org/zap"
)

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// RedisStream appends one entry per recipient to a Redis stream so that
// delivery workers (push, SMS, email) can consume them independently.
type RedisStream struct {
	rdb    redis.UniversalClient
	stream string
}

func NewRedisStream(rdb redis.UniversalClient, stream string) *RedisStream {
	return &RedisStream{rdb: rdb, stream: stream}
}

func (s *RedisStream) Notify(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range n.Recipients {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: s.stream,
				Values: map[string]interface{}{
					"event":       string(n.Event),
					"group_id":    n.GroupID,
					"proposal_id": n.ProposalID,
					"recipient":   r,
					"payload":     string(payload),
					"time":        n.CreatedAt.Unix(),
				},
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", n.Event, s.stream, err)
	}
	return nil
}

// Log writes every notification to the service log.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log.Named("notify")}
}

func (l *Log) Notify(_ context.Context, n models.Notification) error {
	l.log.Info("notification",
		zap.String("event", string(n.Event)),
		zap.String("group_id", n.GroupID),
		zap.String("proposal_id", n.ProposalID),
		zap.Int("recipients", len(n.Recipients)),
	)
	return nil
}

// Multi hands each notification to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, next := range m {
		if err := next.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async moves delivery off the request path. Notify returns immediately;
// failures are logged. Wait blocks until in-flight deliveries finish.
type Async struct {
	next    Notifier
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, log *zap.Logger, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Async{next: next, log: log.Named("notify"), timeout: timeout}
}

func (a *Async) Notify(ctx context.Context, n models.Notification) error {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.next.Notify(ctx, n); err != nil {
			a.log.Warn("deliver notification",
				zap.String("event", string(n.Event)),
				zap.String("proposal_id", n.ProposalID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

func (a *Async) Wait() {
	a.wg.Wait()
}
