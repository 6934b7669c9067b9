package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sample() models.Notification {
	return models.Notification{
		Event:      models.EventProposalCreated,
		GroupID:    "g1",
		Recipients: []string{"u2", "u3"},
		ProposalID: "p1",
		Payload:    map[string]string{"title": "Buy seeds"},
		CreatedAt:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRedisStream(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStream(rdb, "badenya.notifications")
	require.NoError(t, s.Notify(context.Background(), sample()))

	entries, err := rdb.XRange(context.Background(), "badenya.notifications", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "u2", entries[0].Values["recipient"])
	assert.Equal(t, "u3", entries[1].Values["recipient"])
	assert.Equal(t, "proposal.created", entries[0].Values["event"])
	assert.JSONEq(t, `{"title":"Buy seeds"}`, entries[0].Values["payload"].(string))
}

func TestRedisStream_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	err := NewRedisStream(rdb, "s").Notify(context.Background(), sample())
	assert.Error(t, err)
}

type recorder struct {
	mu  sync.Mutex
	got []models.Notification
	err error
}

func (r *recorder) Notify(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{err: errors.New("sms gateway down")}
	err := Multi{a, b}.Notify(context.Background(), sample())

	assert.ErrorContains(t, err, "sms gateway down")
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}

func TestAsync_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	next := &recorder{err: errors.New("boom")}
	a := NewAsync(next, zap.New(core), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Notify(ctx, sample()))
	cancel()
	a.Wait()

	assert.Len(t, next.got, 1)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "deliver notification", logs.All()[0].Message)
}

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	require.NoError(t, NewLog(zap.New(core)).Notify(context.Background(), sample()))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "p1", logs.All()[0].ContextMap()["proposal_id"])
}
