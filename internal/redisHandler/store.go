// Package redishandler stores proposals, votes, groups, the ledger and user
// accounts in Redis hashes, sets and sorted sets.
//
// Key layout:
//
//	proposal:<id>                 hash of proposal fields
//	proposal:<id>:votes           list of JSON-encoded votes, in cast order
//	proposal:<id>:voters          set of user ids that have voted
//	proposals:pending             set of pending proposal ids
//	group:<gid>                   hash of group fields
//	group:<gid>:members           hash user id -> JSON member
//	group:<gid>:proposals         zset of proposal ids scored by creation time
//	group:<gid>:transactions      zset of transaction ids scored by creation time
//	transaction:<id>              hash of transaction fields
//	user:<username>               hash of user fields
package redishandler

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// maxRetries bounds optimistic WATCH/MULTI attempts before giving up with
// common.ErrConflict.
const maxRetries = 10

const pendingKey = "proposals:pending"

func proposalKey(id string) string        { return "proposal:" + id }
func votesKey(id string) string           { return "proposal:" + id + ":votes" }
func votersKey(id string) string          { return "proposal:" + id + ":voters" }
func groupKey(id string) string           { return "group:" + id }
func membersKey(gid string) string        { return "group:" + gid + ":members" }
func groupProposalsKey(gid string) string { return "group:" + gid + ":proposals" }
func groupTxKey(gid string) string        { return "group:" + gid + ":transactions" }
func transactionKey(id string) string     { return "transaction:" + id }
func userKey(username string) string      { return "user:" + username }

type Store struct {
	rdb redis.UniversalClient
}

func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
