// Package memstore keeps every record in process memory. It backs the
// "memory" store backend and the engine tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/models"
)

type Store struct {
	mu           sync.RWMutex
	proposals    map[string]*models.Proposal
	groups       map[string]*models.Group
	members      map[string]map[string]models.Member
	transactions map[string][]*models.Transaction
	users        map[string]*models.User
}

func New() *Store {
	return &Store{
		proposals:    map[string]*models.Proposal{},
		groups:       map[string]*models.Group{},
		members:      map[string]map[string]models.Member{},
		transactions: map[string][]*models.Transaction{},
		users:        map[string]*models.User{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Insert(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[p.ID]; ok {
		return common.ErrorAlreadyExists
	}
	s.proposals[p.ID] = p.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p.Clone(), nil
}

func (s *Store) ListByGroup(_ context.Context, groupID string) ([]*models.Proposal, error) {
	return s.filter(func(p *models.Proposal) bool { return p.GroupID == groupID }), nil
}

func (s *Store) ListPending(context.Context) ([]*models.Proposal, error) {
	return s.filter(func(p *models.Proposal) bool { return p.Status == models.StatusPending }), nil
}

func (s *Store) filter(keep func(*models.Proposal) bool) []*models.Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Proposal{}
	for _, p := range s.proposals {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Update runs fn on a copy under the write lock and swaps it in only when fn
// succeeds, so the proposal and its ledger entry commit together.
func (s *Store) Update(_ context.Context, id string, fn func(*models.Proposal) (*models.Transaction, error)) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.proposals[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cur := stored.Clone()
	tx, err := fn(cur)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(cur.Votes))
	for _, v := range cur.Votes {
		if _, dup := seen[v.UserID]; dup {
			return nil, common.ErrorAlreadyExists
		}
		seen[v.UserID] = struct{}{}
	}

	s.proposals[id] = cur
	if tx != nil {
		c := *tx
		s.transactions[c.GroupID] = append(s.transactions[c.GroupID], &c)
	}
	return cur.Clone(), nil
}

func (s *Store) CreateGroup(_ context.Context, g *models.Group, owner models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; ok {
		return common.ErrorAlreadyExists
	}
	c := *g
	s.groups[g.ID] = &c
	s.members[g.ID] = map[string]models.Member{owner.UserID: owner}
	return nil
}

func (s *Store) GetGroup(_ context.Context, id string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *g
	return &c, nil
}

func (s *Store) SetQuorum(_ context.Context, groupID string, quorum *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return common.ErrorNotFound
	}
	if quorum == nil {
		g.QuorumPercent = nil
		return nil
	}
	q := *quorum
	g.QuorumPercent = &q
	return nil
}

func (s *Store) PutMember(_ context.Context, m models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.members[m.GroupID]
	if !ok {
		return common.ErrorNotFound
	}
	if existing, ok := members[m.UserID]; ok {
		m.JoinedAt = existing.JoinedAt
	}
	members[m.UserID] = m
	return nil
}

func (s *Store) RemoveMember(_ context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[groupID][userID]; !ok {
		return common.ErrorNotFound
	}
	delete(s.members[groupID], userID)
	return nil
}

func (s *Store) ListMembers(_ context.Context, groupID string) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Member, 0, len(s.members[groupID]))
	for _, m := range s.members[groupID] {
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

func (s *Store) GetMember(_ context.Context, groupID, userID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[groupID][userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &m, nil
}

func (s *Store) AppendTransaction(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[tx.GroupID]; !ok {
		return common.ErrorNotFound
	}
	c := *tx
	s.transactions[tx.GroupID] = append(s.transactions[tx.GroupID], &c)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, groupID string) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Transaction, 0, len(s.transactions[groupID]))
	for _, tx := range s.transactions[groupID] {
		c := *tx
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return common.ErrorAlreadyExists
	}
	c := *u
	s.users[u.Username] = &c
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}
