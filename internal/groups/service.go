// Package groups manages savings groups and their membership roster.
package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/models"
)

var ErrLastAdmin = fmt.Errorf("%w: a group must keep at least one admin", common.ErrorInvalidInput)

type Repository interface {
	CreateGroup(ctx context.Context, g *models.Group, owner models.Member) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	SetQuorum(ctx context.Context, groupID string, quorum *float64) error
	PutMember(ctx context.Context, m models.Member) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	GetMember(ctx context.Context, groupID, userID string) (*models.Member, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type CreateInput struct {
	Name          string
	Currency      string
	QuorumPercent *float64
}

// Create opens a group with creatorID as its first admin.
func (s *Service) Create(ctx context.Context, creatorID string, in CreateInput) (*models.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "XOF"
	}
	if err := checkQuorum(in.QuorumPercent); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	g := &models.Group{
		ID:            uuid.New().String(),
		Name:          name,
		Currency:      currency,
		CreatedBy:     creatorID,
		CreatedAt:     now,
		QuorumPercent: in.QuorumPercent,
	}
	owner := models.Member{GroupID: g.ID, UserID: creatorID, Role: models.RoleAdmin, JoinedAt: now}
	if err := s.repo.CreateGroup(ctx, g, owner); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// Get returns the group if requesterID belongs to it.
func (s *Service) Get(ctx context.Context, groupID, requesterID string) (*models.Group, error) {
	if _, err := s.RequireMember(ctx, groupID, requesterID); err != nil {
		return nil, err
	}
	return s.repo.GetGroup(ctx, groupID)
}

func (s *Service) Members(ctx context.Context, groupID, requesterID string) ([]models.Member, error) {
	if _, err := s.RequireMember(ctx, groupID, requesterID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
}

// RequireMember fails with common.ErrorNotFound for an unknown group and
// common.ErrorForbidden when userID is not on the roster.
func (s *Service) RequireMember(ctx context.Context, groupID, userID string) (*models.Member, error) {
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMember(ctx, groupID, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: not a member of this group", common.ErrorForbidden)
	}
	return m, err
}

// SetMember adds userID to the group or changes their role. Only admins may do it.
func (s *Service) SetMember(ctx context.Context, groupID, actorID, userID string, role models.Role) (*models.Member, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be admin, treasurer or member", common.ErrorInvalidInput)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrorInvalidInput)
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	if role != models.RoleAdmin {
		if err := s.keepAnAdmin(ctx, groupID, userID); err != nil {
			return nil, err
		}
	}

	m := models.Member{GroupID: groupID, UserID: userID, Role: role, JoinedAt: s.now().UTC()}
	if err := s.repo.PutMember(ctx, m); err != nil {
		return nil, fmt.Errorf("put member: %w", err)
	}
	return s.repo.GetMember(ctx, groupID, userID)
}

func (s *Service) RemoveMember(ctx context.Context, groupID, actorID, userID string) error {
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}
	if err := s.keepAnAdmin(ctx, groupID, userID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, groupID, userID)
}

// SetQuorum overrides the group's quorum; nil restores the service default.
func (s *Service) SetQuorum(ctx context.Context, groupID, actorID string, quorum *float64) (*models.Group, error) {
	if err := checkQuorum(quorum); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	if err := s.repo.SetQuorum(ctx, groupID, quorum); err != nil {
		return nil, fmt.Errorf("set quorum: %w", err)
	}
	return s.repo.GetGroup(ctx, groupID)
}

func (s *Service) requireAdmin(ctx context.Context, groupID, actorID string) error {
	m, err := s.RequireMember(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if m.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only group admins can manage the group", common.ErrorForbidden)
	}
	return nil
}

// keepAnAdmin refuses to demote or remove userID if they are the last admin.
func (s *Service) keepAnAdmin(ctx context.Context, groupID, userID string) error {
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	admins, target := 0, false
	for _, m := range members {
		if m.Role == models.RoleAdmin {
			admins++
			target = target || m.UserID == userID
		}
	}
	if target && admins == 1 {
		return ErrLastAdmin
	}
	return nil
}

func checkQuorum(q *float64) error {
	if q != nil && (*q < 0 || *q > 100) {
		return fmt.Errorf("%w: quorum must be between 0 and 100", common.ErrorInvalidInput)
	}
	return nil
}
