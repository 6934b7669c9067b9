package sqlstore

import (
	"context"
	"errors"

	"github.com/saxenaaman628/badenya/internal/common"
	"github.com/saxenaaman628/badenya/internal/models"
	"gorm.io/gorm"
)

func (s *Store) CreateGroup(ctx context.Context, g *models.Group, owner models.Member) error {
	row := groupRow{
		ID:            g.ID,
		Name:          g.Name,
		Currency:      g.Currency,
		CreatedBy:     g.CreatedBy,
		CreatedAt:     g.CreatedAt.UTC(),
		QuorumPercent: g.QuorumPercent,
	}
	m := memberRow{GroupID: g.ID, UserID: owner.UserID, Role: string(owner.Role), JoinedAt: owner.JoinedAt.UTC()}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.ErrorAlreadyExists
			}
			return err
		}
		return tx.Create(&m).Error
	})
}

func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var row groupRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.model(), nil
}

func (s *Store) SetQuorum(ctx context.Context, groupID string, quorum *float64) error {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&groupRow{}).Where("id = ?", groupID).Update("quorum_percent", quorum).Error
}

// PutMember adds or updates a member. An existing member keeps their original join time.
func (s *Store) PutMember(ctx context.Context, m models.Member) error {
	if _, err := s.GetGroup(ctx, m.GroupID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing memberRow
		err := tx.First(&existing, "group_id = ? AND user_id = ?", m.GroupID, m.UserID).Error
		switch {
		case err == nil:
			return tx.Model(&memberRow{}).
				Where("group_id = ? AND user_id = ?", m.GroupID, m.UserID).
				Update("role", string(m.Role)).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := memberRow{GroupID: m.GroupID, UserID: m.UserID, Role: string(m.Role), JoinedAt: m.JoinedAt.UTC()}
			return tx.Create(&row).Error
		default:
			return err
		}
	})
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	res := s.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&memberRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	var rows []memberRow
	if err := s.db.WithContext(ctx).Where("group_id = ?", groupID).Order("joined_at, user_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Member, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) GetMember(ctx context.Context, groupID, userID string) (*models.Member, error) {
	var row memberRow
	err := s.db.WithContext(ctx).First(&row, "group_id = ? AND user_id = ?", groupID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	m := row.model()
	return &m, nil
}

func (s *Store) AppendTransaction(ctx context.Context, tx *models.Transaction) error {
	if _, err := s.GetGroup(ctx, tx.GroupID); err != nil {
		return err
	}
	row := toTransactionRow(tx)
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return common.ErrorAlreadyExists
	}
	return err
}

func (s *Store) ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	var rows []transactionRow
	if err := s.db.WithContext(ctx).Where("group_id = ?", groupID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	row := userRow{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt.UTC()}
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return common.ErrorAlreadyExists
	}
	return err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).First(&row, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &models.User{ID: row.ID, Username: row.Username, PasswordHash: row.PasswordHash, CreatedAt: row.CreatedAt.UTC()}, nil
}
