package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go-auth-api/internal/domain"
)

type SessionRepo struct{ db *gorm.DB }

func NewSessionRepo(db *gorm.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at desc").Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepo) DeleteByDevice(ctx context.Context, userID, userAgent, ip string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND user_agent = ? AND ip_address = ?", userID, userAgent, ip).
		Delete(&domain.Session{}).Error
}

func (r *SessionRepo) DeleteCreatedBefore(ctx context.Context, t time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at <= ?", t).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
