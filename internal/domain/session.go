package domain

import (
	"context"
	"time"
)

// SessionRetention 超过 30 天的登录审计记录视为过期，定期清理
const SessionRetention = 30 * 24 * time.Hour

// Session 登录事件审计行，不承载任何鉴权状态（鉴权是无状态的 bearer token）
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	UserAgent string    `gorm:"size:255;not null" json:"user_agent"`
	IPAddress string    `gorm:"size:45;not null" json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) Active(now time.Time) bool {
	return now.Sub(s.CreatedAt) < SessionRetention
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	// DeleteByDevice 按 UA+IP 删除当前设备的审计记录（logout 用）
	DeleteByDevice(ctx context.Context, userID, userAgent, ip string) error
	DeleteCreatedBefore(ctx context.Context, t time.Time) (int64, error)
}
