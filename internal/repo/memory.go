package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-auth-api/internal/domain"
)

// Memory 三张表共用一把锁的内存实现，测试和本地联调用
type Memory struct {
	mu       sync.Mutex
	users    map[string]domain.User
	roles    map[string]domain.Role
	sessions map[string]domain.Session
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]domain.User),
		roles:    make(map[string]domain.Role),
		sessions: make(map[string]domain.Session),
	}
}

func (m *Memory) Users() domain.UserRepository       { return &memoryUsers{m} }
func (m *Memory) Roles() domain.RoleRepository       { return &memoryRoles{m} }
func (m *Memory) Sessions() domain.SessionRepository { return &memorySessions{m} }

// attachRole 返回带 Role 关联的副本
func (m *Memory) attachRole(u domain.User) domain.User {
	if u.RoleID != nil {
		if r, ok := m.roles[*u.RoleID]; ok {
			role := r
			u.Role = &role
		}
	}
	return u
}

type memoryUsers struct{ m *Memory }

func (s *memoryUsers) Create(_ context.Context, u *domain.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = u.CreatedAt
	s.m.users[u.ID] = *u
	return nil
}

func (s *memoryUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := s.m.attachRole(u)
	return &out, nil
}

func (s *memoryUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			out := s.m.attachRole(u)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memoryUsers) List(_ context.Context) ([]domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.User, 0, len(s.m.users))
	for _, u := range s.m.users {
		out = append(out, s.m.attachRole(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryUsers) Update(_ context.Context, u *domain.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, existing := range s.m.users {
		if id != u.ID && existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	u.UpdatedAt = time.Now()
	stored := *u
	stored.Role = nil
	s.m.users[u.ID] = stored
	return nil
}

func (s *memoryUsers) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.m.users, id)
	for sid, sess := range s.m.sessions {
		if sess.UserID == id {
			delete(s.m.sessions, sid)
		}
	}
	return nil
}

type memoryRoles struct{ m *Memory }

func (s *memoryRoles) Create(_ context.Context, r *domain.Role) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.roles {
		if existing.Name == r.Name {
			return domain.ErrRoleNameTaken
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = r.CreatedAt
	s.m.roles[r.ID] = *r
	return nil
}

func (s *memoryRoles) FindByID(_ context.Context, id string) (*domain.Role, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.roles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := r
	return &out, nil
}

func (s *memoryRoles) FindByName(_ context.Context, name string) (*domain.Role, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.roles {
		if r.Name == name {
			out := r
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memoryRoles) List(_ context.Context) ([]domain.Role, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.Role, 0, len(s.m.roles))
	for _, r := range s.m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryRoles) Update(_ context.Context, r *domain.Role) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.roles[r.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, existing := range s.m.roles {
		if id != r.ID && existing.Name == r.Name {
			return domain.ErrRoleNameTaken
		}
	}
	r.UpdatedAt = time.Now()
	s.m.roles[r.ID] = *r
	return nil
}

func (s *memoryRoles) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.roles[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.m.roles, id)
	// 引用该角色的用户置空，不删用户
	for uid, u := range s.m.users {
		if u.RoleID != nil && *u.RoleID == id {
			u.RoleID = nil
			s.m.users[uid] = u
		}
	}
	return nil
}

type memorySessions struct{ m *Memory }

func (s *memorySessions) Create(_ context.Context, sess *domain.Session) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	s.m.sessions[sess.ID] = *sess
	return nil
}

func (s *memorySessions) ListByUser(_ context.Context, userID string) ([]domain.Session, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []domain.Session
	for _, sess := range s.m.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memorySessions) DeleteByDevice(_ context.Context, userID, userAgent, ip string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, sess := range s.m.sessions {
		if sess.UserID == userID && sess.UserAgent == userAgent && sess.IPAddress == ip {
			delete(s.m.sessions, id)
		}
	}
	return nil
}

func (s *memorySessions) DeleteCreatedBefore(_ context.Context, t time.Time) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for id, sess := range s.m.sessions {
		if !sess.CreatedAt.After(t) {
			delete(s.m.sessions, id)
			n++
		}
	}
	return n, nil
}
