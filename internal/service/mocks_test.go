package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"civic_reporter/internal/model"
	"civic_reporter/internal/xerrors"

	"github.com/stretchr/testify/mock"
)

type mockCitizenRepo struct{ mock.Mock }

func (m *mockCitizenRepo) UpsertByPhone(ctx context.Context, name, phone string) (*model.Citizen, error) {
	args := m.Called(ctx, name, phone)
	c, _ := args.Get(0).(*model.Citizen)
	return c, args.Error(1)
}

type mockStaffRepo struct{ mock.Mock }

func (m *mockStaffRepo) Create(ctx context.Context, a *model.StaffAccount) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStaffRepo) FindByUserID(ctx context.Context, userID string) (*model.StaffAccount, error) {
	args := m.Called(ctx, userID)
	a, _ := args.Get(0).(*model.StaffAccount)
	return a, args.Error(1)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Issue(ctx context.Context, s *model.Session) (string, error) {
	args := m.Called(ctx, s)
	return args.String(0), args.Error(1)
}

func (m *mockSessions) Resolve(ctx context.Context, token string) (*model.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*model.Session)
	return s, args.Error(1)
}

func (m *mockSessions) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) CheckLoginAttempt(ctx context.Context, ip, userID string) (bool, int64, error) {
	args := m.Called(ctx, ip, userID)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

func (m *mockLimiter) ResetLoginAttempts(ctx context.Context, ip, userID string) error {
	return m.Called(ctx, ip, userID).Error(0)
}

type mockIssueRepo struct{ mock.Mock }

func (m *mockIssueRepo) Create(ctx context.Context, issue *model.Issue) error {
	return m.Called(ctx, issue).Error(0)
}

func (m *mockIssueRepo) FindByID(ctx context.Context, id int64) (*model.Issue, error) {
	args := m.Called(ctx, id)
	i, _ := args.Get(0).(*model.Issue)
	return i, args.Error(1)
}

func (m *mockIssueRepo) FindByOwner(ctx context.Context, ownerID int64) ([]model.Issue, error) {
	args := m.Called(ctx, ownerID)
	is, _ := args.Get(0).([]model.Issue)
	return is, args.Error(1)
}

func (m *mockIssueRepo) FindAll(ctx context.Context, filters model.IssueFilters) ([]model.Issue, error) {
	args := m.Called(ctx, filters)
	is, _ := args.Get(0).([]model.Issue)
	return is, args.Error(1)
}

func (m *mockIssueRepo) UpdateStatus(ctx context.Context, id int64, expectedVersion int, change model.StatusChange) (*model.Issue, error) {
	args := m.Called(ctx, id, expectedVersion, change)
	i, _ := args.Get(0).(*model.Issue)
	return i, args.Error(1)
}

func (m *mockIssueRepo) Stats(ctx context.Context, municipality *string) (*model.DashboardStats, error) {
	args := m.Called(ctx, municipality)
	s, _ := args.Get(0).(*model.DashboardStats)
	return s, args.Error(1)
}

type mockImages struct{ mock.Mock }

func (m *mockImages) Save(images []model.ImageUpload) ([]string, error) {
	args := m.Called(images)
	p, _ := args.Get(0).([]string)
	return p, args.Error(1)
}

func (m *mockImages) Remove(paths []string) { m.Called(paths) }

func (m *mockImages) Open(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) Analyze(ctx context.Context, description string) (model.Analysis, error) {
	args := m.Called(ctx, description)
	return args.Get(0).(model.Analysis), args.Error(1)
}

// memIssueRepo is an in-memory IssueRepository with the same version and
// history semantics as the Postgres one.
type memIssueRepo struct {
	mu     sync.Mutex
	nextID int64
	issues map[int64]*model.Issue
}

func newMemIssueRepo() *memIssueRepo {
	return &memIssueRepo{nextID: 1, issues: map[int64]*model.Issue{}}
}

func cloneIssue(i *model.Issue) model.Issue {
	c := *i
	c.Images = append([]string{}, i.Images...)
	c.StatusHistory = append([]model.StatusChange(nil), i.StatusHistory...)
	return c
}

func (r *memIssueRepo) Create(_ context.Context, i *model.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	i.ID = r.nextID
	r.nextID++
	i.Version = 1
	i.CreatedAt, i.UpdatedAt = now, now
	for k := range i.StatusHistory {
		i.StatusHistory[k].ChangedAt = now
	}
	c := cloneIssue(i)
	r.issues[i.ID] = &c
	return nil
}

func (r *memIssueRepo) FindByID(_ context.Context, id int64) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.issues[id]
	if !ok {
		return nil, nil
	}
	c := cloneIssue(i)
	return &c, nil
}

func (r *memIssueRepo) list(keep func(*model.Issue) bool) []model.Issue {
	out := []model.Issue{}
	for _, i := range r.issues {
		if keep(i) {
			c := cloneIssue(i)
			c.StatusHistory = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out
}

func (r *memIssueRepo) FindByOwner(_ context.Context, ownerID int64) ([]model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(i *model.Issue) bool { return i.OwnerID == ownerID }), nil
}

func (r *memIssueRepo) FindAll(_ context.Context, f model.IssueFilters) ([]model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(i *model.Issue) bool {
		if f.Status != nil && i.Status != *f.Status {
			return false
		}
		if f.Municipality != nil && (i.Municipality == nil || *i.Municipality != *f.Municipality) {
			return false
		}
		if f.Search != nil {
			q := strings.ToLower(*f.Search)
			if !strings.Contains(strings.ToLower(i.Description), q) &&
				!strings.Contains(strings.ToLower(i.Category), q) &&
				!strings.Contains(strings.ToLower(i.OwnerName), q) {
				return false
			}
		}
		return true
	}), nil
}

func (r *memIssueRepo) UpdateStatus(_ context.Context, id int64, expectedVersion int, change model.StatusChange) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.issues[id]
	if !ok || i.Version != expectedVersion {
		return nil, xerrors.ErrStaleVersion
	}
	change.ChangedAt = time.Now()
	i.Status = change.Status
	i.Version++
	i.UpdatedAt = change.ChangedAt
	i.StatusHistory = append(i.StatusHistory, change)
	c := cloneIssue(i)
	return &c, nil
}

func (r *memIssueRepo) Stats(_ context.Context, municipality *string) (*model.DashboardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &model.DashboardStats{}
	for _, i := range r.issues {
		if municipality != nil && (i.Municipality == nil || *i.Municipality != *municipality) {
			continue
		}
		s.TotalIssues++
		switch i.Status {
		case model.StatusReported:
			s.Reported++
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusResolved:
			s.Resolved++
		case model.StatusSpam:
			s.SpamDetected++
		}
	}
	return s, nil
}
