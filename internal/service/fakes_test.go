package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/internal/repository"
	"membership-platform/backend/pkg/jwt"

	"github.com/stretchr/testify/mock"
)

var errStoreDown = errors.New("store unavailable")

type usageKey struct {
	userID  uint
	feature string
	day     string
}

// memUsageStore keys rows by calendar date, the way the postgres date column does.
type memUsageStore struct {
	mu           sync.Mutex
	counts       map[usageKey]int
	incrementErr error
	getErr       error
	increments   int
}

func newMemUsageStore() *memUsageStore {
	return &memUsageStore{counts: map[usageKey]int{}}
}

func (s *memUsageStore) key(userID uint, feature string, day time.Time) usageKey {
	return usageKey{userID: userID, feature: feature, day: day.Format("2006-01-02")}
}

func (s *memUsageStore) Get(_ context.Context, userID uint, feature string, periodStart time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return 0, s.getErr
	}
	return s.counts[s.key(userID, feature, periodStart)], nil
}

func (s *memUsageStore) Increment(_ context.Context, userID uint, feature string, periodStart, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrementErr != nil {
		return s.incrementErr
	}
	s.increments++
	s.counts[s.key(userID, feature, periodStart)]++
	return nil
}

func (s *memUsageStore) Decrement(_ context.Context, userID uint, feature string, periodStart time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(userID, feature, periodStart)
	if s.counts[k] > 0 {
		s.counts[k]--
	}
	return nil
}

func (s *memUsageStore) set(userID uint, day time.Time, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[s.key(userID, models.FeatureAIChat, day)] = n
}

func (s *memUsageStore) get(userID uint, day time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[s.key(userID, models.FeatureAIChat, day)]
}

type memConversations struct {
	byID        map[string]*models.Conversation
	setTitleErr error
	titleWrites int
}

func (r *memConversations) GetOwned(_ context.Context, id string, userID uint) (*models.Conversation, error) {
	c, ok := r.byID[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memConversations) SetTitle(_ context.Context, id string, title string) error {
	r.titleWrites++
	if r.setTitleErr != nil {
		return r.setTitleErr
	}
	r.byID[id].Title = title
	return nil
}

type memMessages struct {
	rows      []models.Message
	createErr error
}

func (r *memMessages) Create(_ context.Context, m *models.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.rows = append(r.rows, *m)
	return nil
}

func (r *memMessages) Recent(_ context.Context, conversationID string, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.rows {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memMessages) countFor(conversationID string) int {
	n := 0
	for _, m := range r.rows {
		if m.ConversationID == conversationID {
			n++
		}
	}
	return n
}

type memAgents map[string]*models.Agent

func (r memAgents) GetByID(_ context.Context, id string) (*models.Agent, error) {
	a, ok := r[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

type memProfiles map[uint]*models.NicheProfile

func (r memProfiles) GetByUser(_ context.Context, userID uint) (*models.NicheProfile, error) {
	p, ok := r[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type memSubscriptions struct {
	subs []models.Subscription
	err  error
}

func (r *memSubscriptions) LatestActive(_ context.Context, userID uint, status string, now time.Time) (*models.Subscription, error) {
	if r.err != nil {
		return nil, r.err
	}
	var best *models.Subscription
	for i := range r.subs {
		s := &r.subs[i]
		if s.UserID != userID || s.Status != status || s.CurrentPeriodEnd.Before(now) {
			continue
		}
		if best == nil || s.CreatedAt.After(best.CreatedAt) {
			best = s
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

type memUsers struct {
	byID   map[uint]*models.User
	nextID uint
	err    error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uint]*models.User{}, nextID: 1}
}

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	if r.err != nil {
		return r.err
	}
	u.ID = r.nextID
	r.nextID++
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) TouchLogin(_ context.Context, id uint, at time.Time) error {
	if u, ok := r.byID[id]; ok {
		u.LastLogin = at
	}
	return nil
}

// staticIdentity authenticates the token "user-<n>" as user n
type staticIdentity map[string]uint

func (s staticIdentity) Resolve(_ context.Context, creds Credentials) (*models.Identity, error) {
	if creds.BearerToken == "" && creds.SessionToken == "" {
		return nil, ErrNoCredentials
	}
	tok := creds.BearerToken
	if tok == "" {
		tok = creds.SessionToken
	}
	id, ok := s[tok]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &models.Identity{UserID: id}, nil
}

type fixedCeiling int

func (f fixedCeiling) Ceiling(context.Context, uint, time.Time) int { return int(f) }

type mockGateway struct {
	mock.Mock
	configured bool
}

func (m *mockGateway) Configured() bool { return m.configured }

func (m *mockGateway) Complete(ctx context.Context, req CompletionRequest) CompletionResult {
	args := m.Called(ctx, req)
	return args.Get(0).(CompletionResult)
}

type stubTokens struct {
	claims map[string]*jwt.JWTClaims
}

func (s stubTokens) ValidateToken(token string) (*jwt.JWTClaims, error) {
	if c, ok := s.claims[token]; ok {
		return c, nil
	}
	return nil, jwt.ErrInvalidToken
}
