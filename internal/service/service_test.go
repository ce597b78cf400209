package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"echobot/internal/repository"
	"echobot/types"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

// memoryRepo is an in-memory roster keyed by chat and telegram id.
type memoryRepo struct {
	mu      sync.Mutex
	members map[[2]int64]types.Member
	err     error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{members: make(map[[2]int64]types.Member)}
}

func (r *memoryRepo) AddMember(_ context.Context, m *types.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.members[[2]int64{m.ChatID, m.TelegramID}] = *m
	return nil
}

func (r *memoryRepo) GetMember(_ context.Context, chatID, telegramID int64) (*types.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.members[[2]int64{chatID, telegramID}]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	return &m, nil
}

func (r *memoryRepo) ListMembers(_ context.Context, chatID int64) ([]*types.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Member
	for k, m := range r.members {
		if k[0] == chatID {
			m := m
			out = append(out, &m)
		}
	}
	return out, r.err
}

func (r *memoryRepo) RemoveMember(_ context.Context, chatID, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{chatID, telegramID}
	if _, ok := r.members[key]; !ok {
		return repository.ErrMemberNotFound
	}
	delete(r.members, key)
	return nil
}

func (r *memoryRepo) Close() error { return nil }

func TestService_AddMember(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	s := NewService(zaptest.NewLogger(t), repo)
	joined := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return joined }

	m, err := s.AddMember(ctx, &types.Member{ChatID: -1, TelegramID: 5, TelegramName: "Ann"})
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m.MemberID == uuid.Nil {
		t.Error("MemberID not assigned")
	}
	if m.MemberID.Version() != 7 {
		t.Errorf("MemberID version = %d, want 7", m.MemberID.Version())
	}
	if !m.CreatedAt.Equal(joined) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, joined)
	}

	s.now = func() time.Time { return joined.Add(time.Hour) }
	again, err := s.AddMember(ctx, &types.Member{ChatID: -1, TelegramID: 5, TelegramName: "Ann B."})
	if err != nil {
		t.Fatalf("AddMember again: %v", err)
	}
	if again.MemberID != m.MemberID {
		t.Errorf("MemberID = %s, want %s kept", again.MemberID, m.MemberID)
	}
	if !again.CreatedAt.Equal(joined) {
		t.Errorf("CreatedAt = %v, want %v kept", again.CreatedAt, joined)
	}
}

func TestService_AddMember_invalid(t *testing.T) {
	s := NewService(zaptest.NewLogger(t), newMemoryRepo())
	tests := []struct {
		name   string
		member *types.Member
	}{
		{"no chat", &types.Member{TelegramID: 1}},
		{"no telegram id", &types.Member{ChatID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AddMember(context.Background(), tt.member); err == nil {
				t.Error("AddMember() = nil error, want error")
			}
		})
	}
}

func TestService_AddMember_repositoryError(t *testing.T) {
	repo := newMemoryRepo()
	repo.err = errors.New("disk full")
	s := NewService(zaptest.NewLogger(t), repo)

	if _, err := s.AddMember(context.Background(), &types.Member{ChatID: 1, TelegramID: 1}); !errors.Is(err, repo.err) {
		t.Errorf("AddMember() error = %v, want %v", err, repo.err)
	}
}

func TestService_RemoveMember(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	s := NewService(zaptest.NewLogger(t), repo)

	if _, err := s.AddMember(ctx, &types.Member{ChatID: 9, TelegramID: 3}); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := s.RemoveMember(ctx, 9, 3); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := s.RemoveMember(ctx, 9, 3); err != nil {
		t.Errorf("RemoveMember of an unknown member = %v, want nil", err)
	}
	members, err := s.ListMembers(ctx, 9)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("ListMembers = %d members, want 0", len(members))
	}
	if err := s.RemoveMember(ctx, 0, 3); err == nil {
		t.Error("RemoveMember without chat = nil error, want error")
	}
}
