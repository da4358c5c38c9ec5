package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sparksblog/sparks/model"
)

// CaptureMailer records issued links instead of delivering them.
type CaptureMailer struct {
	mu    sync.Mutex
	Sent  []string
	Links []string
}

func (m *CaptureMailer) SendLink(ctx context.Context, email string, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, email)
	m.Links = append(m.Links, link)
	return nil
}

// FakeDirectory upserts users in memory, one stable id per email.
type FakeDirectory struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{users: map[string]*model.User{}}
}

func (d *FakeDirectory) UpsertByEmail(ctx context.Context, email string) (*model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if user, ok := d.users[email]; ok {
		return user, nil
	}
	user := &model.User{Id: uuid.New().String(), Email: email}
	d.users[email] = user
	return user, nil
}
