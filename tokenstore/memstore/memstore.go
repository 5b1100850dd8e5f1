package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/tokenstore"
)

var _ tokenstore.Store = (*MemStore)(nil)

type entry struct {
	value     string
	expiresAt time.Time
}

type MemStore struct {
	slots   map[tokenstore.Slot]entry
	policy  tokenstore.Policy
	nowTime func() time.Time
	lock    sync.RWMutex
}

type Option func(*MemStore)

func WithNowTime(nowTime func() time.Time) Option {
	return func(m *MemStore) {
		m.nowTime = nowTime
	}
}

func New(policy tokenstore.Policy, opts ...Option) *MemStore {
	m := &MemStore{
		slots:   make(map[tokenstore.Slot]entry),
		policy:  policy,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemStore) Get(_ context.Context, slot tokenstore.Slot) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	e, ok := m.slots[slot]
	if !ok {
		return "", errors.ErrNotFound
	}
	now := m.nowTime()
	if m.policy.Expiry > 0 && !now.Before(e.expiresAt) {
		delete(m.slots, slot)
		return "", errors.ErrNotFound
	}
	e.expiresAt = now.Add(m.policy.Expiry)
	m.slots[slot] = e
	return e.value, nil
}

func (m *MemStore) Set(_ context.Context, slot tokenstore.Slot, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.slots[slot] = entry{value: value, expiresAt: m.nowTime().Add(m.policy.Expiry)}
	return nil
}

func (m *MemStore) Delete(_ context.Context, slot tokenstore.Slot) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.slots, slot)
	return nil
}

func (m *MemStore) Clear(_ context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.slots = make(map[tokenstore.Slot]entry)
	return nil
}

// Len returns the number of stored slots, expired or not.
func (m *MemStore) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.slots)
}
