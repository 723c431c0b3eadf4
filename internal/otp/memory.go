package otp

import (
	"context"
	"sync"
	"time"

	"petconnect/internal/middleware"

	"github.com/robfig/cron/v3"
)

type memoryEntry struct {
	code    string
	expires time.Time
}

// MemoryStore is a process-local fallback used when Redis is unavailable.
// Codes do not survive a restart and are not shared between instances.
// Expired entries are rejected on read and swept once a minute.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	cron    *cron.Cron
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Start schedules the expiry sweep.
func (s *MemoryStore) Start() error {
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", s.Sweep); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	middleware.Logger.Warn("OTP store running in memory; codes are lost on restart and not shared across instances")
	return nil
}

// Stop halts the sweep and waits for a running one to finish.
func (s *MemoryStore) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *MemoryStore) Save(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[normalizeEmail(email)] = memoryEntry{code: code, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Verify(_ context.Context, email, code string) (bool, error) {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(entry.expires) {
		delete(s.entries, key)
		return false, nil
	}
	if !codesEqual(entry.code, code) {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// Sweep drops every expired entry.
func (s *MemoryStore) Sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}

// Len reports how many codes are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
