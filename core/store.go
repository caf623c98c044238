package core

import (
	"log/slog"
	"sync"
	"time"
)

// VerifiedPayment records one settlement that has already been confirmed
// on-chain, keyed by its transaction hash.
type VerifiedPayment struct {
	TxHash     string    `json:"txHash"`
	Amount     string    `json:"amount"`
	From       string    `json:"from"`
	ObservedAt time.Time `json:"observedAt"`
}

// VerifiedPaymentStore is the idempotency cache for verified payments. It is
// owned by a single Verifier instance and safe for concurrent use. Entries
// older than the configured TTL are evicted by the sweeper.
type VerifiedPaymentStore struct {
	mu        sync.RWMutex
	data      map[string]VerifiedPayment
	ttl       time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewVerifiedPaymentStore creates a store whose entries expire after ttl.
func NewVerifiedPaymentStore(ttl time.Duration) *VerifiedPaymentStore {
	return &VerifiedPaymentStore{
		data: make(map[string]VerifiedPayment),
		ttl:  ttl,
		done: make(chan struct{}),
	}
}

// Get returns the entry for the given transaction hash, if present.
func (s *VerifiedPaymentStore) Get(txHash string) (VerifiedPayment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[txHash]
	return entry, ok
}

// Put records a verified payment. The insert is an atomic upsert: concurrent
// writers racing on the same transaction hash cannot corrupt the entry.
func (s *VerifiedPaymentStore) Put(payment VerifiedPayment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[payment.TxHash] = payment
}

// Len returns the number of live entries.
func (s *VerifiedPaymentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Entries returns a snapshot of all live entries, for operator introspection.
func (s *VerifiedPaymentStore) Entries() []VerifiedPayment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]VerifiedPayment, 0, len(s.data))
	for _, entry := range s.data {
		entries = append(entries, entry)
	}
	return entries
}

// StartSweeper launches a background goroutine that evicts expired entries on
// the given interval. It runs until Close is called.
func (s *VerifiedPaymentStore) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	}()
}

// sweep evicts entries older than the TTL.
func (s *VerifiedPaymentStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	evicted := 0

	for txHash, entry := range s.data {
		if entry.ObservedAt.Before(cutoff) {
			delete(s.data, txHash)
			evicted++
		}
	}

	if evicted > 0 {
		slog.Debug("evicted expired verified payments", "count", evicted)
	}
}

// Close stops the sweeper. Safe to call more than once.
func (s *VerifiedPaymentStore) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
