package core

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func makePayment(txHash string, age time.Duration) VerifiedPayment {
	return VerifiedPayment{
		TxHash:     txHash,
		Amount:     "1000",
		From:       "0x0000000000000000000000000000000000000001",
		ObservedAt: time.Now().Add(-age),
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store := NewVerifiedPaymentStore(time.Hour)
	defer store.Close()

	if _, ok := store.Get("0xabc"); ok {
		t.Fatal("expected a miss on an empty store")
	}

	store.Put(makePayment("0xabc", 0))

	entry, ok := store.Get("0xabc")
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if entry.Amount != "1000" {
		t.Errorf("expected amount 1000, got %q", entry.Amount)
	}
	if store.Len() != 1 {
		t.Errorf("expected one entry, got %d", store.Len())
	}
}

func TestStore_PutSameKeyIsUpsert(t *testing.T) {
	store := NewVerifiedPaymentStore(time.Hour)
	defer store.Close()

	store.Put(makePayment("0xabc", 0))
	store.Put(makePayment("0xabc", 0))

	if store.Len() != 1 {
		t.Errorf("expected a single entry after repeated Put, got %d", store.Len())
	}
}

func TestStore_SweepEvictsExpired(t *testing.T) {
	store := NewVerifiedPaymentStore(time.Minute)
	defer store.Close()

	store.Put(makePayment("0xfresh", 0))
	store.Put(makePayment("0xstale", 2*time.Minute))

	store.sweep()

	if _, ok := store.Get("0xstale"); ok {
		t.Error("expected the stale entry to be evicted")
	}
	if _, ok := store.Get("0xfresh"); !ok {
		t.Error("expected the fresh entry to survive")
	}
	if store.Len() != 1 {
		t.Errorf("expected one entry after sweep, got %d", store.Len())
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewVerifiedPaymentStore(time.Hour)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			txHash := fmt.Sprintf("0x%02d", n%10)
			store.Put(makePayment(txHash, 0))
			store.Get(txHash)
			store.Entries()
		}(i)
	}
	wg.Wait()

	if store.Len() != 10 {
		t.Errorf("expected 10 distinct entries, got %d", store.Len())
	}
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	store := NewVerifiedPaymentStore(time.Hour)
	store.StartSweeper(time.Millisecond)

	store.Close()
	store.Close()
}
