package memory

import (
	"context"
	"sync"
)

// SequenceAllocator keeps named counters in memory; a missing counter starts
// at zero.
type SequenceAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{counters: make(map[string]int64)}
}

func (a *SequenceAllocator) Next(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[name]++
	return a.counters[name], nil
}
