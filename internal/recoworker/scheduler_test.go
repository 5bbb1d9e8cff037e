package recoworker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/services"
)

type countingGenerator struct {
	calls atomic.Int32
	err   error
}

func (c *countingGenerator) GenerateAll(context.Context) (*services.BatchResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &services.BatchResult{
		Results: map[string]*services.GenerateResult{"u1": {UserID: "u1", Created: 2}},
		Errors:  map[string]string{"u2": "boom"},
	}, nil
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	gen := &countingGenerator{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewScheduler(gen, 10*time.Millisecond, zerolog.Nop()).Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for gen.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated batches, got %d", gen.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("scheduler did not stop")
	}
}

func TestScheduler_BatchErrorDoesNotStop(t *testing.T) {
	gen := &countingGenerator{err: errors.New("list users: connection reset")}
	s := NewScheduler(gen, time.Hour, zerolog.Nop())
	s.runOnce(context.Background())
	s.runOnce(context.Background())
	if gen.calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", gen.calls.Load())
	}
}
