package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubPruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (s *stubPruner) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.n, s.err
}

func (s *stubPruner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

func TestLoginPruner_CutoffIsNowMinusRetention(t *testing.T) {
	stub := &stubPruner{n: 3}
	w := NewLoginPruner(stub, zap.NewNop(), time.Hour, 24*time.Hour)
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	if got := w.prune(); got != 3 {
		t.Errorf("prune() = %d, want 3", got)
	}
	want := fixed.Add(-24 * time.Hour)
	if !stub.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", stub.cutoffs[0], want)
	}
}

func TestLoginPruner_ErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	stub := &stubPruner{err: errors.New("db down")}
	w := NewLoginPruner(stub, zap.New(core), time.Hour, time.Hour)

	if got := w.prune(); got != 0 {
		t.Errorf("prune() = %d, want 0 on error", got)
	}
	if logs.FilterMessage("failed to prune login records").Len() != 1 {
		t.Error("expected the failure to be logged")
	}
}

func TestLoginPruner_StartStop(t *testing.T) {
	stub := &stubPruner{}
	w := NewLoginPruner(stub, zap.NewNop(), 5*time.Millisecond, time.Hour)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for stub.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if stub.calls() == 0 {
		t.Fatal("expected at least one prune before stop")
	}
	after := stub.calls()
	time.Sleep(20 * time.Millisecond)
	if stub.calls() != after {
		t.Error("worker kept pruning after Stop")
	}
}
