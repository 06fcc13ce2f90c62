// Package passwords hashes and verifies account passwords with bcrypt on a
// bounded pool of workers.
//
// bcrypt at a realistic cost takes hundreds of milliseconds of CPU. The pool
// caps how many run at once so a burst of signups or logins cannot starve
// the rest of the server; callers block until their hash completes.
package passwords

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dalemusser/fanzone/internal/app/system/metrics"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is used when the configured cost is zero.
const DefaultCost = 12

// Hasher is safe for concurrent use.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted

	decoyOnce sync.Once
	decoy     []byte
}

// NewHasher returns a Hasher using cost and at most workers concurrent bcrypt
// operations. cost 0 means DefaultCost; workers <= 0 means GOMAXPROCS.
func NewHasher(cost, workers int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(workers))}, nil
}

// Cost returns the bcrypt cost new hashes are created with.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns the bcrypt hash of plain. ctx bounds only the wait for a
// worker; once hashing starts it runs to completion.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	var out []byte
	err := h.run(ctx, "hash", func() error {
		var err error
		out, err = bcrypt.GenerateFromPassword([]byte(plain), h.cost)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plain matches hash. A mismatch is (false, nil);
// an error means the comparison could not be made (malformed hash,
// cancelled while waiting for a worker).
func (h *Hasher) Verify(ctx context.Context, hash, plain string) (bool, error) {
	var match bool
	err := h.run(ctx, "verify", func() error {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
		switch {
		case err == nil:
			match = true
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}
	return match, nil
}

// VerifyAbsent spends the same work as Verify against a throwaway hash.
// Authentication calls it when no account matched so the response time does
// not reveal whether the email exists.
func (h *Hasher) VerifyAbsent(ctx context.Context, plain string) {
	h.decoyOnce.Do(func() {
		h.decoy, _ = bcrypt.GenerateFromPassword([]byte("fanzone-decoy-password"), h.cost)
	})
	_ = h.run(ctx, "verify", func() error {
		_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(plain))
		return nil
	})
}

func (h *Hasher) run(ctx context.Context, op string, fn func() error) error {
	waitStart := time.Now()
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for hashing worker: %w", err)
	}
	defer h.sem.Release(1)
	metrics.ObserveHashWait(time.Since(waitStart))

	start := time.Now()
	err := fn()
	metrics.ObserveHash(op, time.Since(start))
	return err
}
