// Package migstate guards against two migrations running at once. The
// in-progress flag lives in a durable store shared by every process that
// may start a migration.
package migstate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// FlagKey names the durable flag. The flag reads InProgressValue while a
// migration runs; absent or any other value means idle.
const (
	FlagKey         = "migration-in-progress"
	InProgressValue = "true"
)

var (
	ErrAlreadyInProgress = errors.New("a migration is already in progress")
	ErrNotInProgress     = errors.New("no migration is in progress")
)

type State int

const (
	StateIdle State = iota
	StateInProgress
)

func (s State) String() string {
	if s == StateInProgress {
		return "in-progress"
	}
	return "idle"
}

// FlagStore is a durable string flag with atomic conditional writes.
type FlagStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// SetUnlessEqual writes value unless the flag already holds it, and
	// reports whether it wrote. Check and write are one atomic step.
	SetUnlessEqual(ctx context.Context, key, value string) (bool, error)
	// DeleteIfEqual removes the flag only when it holds value.
	DeleteIfEqual(ctx context.Context, key, value string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type Guard struct {
	store FlagStore
	key   string
	log   *zap.Logger
}

func NewGuard(store FlagStore, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{store: store, key: FlagKey, log: log.Named("migstate")}
}

func (g *Guard) State(ctx context.Context) (State, error) {
	v, ok, err := g.store.Get(ctx, g.key)
	if err != nil {
		return StateIdle, fmt.Errorf("read migration flag: %w", err)
	}
	if ok && v == InProgressValue {
		return StateInProgress, nil
	}
	return StateIdle, nil
}

// Owner reports which host:pid set the flag, when the store records it.
func (g *Guard) Owner(ctx context.Context) (string, error) {
	o, ok := g.store.(interface {
		Owner(ctx context.Context, key string) (string, error)
	})
	if !ok {
		return "", nil
	}
	return o.Owner(ctx, g.key)
}

// RequestStart moves Idle to InProgress. It fails with ErrAlreadyInProgress,
// leaving the flag untouched, when another session holds it.
func (g *Guard) RequestStart(ctx context.Context) error {
	ok, err := g.store.SetUnlessEqual(ctx, g.key, InProgressValue)
	if err != nil {
		return fmt.Errorf("set migration flag: %w", err)
	}
	if !ok {
		g.log.Warn("migration start refused", zap.String("key", g.key))
		return ErrAlreadyInProgress
	}
	g.log.Info("migration started", zap.String("key", g.key))
	return nil
}

// Complete ends the running migration.
func (g *Guard) Complete(ctx context.Context) error {
	return g.finish(ctx, "completed")
}

// Cancel abandons the running migration.
func (g *Guard) Cancel(ctx context.Context) error {
	return g.finish(ctx, "cancelled")
}

func (g *Guard) finish(ctx context.Context, how string) error {
	ok, err := g.store.DeleteIfEqual(ctx, g.key, InProgressValue)
	if err != nil {
		return fmt.Errorf("clear migration flag: %w", err)
	}
	if !ok {
		return ErrNotInProgress
	}
	g.log.Info("migration "+how, zap.String("key", g.key))
	return nil
}

// Reset clears the flag whatever it holds. It is the way out after a
// crashed migration left the flag behind.
func (g *Guard) Reset(ctx context.Context) error {
	if err := g.store.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("reset migration flag: %w", err)
	}
	g.log.Info("migration flag reset", zap.String("key", g.key))
	return nil
}

func instanceID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%d", hostname, os.Getpid())
}
