package migstate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenGorm("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newGormStore(t *testing.T, db *gorm.DB) *GormStore {
	t.Helper()
	s, err := NewGormStore(db)
	require.NoError(t, err)
	return s
}

func newRedisStore(t *testing.T, mr *miniredis.Miniredis) *RedisStore {
	t.Helper()
	s, err := NewRedisStore(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// storeFactories returns, per backend, a function opening a new session
// against the same durable state.
func storeFactories(t *testing.T) map[string]func() FlagStore {
	db := newSQLite(t)
	mr := miniredis.RunT(t)
	return map[string]func() FlagStore{
		"gorm":  func() FlagStore { return newGormStore(t, db) },
		"redis": func() FlagStore { return newRedisStore(t, mr) },
	}
}

func TestGuardLifecycle(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			g := NewGuard(open(), nil)

			st, err := g.State(ctx)
			require.NoError(t, err)
			assert.Equal(t, StateIdle, st)

			require.NoError(t, g.RequestStart(ctx))
			st, _ = g.State(ctx)
			assert.Equal(t, StateInProgress, st)

			assert.ErrorIs(t, g.RequestStart(ctx), ErrAlreadyInProgress)

			owner, err := g.Owner(ctx)
			require.NoError(t, err)
			assert.Equal(t, instanceID(), owner)

			require.NoError(t, g.Complete(ctx))
			st, _ = g.State(ctx)
			assert.Equal(t, StateIdle, st)
			assert.ErrorIs(t, g.Complete(ctx), ErrNotInProgress)
			assert.ErrorIs(t, g.Cancel(ctx), ErrNotInProgress)

			require.NoError(t, g.RequestStart(ctx))
			require.NoError(t, g.Cancel(ctx))
			require.NoError(t, g.RequestStart(ctx), "start is accepted again after cancel")

			require.NoError(t, g.Reset(ctx))
			require.NoError(t, g.Reset(ctx))
			st, _ = g.State(ctx)
			assert.Equal(t, StateIdle, st)
		})
	}
}

func TestGuard_FlagSetBeforeSessionStarts(t *testing.T) {
	ctx := context.Background()
	db := newSQLite(t)

	earlier := newGormStore(t, db)
	earlier.owner = "other-host:42"
	ok, err := earlier.SetUnlessEqual(ctx, FlagKey, InProgressValue)
	require.NoError(t, err)
	require.True(t, ok)

	var before flagRecord
	require.NoError(t, db.Take(&before, "flag_key = ?", FlagKey).Error)

	g := NewGuard(newGormStore(t, db), nil)
	st, err := g.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, st)
	assert.ErrorIs(t, g.RequestStart(ctx), ErrAlreadyInProgress)

	var after flagRecord
	require.NoError(t, db.Take(&after, "flag_key = ?", FlagKey).Error)
	assert.Equal(t, before.Value, after.Value)
	assert.Equal(t, "other-host:42", after.UpdatedBy)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestGuard_OtherValuesMeanIdle(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("schema-mapper:"+FlagKey, "false"))

	g := NewGuard(newRedisStore(t, mr), nil)
	st, err := g.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)
	assert.ErrorIs(t, g.Complete(ctx), ErrNotInProgress)

	require.NoError(t, g.RequestStart(ctx))
	v, err := mr.Get("schema-mapper:" + FlagKey)
	require.NoError(t, err)
	assert.Equal(t, InProgressValue, v)

	db := newSQLite(t)
	store := newGormStore(t, db)
	require.NoError(t, db.Create(&flagRecord{Key: FlagKey, Value: "FALSE"}).Error)
	g = NewGuard(store, nil)
	require.NoError(t, g.RequestStart(ctx))
	assert.ErrorIs(t, g.RequestStart(ctx), ErrAlreadyInProgress)
}

func TestGuard_ConcurrentStartsSucceedOnce(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const sessions = 16

			guards := make([]*Guard, sessions)
			for i := range guards {
				guards[i] = NewGuard(open(), nil)
			}

			var started, refused int32
			var wg sync.WaitGroup
			for _, g := range guards {
				wg.Add(1)
				go func(g *Guard) {
					defer wg.Done()
					err := g.RequestStart(ctx)
					switch {
					case err == nil:
						atomic.AddInt32(&started, 1)
					case assert.ErrorIs(t, err, ErrAlreadyInProgress):
						atomic.AddInt32(&refused, 1)
					}
				}(g)
			}
			wg.Wait()

			assert.EqualValues(t, 1, started)
			assert.EqualValues(t, sessions-1, refused)

			require.NoError(t, guards[0].Complete(ctx))
			assert.NoError(t, guards[sessions-1].RequestStart(ctx))
		})
	}
}

func TestOwnGormStore_ClosesPoolOnFailure(t *testing.T) {
	db := newSQLite(t)
	require.NoError(t, db.Exec("CREATE VIEW migration_flags AS SELECT 1 AS flag_key").Error)

	_, err := ownGormStore(db)
	require.ErrorContains(t, err, "migrate flag table")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}

func TestOpenGormStore(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "flags.db")
	s, err := OpenGormStore("sqlite", dsn)
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.SetUnlessEqual(context.Background(), "migration", "running")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = OpenGormStore("db2", dsn)
	assert.ErrorContains(t, err, "unsupported state driver")
}

func TestOpenGorm_UnknownDriver(t *testing.T) {
	_, err := OpenGorm("db2", "whatever")
	assert.ErrorContains(t, err, "unsupported state driver")
}
