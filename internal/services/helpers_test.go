package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/cheshire-bot/internal/domain"
	"github.com/tbourn/cheshire-bot/internal/repo"
)

var bg = context.Background()

// newTestDB opens a migrated SQLite file that survives "restarts" within a
// test: reopen it with openEnv to simulate a fresh process.
func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cwdb.db")
	db := openDB(t, path)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return path
}

func openDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(db) })
	return db
}

// openEnv loads a fresh Environment from the database at path.
func openEnv(t *testing.T, path string) (*Environment, *repo.Gateway) {
	t.Helper()
	gw := repo.NewGateway(openDB(t, path))
	env, err := NewEnvironment(bg, gw)
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	return env, gw
}

var errStoreDown = errors.New("store down")

// fakeStore is an in-memory Store whose calls can be made to fail.
type fakeStore struct {
	mu sync.Mutex

	users    map[int64]*domain.User
	triggers domain.ChatTriggers

	failLoad     bool
	failTriggers int // number of SaveTriggers calls left to fail
	failUsers    bool
	failOrders   bool

	saveTriggerCalls int
	saveUserCalls    int
	updated          []domain.Order
	deleted          []domain.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]*domain.User{}, triggers: domain.ChatTriggers{}}
}

func (f *fakeStore) LoadTriggers(context.Context) (domain.ChatTriggers, error) {
	if f.failLoad {
		return nil, errStoreDown
	}
	return f.triggers, nil
}

func (f *fakeStore) SaveTriggers(_ context.Context, all domain.ChatTriggers) (domain.ChatTriggers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveTriggerCalls++
	if f.failTriggers > 0 {
		f.failTriggers--
		return nil, errStoreDown
	}
	cleaned := domain.ChatTriggers{}
	for chat, ts := range all {
		for name, t := range ts {
			if !t.Erased {
				if cleaned[chat] == nil {
					cleaned[chat] = map[string]*domain.Trigger{}
				}
				cleaned[chat][name] = t
			}
		}
	}
	return cleaned, nil
}

func (f *fakeStore) LoadUsers(context.Context) (map[int64]*domain.User, error) {
	if f.failLoad {
		return nil, errStoreDown
	}
	return f.users, nil
}

func (f *fakeStore) SaveNewItems(context.Context, map[int64]*domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveUserCalls++
	if f.failUsers {
		return errStoreDown
	}
	return nil
}

func (f *fakeStore) UpdateOrder(_ context.Context, o domain.Order) error {
	if f.failOrders {
		return errStoreDown
	}
	f.updated = append(f.updated, o)
	return nil
}

func (f *fakeStore) DeleteOrder(_ context.Context, o domain.Order) error {
	if f.failOrders {
		return errStoreDown
	}
	f.deleted = append(f.deleted, o)
	return nil
}
