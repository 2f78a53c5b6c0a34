package handlers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/cheshire-bot/internal/domain"
	"github.com/tbourn/cheshire-bot/internal/repo"
	"github.com/tbourn/cheshire-bot/internal/services"
)

var bg = context.Background()

// newEnv returns an Environment over a fresh SQLite file and its handle.
func newEnv(t *testing.T) (*services.Environment, *gorm.DB) {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "cwdb.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(db) })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	env, err := services.NewEnvironment(bg, repo.NewGateway(db))
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	return env, db
}

// seedOrder creates a user with one flushed order and returns the order id.
func seedOrder(t *testing.T, env *services.Environment, userID int64) int64 {
	t.Helper()
	if err := env.AddUser(userID, "alice", domain.StatusTrade); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := env.AddOrder(userID, domain.Order{ResCode: 3, WantedAmount: 10, Price: 250}); err != nil {
		t.Fatalf("AddOrder: %v", err)
	}
	if err := env.Dump(bg); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	u, _ := env.UserOrders(userID)
	return u.Orders[0].ID
}

type flushFunc func(context.Context) error

func (f flushFunc) Flush(ctx context.Context) error { return f(ctx) }

var errFlush = errors.New("flush down")

// newServer mounts every ops route on a bare engine, without auth.
func newServer(env Env, fl Flusher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(env, fl)
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/users/:id/status", h.SetUserStatus)
	r.POST("/users/:id/orders", h.CreateOrder)
	r.PATCH("/users/:id/orders/:orderID", h.UpdateOrder)
	r.DELETE("/users/:id/orders/:orderID", h.DeleteOrder)
	r.GET("/chats/:id/triggers", h.ListChatTriggers)
	r.POST("/dump", h.Dump)
	return r
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
