package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/cheshire-bot/internal/domain"
)

// Gateway binds the repository functions to one database handle. It holds no
// state besides the handle and is what the environment cache talks to.
type Gateway struct {
	DB *gorm.DB
}

// NewGateway returns a Gateway over db.
func NewGateway(db *gorm.DB) *Gateway { return &Gateway{DB: db} }

// LoadTriggers proxies LoadTriggers.
func (g *Gateway) LoadTriggers(ctx context.Context) (domain.ChatTriggers, error) {
	return LoadTriggers(ctx, g.DB)
}

// SaveTriggers proxies SaveTriggers.
func (g *Gateway) SaveTriggers(ctx context.Context, all domain.ChatTriggers) (domain.ChatTriggers, error) {
	return SaveTriggers(ctx, g.DB, all)
}

// LoadOrders proxies LoadOrders.
func (g *Gateway) LoadOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	return LoadOrders(ctx, g.DB, userID)
}

// SaveOrders proxies SaveOrders.
func (g *Gateway) SaveOrders(ctx context.Context, orders []domain.Order) error {
	return SaveOrders(ctx, g.DB, orders)
}

// UpdateOrder proxies UpdateOrder.
func (g *Gateway) UpdateOrder(ctx context.Context, o domain.Order) error {
	return UpdateOrder(ctx, g.DB, o)
}

// DeleteOrder proxies DeleteOrder.
func (g *Gateway) DeleteOrder(ctx context.Context, o domain.Order) error {
	return DeleteOrder(ctx, g.DB, o)
}

// LoadUsers proxies LoadUsers.
func (g *Gateway) LoadUsers(ctx context.Context) (map[int64]*domain.User, error) {
	return LoadUsers(ctx, g.DB)
}

// SaveNewUser proxies SaveNewUser.
func (g *Gateway) SaveNewUser(ctx context.Context, u *domain.User) error {
	return SaveNewUser(ctx, g.DB, u)
}

// SetUserStatus proxies SetUserStatus.
func (g *Gateway) SetUserStatus(ctx context.Context, u *domain.User) error {
	return SetUserStatus(ctx, g.DB, u)
}

// SaveNewItems proxies SaveNewItems.
func (g *Gateway) SaveNewItems(ctx context.Context, users map[int64]*domain.User) error {
	return SaveNewItems(ctx, g.DB, users)
}
