// Package handlers – wiring and DTOs.
//
// Handlers are transport-thin: they validate input, call the environment
// cache, and translate results into HTTP responses. The bot remains the
// primary interface; these endpoints exist for operators.
package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/cheshire-bot/internal/domain"
)

// Env is the environment cache surface used by the ops API.
type Env interface {
	ListUsers() []*domain.User
	UserOrders(userID int64) (*domain.User, bool)
	SetUserStatus(userID int64, status domain.Status) bool
	TriggerNames(chatID int64) []string

	AddOrder(userID int64, o domain.Order) error
	SetOrderWanted(userID, orderID int64, wanted int64) error
	RecordPurchase(ctx context.Context, userID, orderID int64, bought int64) error
	RemoveOrder(ctx context.Context, userID, orderID int64) error
}

// Flusher performs an on-demand flush with the same retry policy as the
// periodic one.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Handlers groups the ops endpoints.
type Handlers struct {
	env     Env
	flusher Flusher
}

// New constructs Handlers bound to env and flusher.
func New(env Env, flusher Flusher) *Handlers {
	return &Handlers{env: env, flusher: flusher}
}

//
// DTOs
//

// OrderDTO is the JSON shape of an order. ID is 0 until the order is flushed.
type OrderDTO struct {
	ID           int64 `json:"id" example:"12"`
	ResCode      int64 `json:"res_code" example:"3"`
	BoughtAmount int64 `json:"bought_amount" example:"1"`
	WantedAmount int64 `json:"wanted_amount" example:"10"`
	Price        int64 `json:"price" example:"250"`
	Pending      bool  `json:"pending" example:"false"`
}

// UserDTO is the JSON shape of a cached user.
type UserDTO struct {
	ID       int64      `json:"id" example:"42"`
	Nickname string     `json:"nickname" example:"cheshire"`
	Status   string     `json:"status" example:"admin"`
	Orders   []OrderDTO `json:"orders"`
}

// ListUsersResponse is one page of cached users.
type ListUsersResponse struct {
	Users    []UserDTO `json:"users"`
	Page     int       `json:"page" example:"1"`
	PageSize int       `json:"page_size" example:"50"`
	Total    int       `json:"total" example:"120"`
}

// ChatTriggersResponse lists a chat's live trigger names.
type ChatTriggersResponse struct {
	ChatID   int64    `json:"chat_id" example:"-1001234"`
	Triggers []string `json:"triggers"`
}

// SetStatusRequest is the payload of PUT /users/{id}/status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required" example:"trade"`
}

// CreateOrderRequest is the payload of POST /users/{id}/orders.
type CreateOrderRequest struct {
	ResCode      int64 `json:"res_code" example:"3"`
	WantedAmount int64 `json:"wanted_amount" binding:"gte=0" example:"10"`
	Price        int64 `json:"price" binding:"gte=0" example:"250"`
}

// UpdateOrderRequest is the payload of PATCH /users/{id}/orders/{orderID}.
// WantedAmount is cached until the next flush; BoughtAmount is written
// through immediately.
type UpdateOrderRequest struct {
	WantedAmount *int64 `json:"wanted_amount,omitempty" binding:"omitempty,gte=0" example:"5"`
	BoughtAmount *int64 `json:"bought_amount,omitempty" binding:"omitempty,gte=0" example:"2"`
}

// FlushResponse reports an on-demand flush.
type FlushResponse struct {
	Status string `json:"status" example:"flushed"`
}

func toUserDTO(u *domain.User) UserDTO {
	out := UserDTO{
		ID:       u.ID,
		Nickname: u.Nickname,
		Status:   u.Status.String(),
		Orders:   make([]OrderDTO, 0, len(u.Orders)),
	}
	for _, o := range u.Orders {
		out.Orders = append(out.Orders, OrderDTO{
			ID:           o.ID,
			ResCode:      o.ResCode,
			BoughtAmount: o.BoughtAmount,
			WantedAmount: o.WantedAmount,
			Price:        o.Price,
			Pending:      o.Pending(),
		})
	}
	return out
}

// int64Param parses a path parameter; negative ids are valid chat ids.
func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	return v, err == nil
}
