// User and order HTTP handlers.
//
//   - GET    /users
//   - GET    /users/{id}
//   - PUT    /users/{id}/status
//   - POST   /users/{id}/orders
//   - PATCH  /users/{id}/orders/{orderID}
//   - DELETE /users/{id}/orders/{orderID}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/cheshire-bot/internal/domain"
	"github.com/tbourn/cheshire-bot/internal/services"
	"github.com/tbourn/cheshire-bot/internal/utils"
)

// ListUsers godoc
// @ID          listUsers
// @Summary     List cached users
// @Description Returns one page of the users held by the environment cache, sorted by id, with orders.
// @Tags        Users
// @Produce     json
// @Param       page       query     int  false  "Page (1-based)"  default(1)
// @Param       page_size  query     int  false  "Page size"       default(50)
// @Success     200  {object}  handlers.ListUsersResponse
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, size := utils.Page(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize),
	)
	users := h.env.ListUsers()
	window := utils.Paginate(users, page, size)

	resp := ListUsersResponse{
		Users:    make([]UserDTO, 0, len(window)),
		Page:     page,
		PageSize: size,
		Total:    len(users),
	}
	for _, u := range window {
		resp.Users = append(resp.Users, toUserDTO(u))
	}
	ok(c, http.StatusOK, resp)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a cached user
// @Tags        Users
// @Produce     json
// @Param       id   path      int  true  "User ID"
// @Success     200  {object}  handlers.UserDTO
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid user id")
		return
	}
	u, found := h.env.UserOrders(id)
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		return
	}
	ok(c, http.StatusOK, toUserDTO(u))
}

// SetUserStatus godoc
// @ID          setUserStatus
// @Summary     Change a user's status
// @Description Updates the cached status; it is persisted by the next flush.
// @Tags        Users
// @Accept      json
// @Param       id    path  int                        true  "User ID"
// @Param       body  body  handlers.SetStatusRequest  true  "New status"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /users/{id}/status [put]
func (h *Handlers) SetUserStatus(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid user id")
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	st, known := domain.ParseStatus(req.Status)
	if !known {
		failService(c, services.ErrInvalidStatus)
		return
	}
	if !h.env.SetUserStatus(id, st) {
		failService(c, services.ErrUserNotFound)
		return
	}
	noContent(c)
}

// CreateOrder godoc
// @ID          createOrder
// @Summary     Attach a new order to a user
// @Description The order is cached as pending and receives its id on the next flush.
// @Tags        Orders
// @Accept      json
// @Param       id    path  int                          true  "User ID"
// @Param       body  body  handlers.CreateOrderRequest  true  "Order"
// @Success     202
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /users/{id}/orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid user id")
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.env.AddOrder(id, domain.Order{
		ResCode:      req.ResCode,
		WantedAmount: req.WantedAmount,
		Price:        req.Price,
	})
	if err != nil {
		failService(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// UpdateOrder godoc
// @ID          updateOrder
// @Summary     Update a flushed order
// @Description wanted_amount is cached until the next flush; bought_amount is written to the store immediately.
// @Tags        Orders
// @Accept      json
// @Param       id       path  int                          true  "User ID"
// @Param       orderID  path  int                          true  "Order ID"
// @Param       body     body  handlers.UpdateOrderRequest  true  "Fields to change"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Store failure"
// @Router      /users/{id}/orders/{orderID} [patch]
func (h *Handlers) UpdateOrder(c *gin.Context) {
	userID, okUser := int64Param(c, "id")
	orderID, okOrder := int64Param(c, "orderID")
	if !okUser || !okOrder {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid id")
		return
	}
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.WantedAmount == nil && req.BoughtAmount == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nothing to update")
		return
	}

	if req.BoughtAmount != nil {
		if err := h.env.RecordPurchase(c.Request.Context(), userID, orderID, *req.BoughtAmount); err != nil {
			failService(c, err)
			return
		}
	}
	if req.WantedAmount != nil {
		if err := h.env.SetOrderWanted(userID, orderID, *req.WantedAmount); err != nil {
			failService(c, err)
			return
		}
	}
	noContent(c)
}

// DeleteOrder godoc
// @ID          deleteOrder
// @Summary     Delete a flushed order
// @Description Removes the order from the store immediately, then from the cache.
// @Tags        Orders
// @Param       id       path  int  true  "User ID"
// @Param       orderID  path  int  true  "Order ID"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Store failure"
// @Router      /users/{id}/orders/{orderID} [delete]
func (h *Handlers) DeleteOrder(c *gin.Context) {
	userID, okUser := int64Param(c, "id")
	orderID, okOrder := int64Param(c, "orderID")
	if !okUser || !okOrder {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid id")
		return
	}
	if err := h.env.RemoveOrder(c.Request.Context(), userID, orderID); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
