// Trigger listing and on-demand flush.
//
//   - GET  /chats/{id}/triggers
//   - POST /dump
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListChatTriggers godoc
// @ID          listChatTriggers
// @Summary     List a chat's triggers
// @Description Returns the sorted names of the chat's live triggers.
// @Tags        Triggers
// @Produce     json
// @Param       id   path      int  true  "Chat ID"
// @Success     200  {object}  handlers.ChatTriggersResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /chats/{id}/triggers [get]
func (h *Handlers) ListChatTriggers(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid chat id")
		return
	}
	ok(c, http.StatusOK, ChatTriggersResponse{ChatID: id, Triggers: h.env.TriggerNames(id)})
}

// Dump godoc
// @ID          dump
// @Summary     Flush the cache to the store
// @Description Runs one flush with retries. On failure the data stays cached.
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  handlers.FlushResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Flush failed"
// @Router      /dump [post]
func (h *Handlers) Dump(c *gin.Context) {
	if err := h.flusher.Flush(c.Request.Context()); err != nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeFlushFailed, "flush failed; data stays cached")
		return
	}
	ok(c, http.StatusOK, FlushResponse{Status: "flushed"})
}
