// Package services – Environment
//
// This file implements the Environment, a write-back cache over the store.
// It loads every user (with orders) and every trigger once at construction,
// serves all reads and mutations from memory, and reconciles the store with
// memory on Dump.
//
// Concurrency: the Telegram loop, the periodic flusher, and the ops API all
// reach the same Environment, so both maps sit behind one mutex. Dump holds
// that mutex for its whole run, so a flush never interleaves with a mutation.
// Read methods hand out copies.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/cheshire-bot/internal/domain"
)

// Store defines the persistence contract required by the Environment.
// repo.Gateway is the production implementation.
type Store interface {
	// LoadTriggers returns every stored trigger grouped by chat.
	LoadTriggers(ctx context.Context) (domain.ChatTriggers, error)

	// SaveTriggers deletes erased triggers, upserts the rest, and returns
	// the input without the erased entries.
	SaveTriggers(ctx context.Context, all domain.ChatTriggers) (domain.ChatTriggers, error)

	// LoadUsers returns every stored user with its orders.
	LoadUsers(ctx context.Context) (map[int64]*domain.User, error)

	// SaveNewItems persists every user and its orders.
	SaveNewItems(ctx context.Context, users map[int64]*domain.User) error

	// UpdateOrder writes the bought amount of a stored order.
	UpdateOrder(ctx context.Context, o domain.Order) error

	// DeleteOrder removes a stored order.
	DeleteOrder(ctx context.Context, o domain.Order) error
}

// Environment is the in-memory source of truth for the process lifetime.
type Environment struct {
	store Store

	mu       sync.Mutex
	users    map[int64]*domain.User
	triggers domain.ChatTriggers
}

// NewEnvironment loads users and triggers from store. A load failure is
// returned wrapped in ErrPersistence; the process should not serve without
// its state.
func NewEnvironment(ctx context.Context, store Store) (*Environment, error) {
	users, err := store.LoadUsers(ctx)
	if err != nil {
		return nil, persistenceErr(err)
	}
	triggers, err := store.LoadTriggers(ctx)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if users == nil {
		users = make(map[int64]*domain.User)
	}
	if triggers == nil {
		triggers = make(domain.ChatTriggers)
	}

	e := &Environment{store: store, users: users, triggers: triggers}
	e.updateGauges()
	log.Info().
		Int("users", len(users)).
		Int("chats", len(triggers)).
		Msg("environment loaded")
	return e, nil
}

// ---- triggers ----

// ChatTriggers returns a display-ready listing of the chat's live trigger
// names, sorted, under a header naming the chat.
func (e *Environment) ChatTriggers(chatID int64, displayName string) string {
	names := e.TriggerNames(chatID)
	list := "is empty!"
	if len(names) > 0 {
		list = strings.Join(names, "\n")
	}
	return fmt.Sprintf("Trigger list of chat '%s':\n", displayName) + list
}

// TriggerNames returns the sorted names of the chat's live triggers.
func (e *Environment) TriggerNames(chatID int64) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.triggers[chatID]))
	for name, t := range e.triggers[chatID] {
		if !t.Erased {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SetTrigger creates or overwrites the chat's trigger called name. An erased
// trigger with the same name is replaced by the new, live one.
func (e *Environment) SetTrigger(chatID int64, name string, c domain.Content) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyTriggerName
	}
	if !c.Kind.Valid() {
		return ErrUnsupportedContent
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.triggers[chatID] == nil {
		e.triggers[chatID] = make(map[string]*domain.Trigger)
	}
	e.triggers[chatID][name] = &domain.Trigger{
		ChatID:  chatID,
		Name:    name,
		Kind:    c.Kind,
		Payload: c.Payload,
	}
	e.updateGauges()
	return nil
}

// DeleteTrigger marks the chat's trigger as erased. The row is removed from
// the store, and the entry from memory, on the next Dump.
func (e *Environment) DeleteTrigger(chatID int64, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.triggers[chatID][name]
	if !ok || t.Erased {
		return ErrTriggerNotFound
	}
	t.Erased = true
	e.updateGauges()
	return nil
}

// MatchTrigger returns the chat's live trigger whose name equals text exactly.
func (e *Environment) MatchTrigger(chatID int64, text string) (domain.Trigger, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.triggers[chatID][text]
	if !ok || t.Erased {
		return domain.Trigger{}, false
	}
	return *t, true
}

// BroadcastChats returns every chat id known to the trigger map, ascending.
func (e *Environment) BroadcastChats() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]int64, 0, len(e.triggers))
	for id := range e.triggers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---- users ----

// AddUser caches a new user with no orders. Unrecognized statuses fall back
// to read. If the id is taken, nothing changes and ErrUserExists is returned.
func (e *Environment) AddUser(userID int64, nickname string, status domain.Status) error {
	if !status.Valid() {
		status = domain.StatusRead
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.users[userID]; ok {
		return ErrUserExists
	}
	e.users[userID] = &domain.User{
		ID:       userID,
		Nickname: nickname,
		Status:   status,
		Orders:   []domain.Order{},
		IsNew:    true,
	}
	e.updateGauges()
	return nil
}

// UserExists reports whether userID is cached.
func (e *Environment) UserExists(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.users[userID]
	return ok
}

// UserStatus returns the user's status. ok is false when the user is
// unknown; callers treat that as no privileges at all.
func (e *Environment) UserStatus(userID int64) (status domain.Status, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.users[userID]
	if !ok {
		return 0, false
	}
	return u.Status, true
}

// SetUserStatus overwrites the cached status. It reports false, and changes
// nothing, when the user is unknown or status is not a known level. The
// store is only updated by the next Dump.
func (e *Environment) SetUserStatus(userID int64, status domain.Status) bool {
	if !status.Valid() {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.users[userID]
	if !ok {
		return false
	}
	u.Status = status
	return true
}

// UserOrders returns a copy of the user, orders included.
func (e *Environment) UserOrders(userID int64) (*domain.User, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.users[userID]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// ListUsers returns copies of all cached users sorted by id.
func (e *Environment) ListUsers() []*domain.User {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*domain.User, 0, len(e.users))
	for _, u := range e.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllUserInfo formats every user's summary separated by blank lines.
func (e *Environment) AllUserInfo() string {
	users := e.ListUsers()
	if len(users) == 0 {
		return "User list: is empty"
	}
	info := make([]string, 0, len(users))
	for _, u := range users {
		info = append(info, formatUser(u))
	}
	return "User list:\n" + strings.Join(info, "\n\n")
}

// UserInfo formats one user's nickname, id, and status.
func (e *Environment) UserInfo(userID int64) string {
	u, ok := e.UserOrders(userID)
	if !ok {
		return "User is not found in bot db."
	}
	return formatUser(u)
}

func formatUser(u *domain.User) string {
	return fmt.Sprintf("🌝User: @%s\n🔑Id: %d\n🌚Status: %s", u.Nickname, u.ID, u.Status)
}

// ---- orders ----

// AddOrder attaches a new order to the user. The store assigns its id on the
// next Dump; until then the order cannot be addressed by id.
func (e *Environment) AddOrder(userID int64, o domain.Order) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	o.ID = 0
	o.UserID = userID
	o.IsNew = true
	u.Orders = append(u.Orders, o)
	return nil
}

// SetOrderWanted changes the wanted amount in memory; Dump persists it.
func (e *Environment) SetOrderWanted(userID, orderID int64, wanted int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.orderLocked(userID, orderID)
	if err != nil {
		return err
	}
	o.WantedAmount = wanted
	return nil
}

// RecordPurchase writes the bought amount to the store immediately and then
// to memory. A store failure leaves memory unchanged.
func (e *Environment) RecordPurchase(ctx context.Context, userID, orderID int64, bought int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.orderLocked(userID, orderID)
	if err != nil {
		return err
	}
	next := *o
	next.BoughtAmount = bought
	if err := e.store.UpdateOrder(ctx, next); err != nil {
		return persistenceErr(err)
	}
	o.BoughtAmount = bought
	return nil
}

// RemoveOrder deletes the order from the store immediately and then from
// memory. A store failure leaves memory unchanged.
func (e *Environment) RemoveOrder(ctx context.Context, userID, orderID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.orderLocked(userID, orderID)
	if err != nil {
		return err
	}
	if err := e.store.DeleteOrder(ctx, *o); err != nil {
		return persistenceErr(err)
	}

	u := e.users[userID]
	kept := u.Orders[:0]
	for _, x := range u.Orders {
		if x.ID != orderID {
			kept = append(kept, x)
		}
	}
	u.Orders = kept
	return nil
}

// orderLocked finds a stored order by id. Callers must hold e.mu.
func (e *Environment) orderLocked(userID, orderID int64) (*domain.Order, error) {
	u, ok := e.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	for i := range u.Orders {
		if u.Orders[i].ID == orderID {
			return &u.Orders[i], nil
		}
	}
	return nil, ErrOrderNotFound
}

// ---- flush ----

// Dump reconciles the store with memory: triggers first (erased ones are
// deleted and then dropped from memory too), then every user with its
// orders. It is a full overwrite rather than a diff.
//
// If the trigger phase fails, memory is left as it was and users are not
// attempted. Failures are returned wrapped in ErrPersistence.
func (e *Environment) Dump(ctx context.Context) (err error) {
	tr := otel.Tracer("services/Environment")
	ctx, span := tr.Start(ctx, "Dump")
	defer span.End()

	start := time.Now()
	flushID := uuid.NewString()

	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		flushTotal.WithLabelValues(result).Inc()
		flushDuration.Observe(time.Since(start).Seconds())
		e.updateGauges()
	}()

	span.SetAttributes(
		attribute.String("flush.id", flushID),
		attribute.Int("flush.users", len(e.users)),
		attribute.Int("flush.chats", len(e.triggers)),
	)

	cleaned, err := e.store.SaveTriggers(ctx, e.triggers)
	if err != nil {
		log.Error().Err(err).Str("flush_id", flushID).Str("phase", "triggers").Msg("flush failed")
		return persistenceErr(err)
	}
	e.triggers = cleaned

	if err := e.store.SaveNewItems(ctx, e.users); err != nil {
		log.Error().Err(err).Str("flush_id", flushID).Str("phase", "users").Msg("flush failed")
		return persistenceErr(err)
	}

	log.Debug().
		Str("flush_id", flushID).
		Int("users", len(e.users)).
		Int("chats", len(e.triggers)).
		Dur("took", time.Since(start)).
		Msg("flush done")
	return nil
}

// updateGauges refreshes the cache gauges. Callers must hold e.mu.
func (e *Environment) updateGauges() {
	live := 0
	for _, ts := range e.triggers {
		for _, t := range ts {
			if !t.Erased {
				live++
			}
		}
	}
	cachedUsers.Set(float64(len(e.users)))
	cachedTriggers.Set(float64(live))
}
