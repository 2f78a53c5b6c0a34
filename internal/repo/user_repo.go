// Package repo implements the persistence gateway for triggers, users, and
// orders. This file provides the user operations.
//
// Functions:
//
//   - LoadUsers(ctx, db) -> map[int64]*domain.User, error
//     Reads every user together with its orders (two queries, grouped in memory).
//
//   - SaveNewUser(ctx, db, user) -> error
//     Saves the user's orders, then inserts or replaces the user row.
//
//   - SetUserStatus(ctx, db, user) -> error
//     Updates the status column; a missing user is a no-op.
//
//   - SaveNewItems(ctx, db, users) -> error
//     Calls SaveNewUser for every user, new or not.
package repo

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/cheshire-bot/internal/domain"
)

// LoadUsers reads all users and attaches their orders. Users loaded from the
// store are never new.
func LoadUsers(ctx context.Context, db *gorm.DB) (map[int64]*domain.User, error) {
	var users []domain.User
	var orders []domain.Order

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Find(&users).Error; err != nil {
			return err
		}
		return tx.Order("id asc").Find(&orders).Error
	})
	if err != nil {
		return nil, wrap("load_users", err)
	}

	out := make(map[int64]*domain.User, len(users))
	for i := range users {
		u := users[i]
		u.Orders = []domain.Order{}
		out[u.ID] = &u
	}
	for _, o := range orders {
		if u, ok := out[o.UserID]; ok {
			u.Orders = append(u.Orders, o)
		}
	}
	return out, nil
}

// SaveNewUser persists user's orders and then inserts or replaces the user
// row keyed by id, in one transaction. On success the user is no longer new
// and its pending orders carry their store-assigned ids.
func SaveNewUser(ctx context.Context, db *gorm.DB, user *domain.User) error {
	var ids []int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if ids, err = saveOrders(tx, user.Orders); err != nil {
			return err
		}
		row := domain.User{ID: user.ID, Nickname: user.Nickname, Status: user.Status}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"nickname", "status"}),
		}).Create(&row).Error
	})
	if err != nil {
		return wrap("save_user", err)
	}
	applyOrderIDs(user.Orders, ids)
	user.IsNew = false
	return nil
}

// SetUserStatus updates only the status column of user. If no row has the
// user's id, nothing happens and no error is returned.
func SetUserStatus(ctx context.Context, db *gorm.DB, user *domain.User) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&domain.User{}).
			Where("id = ?", user.ID).
			Update("status", user.Status).Error
	})
	return wrap("set_user_status", err)
}

// SaveNewItems calls SaveNewUser for every entry of users, in ascending id
// order. Despite the name it persists all users, which also refreshes the
// stored status of existing ones. Each user commits on its own; a failure
// does not stop the remaining users and all failures are joined.
func SaveNewItems(ctx context.Context, db *gorm.DB, users map[int64]*domain.User) error {
	ids := make([]int64, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		if err := SaveNewUser(ctx, db, users[id]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
