// Package repo implements the persistence gateway for triggers, users, and
// orders. This file provides the order operations.
//
// Order ids are assigned by the store on first insert. Functions that insert
// orders write the assigned ids back into the caller's slice only after the
// transaction commits, so a rolled-back call leaves the slice untouched.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/cheshire-bot/internal/domain"
)

// LoadOrders returns all orders owned by userID in insertion order. Orders
// coming from the store are never new.
func LoadOrders(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, wrap("load_orders", err)
	}
	return out, nil
}

// SaveOrders inserts pending orders and updates the wanted amount of the
// existing ones, committing both phases at once. On success every pending
// order in orders receives its store-assigned id and is no longer new.
func SaveOrders(ctx context.Context, db *gorm.DB, orders []domain.Order) error {
	var ids []int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ids, err = saveOrders(tx, orders)
		return err
	})
	if err != nil {
		return wrap("save_orders", err)
	}
	applyOrderIDs(orders, ids)
	return nil
}

// UpdateOrder writes the bought amount of an existing order.
func UpdateOrder(ctx context.Context, db *gorm.DB, o domain.Order) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&domain.Order{}).
			Where("id = ?", o.ID).
			Update("bought_amount", o.BoughtAmount).Error
	})
	return wrap("update_order", err)
}

// DeleteOrder removes a single order row by id. Missing rows are ignored.
func DeleteOrder(ctx context.Context, db *gorm.DB, o domain.Order) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("id = ?", o.ID).Delete(&domain.Order{}).Error
	})
	return wrap("delete_order", err)
}

// saveOrders runs both order phases on tx and returns the ids assigned to
// pending orders, in the order they appear in orders.
func saveOrders(tx *gorm.DB, orders []domain.Order) ([]int64, error) {
	var ids []int64
	for _, o := range orders {
		if !o.Pending() {
			continue
		}
		row := o
		row.ID = 0
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}

	for _, o := range orders {
		if o.Pending() {
			continue
		}
		if err := tx.Model(&domain.Order{}).
			Where("id = ?", o.ID).
			Update("wanted_amount", o.WantedAmount).Error; err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// applyOrderIDs assigns ids to the pending orders of orders, in sequence.
func applyOrderIDs(orders []domain.Order, ids []int64) {
	n := 0
	for i := range orders {
		if n == len(ids) {
			return
		}
		if orders[i].Pending() {
			orders[i].ID = ids[n]
			orders[i].IsNew = false
			n++
		}
	}
}
