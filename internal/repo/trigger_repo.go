// Package repo implements the persistence gateway for triggers, users, and
// orders. This file provides the trigger operations.
//
// Every function is context-aware, accepts a *gorm.DB handle, and runs its
// statements inside one transaction: a failure rolls back everything the
// call did and is returned as a *PersistenceError.
//
// Functions:
//
//   - LoadTriggers(ctx, db) -> domain.ChatTriggers, error
//     Reads every trigger row grouped by chat id.
//
//   - SaveTriggers(ctx, db, all) -> domain.ChatTriggers, error
//     Deletes erased triggers, upserts the rest, and returns a cleaned copy
//     of the input with erased entries removed.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/cheshire-bot/internal/domain"
)

// LoadTriggers reads all trigger rows and groups them by chat id.
// On error the result is nil.
func LoadTriggers(ctx context.Context, db *gorm.DB) (domain.ChatTriggers, error) {
	var rows []domain.Trigger
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, wrap("load_triggers", err)
	}

	out := make(domain.ChatTriggers)
	for i := range rows {
		t := rows[i]
		if out[t.ChatID] == nil {
			out[t.ChatID] = make(map[string]*domain.Trigger)
		}
		out[t.ChatID][t.Name] = &t
	}
	return out, nil
}

// triggerBatchSize bounds the rows per upsert statement (4 variables each).
const triggerBatchSize = 500

// SaveTriggers reconciles the store with all in two phases inside a single
// transaction:
//
//  1. delete every trigger flagged erased;
//  2. upsert every remaining trigger (insert, or overwrite type/msg when the
//     (chat_id, name) row already exists).
//
// It returns a copy of all with erased entries removed so the caller can
// swap it in as its in-memory view. Chats left without triggers are dropped,
// matching what LoadTriggers returns after a restart. Upserts run in batches
// of triggerBatchSize rows to stay under SQLite's bound-variable limit. On
// error nothing is committed and the result is nil.
func SaveTriggers(ctx context.Context, db *gorm.DB, all domain.ChatTriggers) (domain.ChatTriggers, error) {
	cleaned := make(domain.ChatTriggers, len(all))
	var keep []domain.Trigger
	var erased []domain.Trigger

	for chatID, triggers := range all {
		live := make(map[string]*domain.Trigger, len(triggers))
		for name, t := range triggers {
			row := *t
			row.ChatID, row.Name = chatID, name
			if t.Erased {
				erased = append(erased, row)
				continue
			}
			keep = append(keep, row)
			live[name] = t
		}
		if len(live) > 0 {
			cleaned[chatID] = live
		}
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range erased {
			if err := tx.Where("chat_id = ? AND name = ?", t.ChatID, t.Name).
				Delete(&domain.Trigger{}).Error; err != nil {
				return err
			}
		}
		if len(keep) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "msg"}),
		}).CreateInBatches(&keep, triggerBatchSize).Error
	})
	if err != nil {
		return nil, wrap("save_triggers", err)
	}
	return cleaned, nil
}
