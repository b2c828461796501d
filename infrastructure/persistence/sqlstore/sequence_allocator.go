package sqlstore

import (
	"context"
	"fmt"

	"orderlifecycle/infrastructure/persistence/sqlstore/po"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceAllocator issues ids from the sequence_counters table.
// Each call runs in its own short transaction, never in the caller's unit
// of work, so a rolled back order never hands its id to someone else.
type SequenceAllocator struct {
	db *gorm.DB
}

func NewSequenceAllocator(db *gorm.DB) *SequenceAllocator {
	return &SequenceAllocator{db: db}
}

// Next creates the counter at 1 or increments it, then reads back the value
// while still holding the row lock.
func (a *SequenceAllocator) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertCounter(tx, name).Error; err != nil {
			return err
		}
		var counter po.SequenceCounterPO
		if err := tx.Where("name = ?", name).Take(&counter).Error; err != nil {
			return err
		}
		value = counter.CurrentValue
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("allocate %s: %w", name, err)
	}
	return value, nil
}

// upsertCounter renders INSERT .. ON DUPLICATE KEY UPDATE on MySQL and
// INSERT .. ON CONFLICT (name) DO UPDATE on PostgreSQL.
func upsertCounter(tx *gorm.DB, name string) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"current_value": gorm.Expr("sequence_counters.current_value + 1"),
		}),
	}).Create(&po.SequenceCounterPO{Name: name, CurrentValue: 1})
}
