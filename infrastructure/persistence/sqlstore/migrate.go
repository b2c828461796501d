package sqlstore

import (
	"context"
	"fmt"

	"orderlifecycle/infrastructure/persistence/sqlstore/po"

	"gorm.io/gorm"
)

// Models lists every table the store owns.
func Models() []any {
	return []any{
		&po.OrderPO{},
		&po.OrderProductPO{},
		&po.OrderEventPO{},
		&po.SequenceCounterPO{},
		&po.OutboxEventPO{},
	}
}

// mysqlTableOptions makes string comparison exact on MySQL, matching
// PostgreSQL and the memory store: "ORD-a" and "ORD-A" are different
// natural keys.
const mysqlTableOptions = "DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"

// Migrate creates or updates the schema, including the unique index on the
// natural key that CreateOrder relies on.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := migrationSession(db).WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// migrationSession sets the table options new tables are created with.
// Tables created earlier keep their collation.
func migrationSession(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == DriverMySQL {
		return db.Set("gorm:table_options", mysqlTableOptions)
	}
	return db
}
