package models

import (
	"context"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var migrationOptions = &gormigrate.Options{
	TableName:                 "schema_migrations",
	IDColumnName:              "id",
	IDColumnSize:              255,
	UseTransaction:            false,
	ValidateUnknownMigrations: false,
}

// Migrations lists the schema history in order. Never edit a released
// migration; append a new one.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20241017_0000_initial",
			Migrate: func(tx *gorm.DB) error {
				// hostnames first: transactions.hostname references it.
				return tx.AutoMigrate(
					&Hostname{},
					&InventoryItem{},
					&Transaction{},
					&LogEntry{},
					&DropdownPair{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&DropdownPair{},
					&LogEntry{},
					&Transaction{},
					&InventoryItem{},
					&Hostname{},
				)
			},
		},
	}
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return gormigrate.New(db.WithContext(ctx), migrationOptions, Migrations()).Migrate()
}

// RollbackLast undoes the most recent migration.
func RollbackLast(ctx context.Context, db *gorm.DB) error {
	return gormigrate.New(db.WithContext(ctx), migrationOptions, Migrations()).RollbackLast()
}
