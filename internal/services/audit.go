package services

import (
	"context"
	"encoding/json"

	"github.com/itinventory/inventory/internal/models"
	"gorm.io/gorm"
)

// AuditLogger appends LogEntry rows. It always writes through the caller's
// transaction so a failed log write rolls back the mutation it describes.
type AuditLogger struct{}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

// Record logs action by actor against database with a JSON copy of row:
// the new row for Add, the prior row for Edit and Remove.
func (a *AuditLogger) Record(tx *gorm.DB, actor, action, database string, row interface{}) error {
	snapshot, err := json.Marshal(row)
	if err != nil {
		return storeError("snapshot record", err)
	}

	entry := &models.LogEntry{
		Username:   actor,
		ActionType: action,
		Database:   database,
		Timestamp:  tx.NowFunc(),
		RecordCopy: string(snapshot),
	}
	if err := tx.Create(entry).Error; err != nil {
		return storeError("write audit log", err)
	}
	return nil
}

// LogService reads the audit trail.
type LogService struct {
	db *gorm.DB
}

func NewLogService(db *gorm.DB) *LogService {
	return &LogService{db: db}
}

// List returns every log entry, oldest first by default.
func (s *LogService) List(ctx context.Context, sortBy string) ([]models.LogEntry, error) {
	return listRecords[models.LogEntry](ctx, s.db, LogsTable, sortBy)
}

// Search filters the log by one column; timestamp accepts partial input.
func (s *LogService) Search(ctx context.Context, category, criteria, sortBy string) ([]models.LogEntry, error) {
	return searchRecords[models.LogEntry](ctx, s.db, LogsTable, category, criteria, sortBy)
}
