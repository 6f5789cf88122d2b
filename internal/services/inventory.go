package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/itinventory/inventory/internal/metrics"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/pkg/response"
	"gorm.io/gorm"
)

// InventoryForm is the add/edit form as posted.
type InventoryForm struct {
	Barcode       string `form:"barcode"`
	Serial        string `form:"serial"`
	Model         string `form:"model"`
	Category      string `form:"category"`
	Department    string `form:"department"`
	DatePurchased string `form:"date_purchased"`
	DateRetired   string `form:"date_retired"`
}

// InventoryInput is a decoded InventoryForm with optional fields made explicit.
type InventoryInput struct {
	Barcode       string
	Serial        Optional[string]
	Model         string
	Category      string
	Department    string
	DatePurchased Optional[string]
	DateRetired   Optional[string]
}

func (f *InventoryForm) Input() InventoryInput {
	return InventoryInput{
		Barcode:       f.Barcode,
		Serial:        OptionalString(f.Serial),
		Model:         f.Model,
		Category:      f.Category,
		Department:    f.Department,
		DatePurchased: OptionalString(f.DatePurchased),
		DateRetired:   OptionalString(f.DateRetired),
	}
}

type InventoryService struct {
	db      *gorm.DB
	audit   *AuditLogger
	metrics *metrics.Metrics
}

func NewInventoryService(db *gorm.DB, audit *AuditLogger, m *metrics.Metrics) *InventoryService {
	return &InventoryService{db: db, audit: audit, metrics: m}
}

// List returns every item sorted by sortBy (default barcode).
func (s *InventoryService) List(ctx context.Context, sortBy string) ([]models.InventoryItem, error) {
	return listRecords[models.InventoryItem](ctx, s.db, InventoryTable, sortBy)
}

// Search filters inventory by one column.
func (s *InventoryService) Search(ctx context.Context, category, criteria, sortBy string) ([]models.InventoryItem, error) {
	rows, err := searchRecords[models.InventoryItem](ctx, s.db, InventoryTable, category, criteria, sortBy)
	recordSearch(s.metrics, InventoryTable, len(rows), err)
	return rows, err
}

// Get loads one item by a barcode taken from a URL.
func (s *InventoryService) Get(ctx context.Context, rawBarcode string) (*models.InventoryItem, error) {
	barcode, err := lookupNumericKey(rawBarcode, response.CodeBarcodeNotFound, "barcode")
	if err != nil {
		return nil, err
	}
	return s.load(s.db.WithContext(ctx), barcode)
}

func (s *InventoryService) load(tx *gorm.DB, barcode int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := tx.Where("barcode = ?", barcode).First(&item).Error; err != nil {
		if models.IsNotFound(err) {
			return nil, notFoundError(response.CodeBarcodeNotFound, "barcode %d not found", barcode)
		}
		return nil, storeError("load inventory item", err)
	}
	return &item, nil
}

// Retired maps every known barcode to whether it is retired: a set
// date_retired, or transactions with no inventory row left.
func (s *InventoryService) Retired(ctx context.Context) (map[int64]bool, error) {
	db := s.db.WithContext(ctx)

	var items []models.InventoryItem
	if err := db.Select("barcode", "date_retired").Find(&items).Error; err != nil {
		return nil, storeError("load retired dates", err)
	}
	retired := make(map[int64]bool, len(items))
	for _, item := range items {
		retired[item.Barcode] = item.DateRetired != nil
	}

	var orphans []int64
	err := db.Model(&models.Transaction{}).
		Where("barcode NOT IN (?)", db.Model(&models.InventoryItem{}).Select("barcode")).
		Distinct().
		Pluck("barcode", &orphans).Error
	if err != nil {
		return nil, storeError("load orphaned barcodes", err)
	}
	for _, barcode := range orphans {
		retired[barcode] = true
	}
	return retired, nil
}

// IsRetired reports the retired flag for a single barcode.
func (s *InventoryService) IsRetired(ctx context.Context, barcode int64) (bool, error) {
	var item models.InventoryItem
	res := s.db.WithContext(ctx).Where("barcode = ?", barcode).Limit(1).Find(&item)
	if res.Error != nil {
		return false, storeError("load inventory item", res.Error)
	}
	return res.RowsAffected == 0 || item.DateRetired != nil, nil
}

func (s *InventoryService) build(in InventoryInput) (*models.InventoryItem, error) {
	barcode, err := parseNumericKey(in.Barcode, response.NoCode, "barcode")
	if err != nil {
		return nil, err
	}
	purchased, err := parseOptionalDate(in.DatePurchased, "date purchased")
	if err != nil {
		return nil, err
	}
	retired, err := parseOptionalDate(in.DateRetired, "date retired")
	if err != nil {
		return nil, err
	}
	return &models.InventoryItem{
		Barcode:       barcode,
		Serial:        in.Serial.Ptr(),
		Model:         in.Model,
		Category:      in.Category,
		Department:    in.Department,
		DatePurchased: purchased,
		DateRetired:   retired,
	}, nil
}

// Add inserts a new item. The primary key settles concurrent adds of the
// same barcode.
func (s *InventoryService) Add(ctx context.Context, actor string, in InventoryInput) (*models.InventoryItem, error) {
	item, err := s.build(in)
	if err != nil {
		return nil, err
	}

	var created *models.InventoryItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := exists(tx, &models.InventoryItem{}, "barcode = ?", item.Barcode)
		if err != nil {
			return storeError("check barcode", err)
		}
		if taken {
			return duplicateError(response.CodeDuplicateBarcode, "barcode %d already exists", item.Barcode)
		}

		if err := tx.Create(item).Error; err != nil {
			if models.IsDuplicateError(err) {
				return duplicateError(response.CodeDuplicateBarcode, "barcode %d already exists", item.Barcode)
			}
			return storeError("insert inventory item", err)
		}

		created, err = s.load(tx, item.Barcode)
		if err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.ActionAdd, models.DatabaseInventory, created)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(InventoryTable.Name, models.ActionAdd)
	return created, nil
}

// Edit replaces the item stored under rawOldBarcode. It returns false when
// the submission matches the stored row, in which case nothing is written.
func (s *InventoryService) Edit(ctx context.Context, actor, rawOldBarcode string, in InventoryInput) (bool, error) {
	oldBarcode, err := parseNumericKey(rawOldBarcode, response.CodeBarcodeNotFound, "barcode")
	if err != nil {
		return false, err
	}
	proposed, err := s.build(in)
	if err != nil {
		return false, err
	}

	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior, err := s.load(tx, oldBarcode)
		if err != nil {
			return err
		}

		if proposed.Barcode != oldBarcode {
			taken, err := exists(tx, &models.InventoryItem{}, "barcode = ?", proposed.Barcode)
			if err != nil {
				return storeError("check barcode", err)
			}
			if taken {
				return duplicateError(response.CodeDuplicateBarcode, "barcode %d already exists", proposed.Barcode)
			}
		}

		if sameFields(inventoryFields(prior), inventoryFields(proposed)) {
			return nil
		}
		changed = true

		if err := s.audit.Record(tx, actor, models.ActionEdit, models.DatabaseInventory, prior); err != nil {
			return err
		}

		err = tx.Model(&models.InventoryItem{}).
			Where("barcode = ?", oldBarcode).
			Updates(map[string]interface{}{
				"barcode":        proposed.Barcode,
				"serial":         nullable(proposed.Serial),
				"model":          proposed.Model,
				"category":       proposed.Category,
				"department":     proposed.Department,
				"date_purchased": nullable(proposed.DatePurchased),
				"date_retired":   nullable(proposed.DateRetired),
			}).Error
		if err != nil {
			if models.IsDuplicateError(err) {
				return duplicateError(response.CodeDuplicateBarcode, "barcode %d already exists", proposed.Barcode)
			}
			return storeError("update inventory item", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.metrics.RecordMutation(InventoryTable.Name, models.ActionEdit)
	}
	return changed, nil
}

// Remove deletes the item. Its transactions are kept and the barcode then
// reads as retired.
func (s *InventoryService) Remove(ctx context.Context, actor, rawBarcode string) error {
	barcode, err := parseNumericKey(rawBarcode, response.CodeBarcodeNotFound, "barcode")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior, err := s.load(tx, barcode)
		if err != nil {
			return err
		}
		if err := s.audit.Record(tx, actor, models.ActionRemove, models.DatabaseInventory, prior); err != nil {
			return err
		}
		if err := tx.Where("barcode = ?", barcode).Delete(&models.InventoryItem{}).Error; err != nil {
			return storeError("delete inventory item", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordMutation(InventoryTable.Name, models.ActionRemove)
	return nil
}

// inventoryFields renders the user-editable columns for comparison.
func inventoryFields(item *models.InventoryItem) []string {
	return []string{
		strconv.FormatInt(item.Barcode, 10),
		Deref(item.Serial),
		item.Model,
		item.Category,
		item.Department,
		DateString(item.DatePurchased),
		DateString(item.DateRetired),
	}
}

// recordSearch counts a search outcome. Validation failures count as invalid.
func recordSearch(m *metrics.Metrics, table *Table, hits int, err error) {
	switch {
	case err != nil && (errors.Is(err, ErrSearch) || errors.Is(err, ErrValidation)):
		m.RecordSearch(table.Name, metrics.SearchInvalid)
	case err != nil:
	case hits == 0:
		m.RecordSearch(table.Name, metrics.SearchEmpty)
	default:
		m.RecordSearch(table.Name, metrics.SearchHit)
	}
}
