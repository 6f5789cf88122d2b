package services

import (
	"context"
	"strconv"

	"github.com/itinventory/inventory/internal/metrics"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/pkg/response"
	"gorm.io/gorm"
)

// TransactionForm is the add/edit form as posted.
type TransactionForm struct {
	Barcode    string `form:"barcode"`
	InOut      string `form:"inout"`
	Username   string `form:"username"`
	AssignedTo string `form:"assignedto"`
	Hostname   string `form:"hostname"`
	Date       string `form:"date"`
}

type TransactionInput struct {
	Barcode    string
	InOut      string
	Username   Optional[string]
	AssignedTo string
	Hostname   Optional[string]
	Date       string
}

func (f *TransactionForm) Input() TransactionInput {
	return TransactionInput{
		Barcode:    f.Barcode,
		InOut:      f.InOut,
		Username:   OptionalString(f.Username),
		AssignedTo: f.AssignedTo,
		Hostname:   OptionalString(f.Hostname),
		Date:       f.Date,
	}
}

// Prefill copies the fields of an existing transaction into a new form,
// leaving the date for the user.
func Prefill(t *models.Transaction) TransactionForm {
	return TransactionForm{
		Barcode:    strconv.FormatInt(t.Barcode, 10),
		InOut:      t.InOut,
		Username:   Deref(t.Username),
		AssignedTo: t.AssignedTo,
		Hostname:   Deref(t.Hostname),
	}
}

type TransactionService struct {
	db      *gorm.DB
	audit   *AuditLogger
	metrics *metrics.Metrics
}

func NewTransactionService(db *gorm.DB, audit *AuditLogger, m *metrics.Metrics) *TransactionService {
	return &TransactionService{db: db, audit: audit, metrics: m}
}

// List returns every transaction, by date then id unless sortBy says otherwise.
func (s *TransactionService) List(ctx context.Context, sortBy string) ([]models.Transaction, error) {
	return listRecords[models.Transaction](ctx, s.db, TransactionsTable, sortBy)
}

func (s *TransactionService) Search(ctx context.Context, category, criteria, sortBy string) ([]models.Transaction, error) {
	rows, err := searchRecords[models.Transaction](ctx, s.db, TransactionsTable, category, criteria, sortBy)
	recordSearch(s.metrics, TransactionsTable, len(rows), err)
	return rows, err
}

// Get loads one transaction by an id taken from a URL.
func (s *TransactionService) Get(ctx context.Context, rawID string) (*models.Transaction, error) {
	id, err := lookupNumericKey(rawID, response.CodeTransactionNotFound, "transaction id")
	if err != nil {
		return nil, err
	}
	return s.load(s.db.WithContext(ctx), id)
}

func (s *TransactionService) load(tx *gorm.DB, id int64) (*models.Transaction, error) {
	var t models.Transaction
	if err := tx.Where("transactionid = ?", id).First(&t).Error; err != nil {
		if models.IsNotFound(err) {
			return nil, notFoundError(response.CodeTransactionNotFound, "transaction %d not found", id)
		}
		return nil, storeError("load transaction", err)
	}
	return &t, nil
}

// checkHostname rejects a hostname that is not registered.
func checkHostname(tx *gorm.DB, hostname *string) error {
	if hostname == nil {
		return nil
	}
	ok, err := exists(tx, &models.Hostname{}, "hostname = ?", *hostname)
	if err != nil {
		return storeError("check hostname", err)
	}
	if !ok {
		return notFoundError(response.CodeHostnameNotFound, "hostname %q not found", *hostname)
	}
	return nil
}

// Add records a new transaction against a barcode that exists in inventory
// and refreshes the item's last hostname.
func (s *TransactionService) Add(ctx context.Context, actor string, in TransactionInput) (*models.Transaction, error) {
	barcode, err := parseNumericKey(in.Barcode, response.CodeBarcodeNotFound, "barcode")
	if err != nil {
		return nil, err
	}
	date, err := parseDate(in.Date, "date")
	if err != nil {
		return nil, err
	}

	var created *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.InventoryItem{}, "barcode = ?", barcode)
		if err != nil {
			return storeError("check barcode", err)
		}
		if !ok {
			return notFoundError(response.CodeBarcodeNotFound, "barcode %d not in inventory", barcode)
		}
		hostname := in.Hostname.Ptr()
		if err := checkHostname(tx, hostname); err != nil {
			return err
		}

		var lastID int64
		if err := tx.Model(&models.Transaction{}).Select("COALESCE(MAX(transactionid), 0)").Scan(&lastID).Error; err != nil {
			return storeError("next transaction id", err)
		}

		t := &models.Transaction{
			TransactionID: lastID + 1,
			Barcode:       barcode,
			InOut:         in.InOut,
			Username:      in.Username.Ptr(),
			AssignedTo:    in.AssignedTo,
			Hostname:      hostname,
			Date:          date,
		}
		if err := tx.Create(t).Error; err != nil {
			if models.IsDuplicateError(err) {
				return duplicateError(response.NoCode, "transaction %d already exists", t.TransactionID)
			}
			return storeError("insert transaction", err)
		}

		created, err = s.load(tx, t.TransactionID)
		if err != nil {
			return err
		}
		if err := s.audit.Record(tx, actor, models.ActionAdd, models.DatabaseTransactions, created); err != nil {
			return err
		}
		return refreshLastHostname(tx, barcode)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(TransactionsTable.Name, models.ActionAdd)
	return created, nil
}

// Edit rewrites a transaction. The barcode may name a removed item as long
// as other transactions still carry it. Returns false for a no-op.
func (s *TransactionService) Edit(ctx context.Context, actor, rawID string, in TransactionInput) (bool, error) {
	id, err := parseNumericKey(rawID, response.CodeTransactionNotFound, "transaction id")
	if err != nil {
		return false, err
	}
	barcode, err := parseNumericKey(in.Barcode, response.CodeBarcodeUnknown, "barcode")
	if err != nil {
		return false, err
	}
	date, err := parseDate(in.Date, "date")
	if err != nil {
		return false, err
	}

	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inInventory, err := exists(tx, &models.InventoryItem{}, "barcode = ?", barcode)
		if err != nil {
			return storeError("check barcode", err)
		}
		if !inInventory {
			inTransactions, err := exists(tx, &models.Transaction{}, "barcode = ?", barcode)
			if err != nil {
				return storeError("check barcode", err)
			}
			if !inTransactions {
				return notFoundError(response.CodeBarcodeUnknown, "barcode %d not found", barcode)
			}
		}

		prior, err := s.load(tx, id)
		if err != nil {
			return err
		}

		proposed := &models.Transaction{
			TransactionID: id,
			Barcode:       barcode,
			InOut:         in.InOut,
			Username:      in.Username.Ptr(),
			AssignedTo:    in.AssignedTo,
			Hostname:      in.Hostname.Ptr(),
			Date:          date,
		}
		if sameFields(transactionFields(prior), transactionFields(proposed)) {
			return nil
		}
		changed = true

		if err := checkHostname(tx, proposed.Hostname); err != nil {
			return err
		}
		if err := s.audit.Record(tx, actor, models.ActionEdit, models.DatabaseTransactions, prior); err != nil {
			return err
		}

		err = tx.Model(&models.Transaction{}).
			Where("transactionid = ?", id).
			Updates(map[string]interface{}{
				"barcode":    proposed.Barcode,
				"inout":      proposed.InOut,
				"username":   nullable(proposed.Username),
				"assignedto": proposed.AssignedTo,
				"hostname":   nullable(proposed.Hostname),
				"date":       proposed.Date,
			}).Error
		if err != nil {
			return storeError("update transaction", err)
		}

		if err := refreshLastHostname(tx, barcode); err != nil {
			return err
		}
		if prior.Barcode != barcode {
			return refreshLastHostname(tx, prior.Barcode)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.metrics.RecordMutation(TransactionsTable.Name, models.ActionEdit)
	}
	return changed, nil
}

// Remove deletes a transaction and recomputes its barcode's last hostname.
func (s *TransactionService) Remove(ctx context.Context, actor, rawID string) error {
	id, err := parseNumericKey(rawID, response.CodeTransactionNotFound, "transaction id")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if err := s.audit.Record(tx, actor, models.ActionRemove, models.DatabaseTransactions, prior); err != nil {
			return err
		}
		if err := tx.Where("transactionid = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return storeError("delete transaction", err)
		}
		return refreshLastHostname(tx, prior.Barcode)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordMutation(TransactionsTable.Name, models.ActionRemove)
	return nil
}

func transactionFields(t *models.Transaction) []string {
	return []string{
		strconv.FormatInt(t.TransactionID, 10),
		strconv.FormatInt(t.Barcode, 10),
		t.InOut,
		Deref(t.Username),
		t.AssignedTo,
		Deref(t.Hostname),
		DateString(&t.Date),
	}
}
