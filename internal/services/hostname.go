package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/itinventory/inventory/internal/metrics"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/pkg/response"
	"gorm.io/gorm"
)

// HostnameForm is the add/edit form as posted. Active arrives as "true"
// when the box is ticked.
type HostnameForm struct {
	Hostname    string `form:"hostname"`
	Description string `form:"description"`
	Active      string `form:"active"`
}

type HostnameInput struct {
	Hostname    string
	Description string
	Active      bool
}

func (f *HostnameForm) Input() HostnameInput {
	return HostnameInput{
		Hostname:    strings.TrimSpace(f.Hostname),
		Description: f.Description,
		Active:      f.Active == "true",
	}
}

type HostnameService struct {
	db      *gorm.DB
	audit   *AuditLogger
	metrics *metrics.Metrics
}

func NewHostnameService(db *gorm.DB, audit *AuditLogger, m *metrics.Metrics) *HostnameService {
	return &HostnameService{db: db, audit: audit, metrics: m}
}

func activeScope(activeOnly bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if activeOnly {
			return db.Where("active = ?", true)
		}
		return db
	}
}

// List returns hostnames, optionally only the active ones.
func (s *HostnameService) List(ctx context.Context, sortBy string, activeOnly bool) ([]models.Hostname, error) {
	return listRecords[models.Hostname](ctx, s.db, HostnamesTable, sortBy, activeScope(activeOnly))
}

func (s *HostnameService) Search(ctx context.Context, category, criteria, sortBy string, activeOnly bool) ([]models.Hostname, error) {
	rows, err := searchRecords[models.Hostname](ctx, s.db, HostnamesTable, category, criteria, sortBy, activeScope(activeOnly))
	recordSearch(s.metrics, HostnamesTable, len(rows), err)
	return rows, err
}

// Names lists every registered hostname for form suggestions.
func (s *HostnameService) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.Hostname{}).Order("hostname").Pluck("hostname", &names).Error
	if err != nil {
		return nil, storeError("list hostnames", err)
	}
	return names, nil
}

// Get loads one hostname taken from a URL.
func (s *HostnameService) Get(ctx context.Context, raw string) (*models.Hostname, error) {
	name, err := lookupHostname(raw)
	if err != nil {
		return nil, err
	}
	return s.load(s.db.WithContext(ctx), name)
}

func (s *HostnameService) load(tx *gorm.DB, name string) (*models.Hostname, error) {
	var h models.Hostname
	if err := tx.Where("hostname = ?", name).First(&h).Error; err != nil {
		if models.IsNotFound(err) {
			return nil, notFoundError(response.CodeHostnameNotFound, "hostname %q not found", name)
		}
		return nil, storeError("load hostname", err)
	}
	return &h, nil
}

func (s *HostnameService) Add(ctx context.Context, actor string, in HostnameInput) (*models.Hostname, error) {
	if in.Hostname == "" {
		return nil, validationError(response.NoCode, "hostname is required")
	}
	if len(in.Hostname) > maxHostnameLen {
		return nil, validationError(response.NoCode, "hostname is longer than %d characters", maxHostnameLen)
	}

	var created *models.Hostname
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := exists(tx, &models.Hostname{}, "hostname = ?", in.Hostname)
		if err != nil {
			return storeError("check hostname", err)
		}
		if taken {
			return duplicateError(response.CodeHostnameDuplicate, "hostname %q already exists", in.Hostname)
		}

		h := &models.Hostname{Hostname: in.Hostname, Description: in.Description, Active: in.Active}
		if err := tx.Create(h).Error; err != nil {
			if models.IsDuplicateError(err) {
				return duplicateError(response.CodeHostnameDuplicate, "hostname %q already exists", in.Hostname)
			}
			return storeError("insert hostname", err)
		}

		created, err = s.load(tx, in.Hostname)
		if err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.ActionAdd, models.DatabaseHostnames, created)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(HostnamesTable.Name, models.ActionAdd)
	return created, nil
}

// Edit updates a hostname. A rename carries over to transactions through
// the foreign key and to the inventory last_hostname cache here.
func (s *HostnameService) Edit(ctx context.Context, actor, oldName string, in HostnameInput) (bool, error) {
	if in.Hostname == "" {
		return false, validationError(response.NoCode, "hostname is required")
	}
	if len(in.Hostname) > maxHostnameLen {
		return false, validationError(response.NoCode, "hostname is longer than %d characters", maxHostnameLen)
	}

	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior, err := s.load(tx, oldName)
		if err != nil {
			return err
		}

		renamed := in.Hostname != prior.Hostname
		if renamed {
			taken, err := exists(tx, &models.Hostname{}, "hostname = ?", in.Hostname)
			if err != nil {
				return storeError("check hostname", err)
			}
			if taken {
				return duplicateError(response.CodeHostnameDuplicate, "hostname %q already exists", in.Hostname)
			}
		}

		proposed := &models.Hostname{Hostname: in.Hostname, Description: in.Description, Active: in.Active}
		if sameFields(hostnameFields(prior), hostnameFields(proposed)) {
			return nil
		}
		changed = true

		if err := s.audit.Record(tx, actor, models.ActionEdit, models.DatabaseHostnames, prior); err != nil {
			return err
		}

		err = tx.Model(&models.Hostname{}).
			Where("hostname = ?", prior.Hostname).
			Updates(map[string]interface{}{
				"hostname":    proposed.Hostname,
				"description": proposed.Description,
				"active":      proposed.Active,
			}).Error
		if err != nil {
			if models.IsDuplicateError(err) {
				return duplicateError(response.CodeHostnameDuplicate, "hostname %q already exists", in.Hostname)
			}
			return storeError("update hostname", err)
		}

		if renamed {
			err = tx.Model(&models.InventoryItem{}).
				Where("last_hostname = ?", prior.Hostname).
				Update("last_hostname", proposed.Hostname).Error
			if err != nil {
				return storeError("rename last hostname", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.metrics.RecordMutation(HostnamesTable.Name, models.ActionEdit)
	}
	return changed, nil
}

// Remove deletes a hostname; transactions referencing it keep their rows
// with the hostname cleared, and inventory items that cached it are
// recomputed from their newest transaction.
func (s *HostnameService) Remove(ctx context.Context, actor, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior, err := s.load(tx, name)
		if err != nil {
			return err
		}
		if err := s.audit.Record(tx, actor, models.ActionRemove, models.DatabaseHostnames, prior); err != nil {
			return err
		}

		var barcodes []int64
		err = tx.Model(&models.InventoryItem{}).
			Where("last_hostname = ?", prior.Hostname).
			Pluck("barcode", &barcodes).Error
		if err != nil {
			return storeError("find cached hostname", err)
		}

		if err := tx.Where("hostname = ?", prior.Hostname).Delete(&models.Hostname{}).Error; err != nil {
			return storeError("delete hostname", err)
		}

		for _, barcode := range barcodes {
			if err := refreshLastHostname(tx, barcode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordMutation(HostnamesTable.Name, models.ActionRemove)
	return nil
}

func hostnameFields(h *models.Hostname) []string {
	return []string{h.Hostname, h.Description, strconv.FormatBool(h.Active)}
}
