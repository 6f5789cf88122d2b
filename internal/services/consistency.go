package services

import (
	"github.com/itinventory/inventory/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// refreshLastHostname copies the hostname of the barcode's most recent
// transaction into inventory.last_hostname. With no transactions left the
// cached value is kept as is.
func refreshLastHostname(tx *gorm.DB, barcode int64) error {
	var latest models.Transaction
	err := tx.Where("barcode = ?", barcode).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "transactionid"}, Desc: true}).
		Limit(1).
		Find(&latest).Error
	if err != nil {
		return storeError("find latest transaction", err)
	}
	if latest.TransactionID == 0 {
		return nil
	}

	var item models.InventoryItem
	res := tx.Where("barcode = ?", barcode).Limit(1).Find(&item)
	if res.Error != nil {
		return storeError("load inventory item", res.Error)
	}
	if res.RowsAffected == 0 || sameOptional(item.LastHostname, latest.Hostname) {
		return nil
	}

	err = tx.Model(&models.InventoryItem{}).
		Where("barcode = ?", barcode).
		Update("last_hostname", nullable(latest.Hostname)).Error
	if err != nil {
		return storeError("update last hostname", err)
	}
	return nil
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
