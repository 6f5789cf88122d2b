package models

import (
	"time"

	"gorm.io/datatypes"
)

// InventoryItem is one physical device, identified by its barcode label.
type InventoryItem struct {
	Barcode       int64           `gorm:"column:barcode;primaryKey;autoIncrement:false" json:"barcode"`
	Serial        *string         `gorm:"column:serial;size:255" json:"serial"`
	Model         string          `gorm:"column:model;size:255" json:"model"`
	Category      string          `gorm:"column:category;size:255" json:"category"`
	Department    string          `gorm:"column:department;size:255" json:"department"`
	DatePurchased *datatypes.Date `gorm:"column:date_purchased" json:"date_purchased"`
	DateRetired   *datatypes.Date `gorm:"column:date_retired" json:"date_retired"` // set means retired
	LastHostname  *string         `gorm:"column:last_hostname;size:255" json:"last_hostname"`
}

// Transaction is one custody event for a barcode. Barcode deliberately has
// no foreign key: history outlives removed inventory rows.
type Transaction struct {
	TransactionID int64          `gorm:"column:transactionid;primaryKey;autoIncrement:false" json:"transactionid"`
	Barcode       int64          `gorm:"column:barcode;index" json:"barcode"`
	InOut         string         `gorm:"column:inout;size:10" json:"inout"`
	Username      *string        `gorm:"column:username;size:255" json:"username"`
	AssignedTo    string         `gorm:"column:assignedto;size:255" json:"assignedto"`
	Hostname      *string        `gorm:"column:hostname;size:255;index" json:"hostname"`
	Date          datatypes.Date `gorm:"column:date;index" json:"date"`
}

// Hostname is a registered machine name that transactions may reference.
// Renaming a hostname follows into transactions; removing it clears theirs.
type Hostname struct {
	Hostname    string `gorm:"column:hostname;primaryKey;size:255" json:"hostname"`
	Description string `gorm:"column:description;size:255" json:"description"`
	Active      bool   `gorm:"column:active" json:"active"`

	Transactions []Transaction `gorm:"foreignKey:Hostname;references:Hostname;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// LogEntry is an append-only audit row.
type LogEntry struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	Username   string    `gorm:"column:username;size:255;index" json:"username"`
	ActionType string    `gorm:"column:actiontype;size:10" json:"actiontype"` // Add, Edit, Remove
	Database   string    `gorm:"column:database;size:20" json:"database"`     // Inventory, Transactions, Hostnames
	Timestamp  time.Time `gorm:"column:timestamp;index" json:"timestamp"`
	RecordCopy string    `gorm:"column:recordcopy;type:text" json:"recordcopy"` // JSON snapshot
}

// DropdownPair stores one slot of each option list side by side. A row may
// carry a value in either column or both, never neither.
type DropdownPair struct {
	ID               uint    `gorm:"column:id;primaryKey" json:"id"`
	DeviceType       *string `gorm:"column:devicetype;size:40" json:"devicetype"`
	DeviceDepartment *string `gorm:"column:devicedepartment;size:40" json:"devicedepartment"`
}

// TableName overrides
func (InventoryItem) TableName() string { return "inventory" }
func (Transaction) TableName() string   { return "transactions" }
func (Hostname) TableName() string      { return "hostnames" }
func (LogEntry) TableName() string      { return "logs" }
func (DropdownPair) TableName() string  { return "dropdowns" }

// Action values for LogEntry.ActionType.
const (
	ActionAdd    = "Add"
	ActionEdit   = "Edit"
	ActionRemove = "Remove"
)

// Database values for LogEntry.Database.
const (
	DatabaseInventory    = "Inventory"
	DatabaseTransactions = "Transactions"
	DatabaseHostnames    = "Hostnames"
)
