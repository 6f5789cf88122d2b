package services

// Format selects how search criteria are interpreted for a column.
type Format int

const (
	FormatInt Format = iota + 1
	FormatStr
	FormatDate
	FormatTimestamp
)

// Column is an allow-listed column of a logical table. Key is the only
// identifier ever placed into SQL.
type Column struct {
	Key        string
	Label      string
	Format     Format
	Searchable bool
	Sortable   bool
}

// Table is the closed column set of one logical table.
type Table struct {
	Name        string
	Columns     []Column
	DefaultSort string
	TieBreak    string
}

// Column resolves name, given either as a column key or its display label.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Key == name || c.Label == name {
			return c, true
		}
	}
	return Column{}, false
}

// SearchColumn resolves a search category.
func (t *Table) SearchColumn(name string) (Column, bool) {
	c, ok := t.Column(name)
	if !ok || !c.Searchable {
		return Column{}, false
	}
	return c, true
}

// SortColumn resolves a sort choice, falling back to the table default.
func (t *Table) SortColumn(name string) Column {
	if c, ok := t.Column(name); ok && c.Sortable {
		return c
	}
	c, _ := t.Column(t.DefaultSort)
	return c
}

// SortOptions lists the sort labels with the active one first.
func (t *Table) SortOptions(selected string) []string {
	active := t.SortColumn(selected)
	out := []string{active.Label}
	for _, c := range t.Columns {
		if c.Sortable && c.Key != active.Key {
			out = append(out, c.Label)
		}
	}
	return out
}

// SearchColumns lists the columns offered on the search form.
func (t *Table) SearchColumns() []Column {
	var out []Column
	for _, c := range t.Columns {
		if c.Searchable {
			out = append(out, c)
		}
	}
	return out
}

var InventoryTable = &Table{
	Name: "inventory",
	Columns: []Column{
		{Key: "barcode", Label: "Barcode", Format: FormatInt, Searchable: true, Sortable: true},
		{Key: "serial", Label: "Serial", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "model", Label: "Model", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "category", Label: "Category", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "department", Label: "Department", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "date_purchased", Label: "Date Purchased", Format: FormatDate, Searchable: true, Sortable: true},
		{Key: "date_retired", Label: "Date Retired", Format: FormatDate, Searchable: true, Sortable: true},
		{Key: "last_hostname", Label: "Last Hostname", Format: FormatStr, Searchable: true, Sortable: true},
	},
	DefaultSort: "barcode",
}

var TransactionsTable = &Table{
	Name: "transactions",
	Columns: []Column{
		{Key: "transactionid", Label: "Transaction ID", Format: FormatInt, Searchable: true, Sortable: true},
		{Key: "barcode", Label: "Barcode", Format: FormatInt, Searchable: true, Sortable: true},
		{Key: "inout", Label: "In/Out", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "username", Label: "Username", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "assignedto", Label: "Assigned To", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "hostname", Label: "Hostname", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "date", Label: "Date", Format: FormatDate, Searchable: true, Sortable: true},
	},
	DefaultSort: "date",
	TieBreak:    "transactionid",
}

var HostnamesTable = &Table{
	Name: "hostnames",
	Columns: []Column{
		{Key: "hostname", Label: "Hostname", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "description", Label: "Description", Format: FormatStr, Searchable: true, Sortable: true},
	},
	DefaultSort: "hostname",
	TieBreak:    "hostname",
}

var LogsTable = &Table{
	Name: "logs",
	Columns: []Column{
		{Key: "username", Label: "Username", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "actiontype", Label: "Action Type", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "database", Label: "Database", Format: FormatStr, Searchable: true, Sortable: true},
		{Key: "timestamp", Label: "Timestamp", Format: FormatTimestamp, Searchable: true, Sortable: true},
		{Key: "recordcopy", Label: "Record", Format: FormatStr, Searchable: true},
	},
	DefaultSort: "timestamp",
	TieBreak:    "id",
}
