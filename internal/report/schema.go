// Package report turns parsed inventory documents into the fixed 14-column
// tabular report consumed by downstream spreadsheets.
package report

// Row is one flattened container record. Chemical Name, Manufacturer and
// Product Name all carry the product-name attribute; downstream consumers
// rely on the duplication, so it is preserved as-is.
type Row struct {
	ChemicalName    string
	CASNumber       string
	GroupName       string
	Location        string
	PhysicalState   string
	ChemicalFormula string
	Amount          string
	Units           string
	ContainerID     string
	Manufacturer    string
	ProductName     string
	ProductNumber   string
	DateReceived    string
	ExpirationDate  string
}

// Column pairs an output header with its row accessor.
type Column struct {
	Name  string
	value func(Row) string
}

// Value renders the column's cell for a row.
func (c Column) Value(row Row) string { return c.value(row) }

// Schema returns the report columns in their fixed output order. The header
// spellings are part of the consumer contract and must not change.
func Schema() []Column {
	return []Column{
		{Name: "Chemical Name", value: func(r Row) string { return r.ChemicalName }},
		{Name: "CAS Number", value: func(r Row) string { return r.CASNumber }},
		{Name: "Group Name", value: func(r Row) string { return r.GroupName }},
		{Name: "Location (space)", value: func(r Row) string { return r.Location }},
		{Name: "Physical State", value: func(r Row) string { return r.PhysicalState }},
		{Name: "chemical_formula", value: func(r Row) string { return r.ChemicalFormula }},
		{Name: "Amount", value: func(r Row) string { return r.Amount }},
		{Name: "Units", value: func(r Row) string { return r.Units }},
		{Name: "Container ID", value: func(r Row) string { return r.ContainerID }},
		{Name: "Manufacturer", value: func(r Row) string { return r.Manufacturer }},
		{Name: "Product Name", value: func(r Row) string { return r.ProductName }},
		{Name: "Product Number", value: func(r Row) string { return r.ProductNumber }},
		{Name: "Date Received", value: func(r Row) string { return r.DateReceived }},
		{Name: "Expiration Date", value: func(r Row) string { return r.ExpirationDate }},
	}
}

// Header returns the column names in output order.
func Header() []string {
	columns := Schema()
	names := make([]string, len(columns))
	for i, column := range columns {
		names[i] = column.Name
	}
	return names
}
