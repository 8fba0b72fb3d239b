// Package model defines the tabular data types shared across the pipeline.
package model

// Row is a single record: column name → cell value. Rows read from an input
// table are treated as immutable; enrichment works on copies.
type Row map[string]string

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of rows sharing one column set. Columns holds
// the declaration order from the source header. Uniform columns across rows
// are assumed, not validated.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Attributes is the fixed set of contact attributes the pipeline extracts,
// in export order.
var Attributes = []string{
	"contact",
	"phone",
	"email",
	"website",
	"location",
	"linkedin",
	"address",
	"twitter",
	"facebook",
}

// ContactFields is a partial mapping from attribute name to a cleaned value.
// Only validated, non-empty values are ever present; a field that fails
// validation is dropped, never stored as an empty string.
type ContactFields map[string]string
