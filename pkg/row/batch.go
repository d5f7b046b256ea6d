package row

// Batch maps table names to the ordered rows destined for them. Table
// iteration order is insertion order, so multi-table writes are
// deterministic.
type Batch struct {
	tables []string
	rows   map[string][]Row
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{rows: make(map[string][]Row)}
}

// Add appends rows to a table's sequence, registering the table on first use.
func (b *Batch) Add(table string, rows ...Row) {
	if _, ok := b.rows[table]; !ok {
		b.tables = append(b.tables, table)
	}
	b.rows[table] = append(b.rows[table], rows...)
}

// Tables returns the table names in insertion order.
func (b *Batch) Tables() []string {
	return b.tables
}

// Rows returns the ordered rows for a table.
func (b *Batch) Rows(table string) []Row {
	return b.rows[table]
}

// Len returns the number of tables in the batch.
func (b *Batch) Len() int {
	return len(b.tables)
}
