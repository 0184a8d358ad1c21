package domain

// Table is a header plus a 2-D grid of cell text, ready to be written to a sheet.
type Table struct {
	Header []string
	Rows   [][]string
}

// Values returns the header followed by the rows, as the Sheets API expects.
func (t Table) Values() [][]interface{} {
	values := make([][]interface{}, 0, len(t.Rows)+1)
	values = append(values, toCells(t.Header))
	for _, row := range t.Rows {
		values = append(values, toCells(row))
	}
	return values
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
