package review

import (
	"encoding/csv"
	"io"
)

// ExportCSV writes the final value of every cell, one document per line.
func ExportCSV(w io.Writer, table *Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Document"}, table.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range table.Rows {
		record := make([]string, 0, len(table.fieldIDs)+1)
		record = append(record, row.DocumentName)
		for _, fieldID := range table.fieldIDs {
			var value string
			if v := row.Fields[fieldID].FinalValue; v != nil {
				value = *v
			}
			record = append(record, value)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
