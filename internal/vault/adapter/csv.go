package adapter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

// Table is a parsed CSV log: its header and the data rows in file order.
type Table struct {
	Header []string
	Rows   [][]string
}

// Row returns record i as an ordered row keyed by the header.
func (t *Table) Row(i int) types.Row {
	rec := t.Rows[i]
	out := make(types.Row, 0, len(t.Header))
	for j, k := range t.Header {
		v := ""
		if j < len(rec) {
			v = rec[j]
		}
		out = append(out, types.Field{Key: k, Value: v})
	}
	return out
}

func encodeRecords(records ...[]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newCSV is the body of a fresh log: header from the row keys, then the row.
func newCSV(row types.Row) ([]byte, error) {
	return encodeRecords(row.Keys(), row.Values())
}

// appendCSV adds one record to existing, laid out in the existing header's
// column order. Keys the header lacks are returned as dropped; header
// columns the row lacks are left empty.
func appendCSV(existing []byte, row types.Row) (next []byte, dropped []string, err error) {
	header, err := readHeader(existing)
	if err != nil {
		return nil, nil, err
	}
	if len(header) == 0 {
		next, err = newCSV(row)
		return next, nil, err
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	rec := make([]string, len(header))
	for _, f := range row {
		i, ok := index[f.Key]
		if !ok {
			dropped = append(dropped, f.Key)
			continue
		}
		rec[i] = f.Value
	}

	line, err := encodeRecords(rec)
	if err != nil {
		return nil, nil, err
	}
	out := make([]byte, 0, len(existing)+len(line)+1)
	out = append(out, existing...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, line...)
	return out, dropped, nil
}

func readHeader(body []byte) ([]string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return header, err
}

func parseTable(body []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}
