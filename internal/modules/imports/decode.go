package imports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aristath/tradejournal/internal/domain"
)

// DecodeJSON reads a JSON array of objects
func DecodeJSON(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, domain.WrapError(domain.KindMalformedBatchInput, "decode.json",
			fmt.Errorf("rows must be a JSON array of objects: %w", err))
	}
	if raw == nil {
		return nil, domain.NewError(domain.KindMalformedBatchInput, "decode.json", "rows must be a JSON array, got null")
	}

	records := make([]Record, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, domain.NewError(domain.KindMalformedBatchInput, "decode.json",
				fmt.Sprintf("row %d is not an object", i))
		}

		itemDec := json.NewDecoder(bytes.NewReader(item))
		itemDec.UseNumber()
		var rec Record
		if err := itemDec.Decode(&rec); err != nil {
			return nil, domain.WrapError(domain.KindMalformedBatchInput, "decode.json",
				fmt.Errorf("row %d: %w", i, err))
		}
		records = append(records, rec)
	}

	return records, nil
}

// DecodeCSV reads a CSV export whose first line names the columns.
// Empty cells are left out of the record so they count as absent.
func DecodeCSV(r io.Reader) ([]Record, error) {
	return decodeDelimited(r, ',', "decode.csv")
}

// DecodeTSV reads a tab-separated export with the same rules as DecodeCSV
func DecodeTSV(r io.Reader) ([]Record, error) {
	return decodeDelimited(r, '\t', "decode.tsv")
}

// decodeDelimited decodes a header-first delimited export. A line with more
// or fewer cells than the header still yields a record; cells missing at the
// end count as absent and cells past the last column are ignored.
func decodeDelimited(r io.Reader, comma rune, op string) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindMalformedBatchInput, op, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var records []Record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.WrapError(domain.KindMalformedBatchInput, op, err)
		}

		rec := make(Record, len(columns))
		for i, value := range fields {
			if i >= len(columns) || columns[i] == "" || strings.TrimSpace(value) == "" {
				continue
			}
			rec[columns[i]] = strings.TrimSpace(value)
		}
		records = append(records, rec)
	}

	if records == nil {
		records = []Record{}
	}
	return records, nil
}
