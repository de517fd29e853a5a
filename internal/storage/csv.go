package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type csvCodec struct{}

func (csvCodec) Name() string { return FormatCSV }

func (csvCodec) Encode(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.Summary,
			r.Details,
			strconv.FormatBool(r.IsRecurring),
			r.RecurrenceUnit,
			strconv.Itoa(r.RecurrenceInterval),
			r.DueTime,
			r.AlertOffsets,
			r.CreatedAt,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// requiredColumns must appear in the header; created_at is optional so
// files written before it existed still load.
var requiredColumns = Columns[:8]

func (csvCodec) Decode(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &CorruptRecordError{Pos: 1, Err: err}
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, &CorruptRecordError{Pos: 1, Field: name, Err: errors.New("missing column in header")}
		}
	}

	var entries []Entry
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &CorruptRecordError{Pos: pe.Line, Err: pe.Err}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(row) != len(header) {
			entries = append(entries, Entry{
				Pos: line,
				Err: fmt.Errorf("has %d fields, header has %d", len(row), len(header)),
			})
			continue
		}
		rec, err := csvRecord(row, index)
		entries = append(entries, Entry{Pos: line, Record: rec, Err: err})
	}
	return entries, nil
}

func csvRecord(row []string, index map[string]int) (Record, error) {
	get := func(name string) string {
		if i, ok := index[name]; ok {
			return row[i]
		}
		return ""
	}
	recurring, err := parseBool("is_recurring", get("is_recurring"))
	if err != nil {
		return Record{}, err
	}
	interval, err := parseInt("recurrence_interval", get("recurrence_interval"))
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:                 get("id"),
		Summary:            get("summary"),
		Details:            get("details"),
		IsRecurring:        recurring,
		RecurrenceUnit:     get("recurrence_unit"),
		RecurrenceInterval: interval,
		DueTime:            get("due_time"),
		AlertOffsets:       get("alert_offsets"),
		CreatedAt:          get("created_at"),
	}, nil
}
