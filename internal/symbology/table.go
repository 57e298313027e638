// Package symbology maps vendor tickers to the normalized tickers used in
// output channel names.
package symbology

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entry is one row of the table.
type Entry struct {
	Feed         string
	Vendor       string
	Normalized   string
	InstrumentID int32
}

// Table stores the rows keyed by feed and vendor ticker.
type Table struct {
	entries []Entry
	byKey   map[string]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byKey: make(map[string]int)}
}

func key(feed, vendor string) string {
	return feed + "/" + vendor
}

// Add registers a row.
func (t *Table) Add(e Entry) error {
	if e.Feed == "" {
		return fmt.Errorf("symbology: feed is empty")
	}
	if e.Vendor == "" {
		return fmt.Errorf("symbology: vendor ticker is empty")
	}
	if e.Normalized == "" {
		return fmt.Errorf("symbology: normalized ticker is empty for %s", key(e.Feed, e.Vendor))
	}
	k := key(e.Feed, e.Vendor)
	if _, ok := t.byKey[k]; ok {
		return fmt.Errorf("symbology: duplicate entry %s", k)
	}
	t.byKey[k] = len(t.entries)
	t.entries = append(t.entries, e)
	return nil
}

// Lookup returns the row for a vendor ticker.
func (t *Table) Lookup(feed, vendor string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	idx, ok := t.byKey[key(feed, vendor)]
	if !ok {
		return Entry{}, false
	}
	return t.entries[idx], true
}

// Normalize returns the normalized ticker, or vendor itself when unmapped.
func (t *Table) Normalize(feed, vendor string) string {
	if e, ok := t.Lookup(feed, vendor); ok {
		return e.Normalized
	}
	return vendor
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Feed returns the rows of one feed in file order.
func (t *Table) Feed(feed string) []Entry {
	if t == nil {
		return nil
	}
	var out []Entry
	for _, e := range t.entries {
		if e.Feed == feed {
			out = append(out, e)
		}
	}
	return out
}

// Load reads a table file.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses "feed,vendor_ticker,normalized_ticker[,instrument_id]" lines.
// Blank lines and lines starting with '#' are ignored.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := NewTable()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 3 || len(rec) > 4 {
			return nil, fmt.Errorf("line %d: want 3 or 4 fields, got %d", line, len(rec))
		}
		e := Entry{
			Feed:       strings.TrimSpace(rec[0]),
			Vendor:     strings.TrimSpace(rec[1]),
			Normalized: strings.TrimSpace(rec[2]),
		}
		if len(rec) == 4 && strings.TrimSpace(rec[3]) != "" {
			id, err := strconv.ParseInt(strings.TrimSpace(rec[3]), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: instrument id: %w", line, err)
			}
			e.InstrumentID = int32(id)
		}
		if err := t.Add(e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
}
