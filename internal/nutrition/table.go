// Package nutrition holds the nutrition reference table, the USDA
// FoodData Central lookup that fills it, and grocery-level analyses built
// on top of both.
package nutrition

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/raseed/internal/model"
)

// ErrUnavailable is returned when the reference table file does not exist.
var ErrUnavailable = errors.New("nutrition database not available")

// csvHeader is the column order of the cache file.
var csvHeader = []string{"item", "protein", "fiber", "carbs", "fat", "calories"}

// Table is an ordered set of nutrition rows keyed by lowercased item name.
// A nil *Table is valid and behaves as an unavailable table.
type Table struct {
	index map[string]int
	rows  []model.NutritionFacts
}

// NewTable builds a table from rows. Later duplicates replace earlier
// values but keep the first position.
func NewTable(rows ...model.NutritionFacts) *Table {
	t := &Table{index: make(map[string]int, len(rows))}
	for _, row := range rows {
		t.Add(row)
	}
	return t
}

// LoadCSV reads the table at path. A missing file yields ErrUnavailable.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
		}
		return nil, fmt.Errorf("failed to open nutrition table: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f)
}

// ReadCSV parses a table with an item,protein,fiber,carbs,fat,calories
// header. Columns may appear in any order; unparsable numbers read as zero.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read nutrition header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["item"]; !ok {
		return nil, fmt.Errorf("nutrition table has no item column")
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	number := func(record []string, name string) float64 {
		v, err := strconv.ParseFloat(field(record, name), 64)
		if err != nil || v < 0 {
			return 0
		}
		return v
	}

	t := NewTable()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read nutrition row: %w", err)
		}

		item := field(record, "item")
		if item == "" {
			continue
		}
		t.Add(model.NutritionFacts{
			Item:     item,
			Protein:  number(record, "protein"),
			Fiber:    number(record, "fiber"),
			Carbs:    number(record, "carbs"),
			Fat:      number(record, "fat"),
			Calories: number(record, "calories"),
		})
	}

	return t, nil
}

// Available reports whether the table was loaded.
func (t *Table) Available() bool {
	return t != nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Add inserts or replaces a row.
func (t *Table) Add(facts model.NutritionFacts) {
	key := strings.ToLower(strings.TrimSpace(facts.Item))
	if key == "" {
		return
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[key]; ok {
		t.rows[i] = facts
		return
	}
	t.index[key] = len(t.rows)
	t.rows = append(t.rows, facts)
}

// Lookup finds a row by case-insensitive item name.
func (t *Table) Lookup(name string) (model.NutritionFacts, bool) {
	if t == nil {
		return model.NutritionFacts{}, false
	}
	i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.NutritionFacts{}, false
	}
	return t.rows[i], true
}

// Rows returns a copy of the rows in file order.
func (t *Table) Rows() []model.NutritionFacts {
	if t == nil {
		return nil
	}
	out := make([]model.NutritionFacts, len(t.rows))
	copy(out, t.rows)
	return out
}

// Keys returns the lowercased item names, sorted.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, 0, len(t.index))
	for k := range t.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppendCSV appends rows to the cache file at path, writing the header
// when the file is new or empty.
func AppendCSV(path string, rows ...model.NutritionFacts) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create nutrition cache directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open nutrition cache: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat nutrition cache: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write nutrition header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write([]string{
			row.Item,
			FormatNumber(row.Protein),
			FormatNumber(row.Fiber),
			FormatNumber(row.Carbs),
			FormatNumber(row.Fat),
			FormatNumber(row.Calories),
		}); err != nil {
			return fmt.Errorf("failed to write nutrition row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush nutrition cache: %w", err)
	}
	return nil
}

// FormatNumber renders a value with the shortest exact representation.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
