package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedFormat is returned for file extensions the registry cannot load.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// DocumentStore receives non-tabular documents routed through Load.
type DocumentStore interface {
	// AddPDF extracts text passages from a PDF and appends them to the corpus.
	AddPDF(path string) (string, error)
}

// Registry holds all loaded tabular datasets and tracks which one is active.
// The active dataset is used when a request omits an explicit name.
//
// Access is guarded by a reader-writer lock: loads are rare, lookups are per
// request, and a reload must replace the table wholesale.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
	active string
	docs   DocumentStore
}

// NewRegistry creates an empty registry. docs may be nil, in which case PDF
// uploads are rejected as unsupported.
func NewRegistry(docs DocumentStore) *Registry {
	return &Registry{
		tables: make(map[string]*Table),
		docs:   docs,
	}
}

// Load reads the file at path and registers it. Tabular files (.csv, .xlsx,
// .xls) become named datasets and are made active; PDFs are routed to the
// document store. The returned string is a human-readable status message.
func (r *Registry) Load(path string) (string, error) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".csv":
		table, err := loadCSV(path, name)
		if err != nil {
			return "", fmt.Errorf("load csv %s: %w", name, err)
		}
		r.Register(table)
		return fmt.Sprintf("Data loaded successfully. File '%s' is now active.", name), nil
	case ".xlsx", ".xls":
		table, err := loadXLSX(path, name)
		if err != nil {
			return "", fmt.Errorf("load spreadsheet %s: %w", name, err)
		}
		r.Register(table)
		return fmt.Sprintf("Data loaded successfully. File '%s' is now active.", name), nil
	case ".pdf":
		if r.docs == nil {
			return "", fmt.Errorf("load %s: %w", name, ErrUnsupportedFormat)
		}
		status, err := r.docs.AddPDF(path)
		if err != nil {
			return "", fmt.Errorf("load pdf %s: %w", name, err)
		}
		return status, nil
	default:
		return "", fmt.Errorf("load %s: %w", name, ErrUnsupportedFormat)
	}
}

// Register stores a table under its name, replacing any previous table of the
// same name, and makes it the active dataset.
func (r *Registry) Register(t *Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[t.Name] = t
	r.active = t.Name
}

// Lookup resolves a dataset by name. An empty name resolves the active
// dataset.
func (r *Registry) Lookup(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.active
	}
	if name == "" {
		return nil, false
	}
	t, ok := r.tables[name]
	return t, ok
}

// Active returns the name of the active dataset, or "" when none is loaded.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Names returns the loaded dataset names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary renders every loaded dataset's columns and first rows. This is the
// payload of the get_data_summary tool.
func (r *Registry) Summary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.tables) == 0 {
		return "No data loaded."
	}

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Loaded Files:\n")
	for _, name := range names {
		t := r.tables[name]
		b.WriteString(fmt.Sprintf("\n--- File: %s ---\n", name))
		b.WriteString(fmt.Sprintf("Columns: %v\n", t.Columns))
		b.WriteString("Head:\n")
		b.WriteString(t.head(5))
	}
	return b.String()
}

// Preview is the payload of the data preview endpoint.
type Preview struct {
	Filename  string   `json:"filename"`
	Columns   []string `json:"columns"`
	Data      []Row    `json:"data"`
	TotalRows int      `json:"total_rows"`
}

// Preview returns the first 10 rows of a dataset (active when name is empty).
func (r *Registry) Preview(name string) (*Preview, bool) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}

	n := 10
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	data := make([]Row, n)
	copy(data, t.Rows[:n])

	return &Preview{
		Filename:  t.Name,
		Columns:   t.Columns,
		Data:      data,
		TotalRows: len(t.Rows),
	}, true
}
