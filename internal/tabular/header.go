package tabular

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Header maps normalized column names to their index in a record.
type Header map[string]int

// NewHeader builds a Header from a header row. Duplicate names keep the first index.
func NewHeader(cols []string) Header {
	h := make(Header, len(cols))
	for i, col := range cols {
		key := NormalizeCol(col)
		if _, ok := h[key]; !ok {
			h[key] = i
		}
	}
	return h
}

// NormalizeCol lowercases a column name, strips a UTF-8 BOM and surrounding
// whitespace, and maps spaces and dashes to underscores.
// "FIPS State Code" -> "fips_state_code", "CBSA-Code" -> "cbsa_code".
func NormalizeCol(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// Has reports whether the named column exists.
func (h Header) Has(name string) bool {
	_, ok := h[NormalizeCol(name)]
	return ok
}

// Index returns the index of the first present alias, or -1.
func (h Header) Index(aliases ...string) int {
	for _, a := range aliases {
		if idx, ok := h[NormalizeCol(a)]; ok {
			return idx
		}
	}
	return -1
}

// Get returns the trimmed value of the named column, or "" if the column is
// absent or the record is short.
func (h Header) Get(record []string, name string) string {
	return Field(record, h.Index(name))
}

// Require returns an error naming every column in names that is absent.
func (h Header) Require(table string, names ...string) error {
	var missing []string
	for _, n := range names {
		if !h.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("tabular: %s missing required columns: %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// Field returns the trimmed value at idx, or "" when idx is out of range.
func Field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
