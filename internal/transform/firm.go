package transform

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// FirmKey returns the join key for a firm name: NFC-normalized, case-folded,
// with internal whitespace collapsed. Output files keep the original name;
// only joins across sources use the key.
func FirmKey(name string) string {
	name = norm.NFC.String(name)
	name = strings.Join(strings.Fields(name), " ")
	return folder.String(name)
}
