package footprint

import (
	"strings"
	"time"

	"github.com/sells-group/geopanel/internal/tabular"
)

// Spell is one worker's employment interval at one firm in one metro.
// After parsing, End is never before Start.
type Spell struct {
	WorkerID string
	Firm     string
	Metro    string
	Start    time.Time
	End      time.Time
	SOC4     string
}

// Header aliases accepted for each spell column.
var (
	workerAliases = []string{"user_id", "worker_id", "id"}
	firmAliases   = []string{"companyname", "company", "firm_name", "firm"}
	metroAliases  = []string{"msa", "metro_name", "metro_area", "metro"}
	startAliases  = []string{"startdate", "start_date", "start"}
	endAliases    = []string{"enddate", "end_date", "end"}
	socAliases    = []string{"soc_code", "soc6d", "soc"}
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006-01",
	"2006/01/02",
}

// ParseDate parses a calendar date in any of the layouts found in spell
// exports. Times of day are discarded.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if tabular.IsMissing(s) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// spellColumns holds the resolved indexes of one spell file header.
type spellColumns struct {
	worker, firm, metro, start, end, soc int
}

func resolveColumns(h tabular.Header) (spellColumns, []string) {
	cols := spellColumns{
		worker: h.Index(workerAliases...),
		firm:   h.Index(firmAliases...),
		metro:  h.Index(metroAliases...),
		start:  h.Index(startAliases...),
		end:    h.Index(endAliases...),
		soc:    h.Index(socAliases...),
	}
	var missing []string
	if cols.firm < 0 {
		missing = append(missing, "companyname")
	}
	if cols.metro < 0 {
		missing = append(missing, "msa")
	}
	if cols.start < 0 {
		missing = append(missing, "startdate")
	}
	return cols, missing
}
