package footprint

import "go.uber.org/zap"

// Diagnostics counts row-level defects seen while streaming spells. Defects
// never abort a run; they are reported at the end.
type Diagnostics struct {
	Chunks          int
	RowsRead        int
	Malformed       int // rows the CSV parser rejected, skipped
	MissingRequired int // no firm, metro or start date
	InvalidStart    int // start date did not parse
	EndFilled       int // missing or unparseable end date set to start
	EndClamped      int // end before start set to start
	UnknownMetro    int // metro absent from the lookup or without a CBSA
	Counted         int // spells that reached the presence counter
}

// Fields renders the counters as zap fields.
func (d Diagnostics) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("chunks", d.Chunks),
		zap.Int("rows_read", d.RowsRead),
		zap.Int("malformed", d.Malformed),
		zap.Int("missing_required", d.MissingRequired),
		zap.Int("invalid_start", d.InvalidStart),
		zap.Int("end_filled", d.EndFilled),
		zap.Int("end_clamped", d.EndClamped),
		zap.Int("unknown_msa", d.UnknownMetro),
		zap.Int("counted", d.Counted),
	}
}

// Map returns the counters keyed by name, in the order they are printed.
func (d Diagnostics) Map() map[string]int {
	return map[string]int{
		"chunks":           d.Chunks,
		"rows_read":        d.RowsRead,
		"malformed":        d.Malformed,
		"missing_required": d.MissingRequired,
		"invalid_start":    d.InvalidStart,
		"end_filled":       d.EndFilled,
		"end_clamped":      d.EndClamped,
		"unknown_msa":      d.UnknownMetro,
		"counted":          d.Counted,
	}
}

// Names lists the counter names of Map in display order.
func (Diagnostics) Names() []string {
	return []string{"chunks", "rows_read", "malformed", "missing_required", "invalid_start", "end_filled", "end_clamped", "unknown_msa", "counted"}
}

func (d *Diagnostics) add(o Diagnostics) {
	d.Chunks += o.Chunks
	d.RowsRead += o.RowsRead
	d.Malformed += o.Malformed
	d.MissingRequired += o.MissingRequired
	d.InvalidStart += o.InvalidStart
	d.EndFilled += o.EndFilled
	d.EndClamped += o.EndClamped
	d.UnknownMetro += o.UnknownMetro
	d.Counted += o.Counted
}
