// Package footprint streams worker employment spells into per-firm,
// per-half-year metro presence counts and derives each firm's geographic
// concentration, core metros and dispersion from them.
package footprint

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopanel/internal/geo"
	"github.com/sells-group/geopanel/internal/tabular"
	"github.com/sells-group/geopanel/internal/transform"
)

// ErrNoSpells reports a run in which no spell reached the presence counter.
var ErrNoSpells = eris.New("no spells counted")

// Options tunes a streaming run.
type Options struct {
	ChunkRows    int // rows held in memory per chunk; <= 0 uses tabular.DefaultChunkRows
	TestRows     int // stop after this many rows; 0 reads everything
	BaselineYear int // year whose spells feed the firm HHI
}

// Result holds everything accumulated in one pass over the spell file.
type Result struct {
	Presence Counter
	// Baseline counts, per firm and metro, the spells overlapping the
	// baseline year. Each spell counts once however many halves it spans.
	Baseline     map[string]map[MetroKey]int
	BaselineYear int
	// Occupation counts spells per firm, SOC4 and half. Populated only when
	// the spell file carries an occupation column.
	Occupation  map[OccKey]int
	HasSOC      bool
	Diagnostics Diagnostics
}

// Engine aggregates spells against a fixed metro lookup.
type Engine struct {
	metros geo.Lookup
	opts   Options
	log    *zap.Logger
}

// New creates an Engine.
func New(metros geo.Lookup, opts Options) *Engine {
	return &Engine{
		metros: metros,
		opts:   opts,
		log:    zap.L().With(zap.String("component", "footprint")),
	}
}

// RunFile streams the spell CSV at path.
func (e *Engine) RunFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "footprint: open spells %s", path)
	}
	defer f.Close() //nolint:errcheck

	return e.Run(ctx, f)
}

// Run reads spells from r chunk by chunk. Only the current chunk and the
// aggregates are held in memory. Cancelling ctx stops reading further chunks.
func (e *Engine) Run(ctx context.Context, r io.Reader) (*Result, error) {
	cr, err := tabular.NewChunkReader(r, tabular.CSVOptions{
		ChunkRows:     e.opts.ChunkRows,
		Limit:         e.opts.TestRows,
		TrimSpace:     true,
		LazyQuotes:    true,
		SkipMalformed: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "footprint: read spell header")
	}

	cols, missing := resolveColumns(cr.Header())
	if len(missing) > 0 {
		return nil, eris.Errorf("footprint: spell file missing required columns: %s", strings.Join(missing, ", "))
	}

	res := &Result{
		Presence:     make(Counter),
		Baseline:     make(map[string]map[MetroKey]int),
		BaselineYear: e.opts.BaselineYear,
		Occupation:   make(map[OccKey]int),
		HasSOC:       cols.soc >= 0,
	}

	for {
		chunk, err := cr.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "footprint: read spells")
		}

		diag := e.processChunk(chunk.Rows, cols, res)
		diag.Chunks = 1
		diag.Malformed = chunk.Malformed
		res.Diagnostics.add(diag)

		e.log.Debug("chunk processed",
			zap.Int("offset", chunk.Offset),
			zap.Int("rows", len(chunk.Rows)),
			zap.Int("firm_halves", len(res.Presence)),
		)
	}

	e.log.Info("spells streamed", res.Diagnostics.Fields()...)
	return res, nil
}

// processChunk applies the row repairs in order and counts every surviving
// spell into res.
func (e *Engine) processChunk(rows [][]string, cols spellColumns, res *Result) Diagnostics {
	var d Diagnostics
	for _, rec := range rows {
		d.RowsRead++

		firm := tabular.Field(rec, cols.firm)
		metro := tabular.Field(rec, cols.metro)
		startRaw := tabular.Field(rec, cols.start)
		if tabular.IsMissing(firm) || tabular.IsMissing(metro) || tabular.IsMissing(startRaw) {
			d.MissingRequired++
			continue
		}

		start, ok := ParseDate(startRaw)
		if !ok {
			d.InvalidStart++
			continue
		}

		end, ok := ParseDate(tabular.Field(rec, cols.end))
		switch {
		case !ok:
			end = start
			d.EndFilled++
		case end.Before(start):
			end = start
			d.EndClamped++
		}

		m, ok := e.metros[metro]
		if !ok || m.CBSA == "" {
			d.UnknownMetro++
			continue
		}

		s := Spell{
			WorkerID: tabular.Field(rec, cols.worker),
			Firm:     firm,
			Metro:    metro,
			Start:    start,
			End:      end,
			SOC4:     transform.SOC4(tabular.Field(rec, cols.soc)),
		}
		e.count(s, MetroKey{CBSA: m.CBSA, Name: m.Name}, res)
		d.Counted++
	}
	return d
}

func (e *Engine) count(s Spell, mk MetroKey, res *Result) {
	for _, h := range Enumerate(s.Start, s.End) {
		res.Presence.Add(HalfKey{Firm: s.Firm, HalfYear: h}, mk, 1)
		if res.HasSOC && s.SOC4 != "" {
			res.Occupation[OccKey{Firm: s.Firm, SOC4: s.SOC4, HalfYear: h}]++
		}
	}

	by := e.opts.BaselineYear
	if s.Start.Year() <= by && s.End.Year() >= by {
		inner, ok := res.Baseline[s.Firm]
		if !ok {
			inner = make(map[MetroKey]int)
			res.Baseline[s.Firm] = inner
		}
		inner[mk]++
	}
}
