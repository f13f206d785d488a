package crosswalk

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geopanel/internal/tabular"
)

// Output file names and column contracts.
const (
	LargestFile    = "cz_cbsa_largest.csv"
	FractionalFile = "cz_cbsa_fractional.csv"
)

var (
	LargestColumns    = []string{"cz", "cbsa", "population"}
	FractionalColumns = []string{"cz", "cbsa", "population", "weight"}
)

// Rows renders the largest mapping sorted by CZ.
func (l Largest) Rows() [][]string {
	czs := make([]string, 0, len(l))
	for cz := range l {
		czs = append(czs, cz)
	}
	sort.Strings(czs)

	rows := make([][]string, 0, len(czs))
	for _, cz := range czs {
		a := l[cz]
		rows = append(rows, []string{a.CZ, a.CBSA, tabular.FormatFloat(a.Population)})
	}
	return rows
}

// Rows renders the fractional mapping in its stored (CZ, CBSA) order.
func (f Fractional) Rows() [][]string {
	rows := make([][]string, 0, len(f))
	for _, s := range f {
		rows = append(rows, []string{s.CZ, s.CBSA, tabular.FormatFloat(s.Population), tabular.FormatFloat(s.Weight)})
	}
	return rows
}

// ReadLargest loads a largest-share mapping written by Build's caller.
func ReadLargest(path string) (Largest, error) {
	header, rows, err := tabular.ReadCSVFile(path, tabular.CSVOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "crosswalk: read largest mapping")
	}
	if err := header.Require(LargestFile, LargestColumns...); err != nil {
		return nil, err
	}

	out := make(Largest, len(rows))
	for _, rec := range rows {
		cz, cbsa := header.Get(rec, "cz"), header.Get(rec, "cbsa")
		if cz == "" || cbsa == "" {
			continue
		}
		out[cz] = Assignment{CZ: cz, CBSA: cbsa, Population: tabular.ParseFloatOr(header.Get(rec, "population"), 0)}
	}
	return out, nil
}

// ReadFractional loads a fractional mapping.
func ReadFractional(path string) (Fractional, error) {
	header, rows, err := tabular.ReadCSVFile(path, tabular.CSVOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "crosswalk: read fractional mapping")
	}
	if err := header.Require(FractionalFile, FractionalColumns...); err != nil {
		return nil, err
	}

	out := make(Fractional, 0, len(rows))
	for _, rec := range rows {
		w, ok := tabular.ParseFloat(header.Get(rec, "weight"))
		cz, cbsa := header.Get(rec, "cz"), header.Get(rec, "cbsa")
		if !ok || cz == "" || cbsa == "" {
			continue
		}
		out = append(out, Share{
			CZ:         cz,
			CBSA:       cbsa,
			Population: tabular.ParseFloatOr(header.Get(rec, "population"), 0),
			Weight:     w,
		})
	}
	return out, nil
}
