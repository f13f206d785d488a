package panel

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/geopanel/internal/footprint"
	"github.com/sells-group/geopanel/internal/tabular"
)

var nan = math.NaN()

func parseOrNaN(s string) float64 {
	if v, ok := tabular.ParseFloat(s); ok {
		return v
	}
	return nan
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Growth returns cur/prev - 1, or NaN when the ratio is not finite.
func Growth(cur, prev float64) float64 {
	g := cur/prev - 1
	if math.IsInf(g, 0) || math.IsNaN(g) {
		return nan
	}
	return g
}

// IsPost reports whether h is at or after the treatment half.
func IsPost(h, treatment footprint.HalfYear) bool {
	return !h.Before(treatment)
}

// Winsorize clamps the finite values of xs to their lower and upper
// empirical quantiles in place and returns the bounds used. NaN stays NaN.
func Winsorize(xs []float64, lower, upper float64) (float64, float64) {
	vals := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return nan, nan
	}
	sort.Float64s(vals)
	lo := stat.Quantile(lower, stat.Empirical, vals, nil)
	hi := stat.Quantile(upper, stat.Empirical, vals, nil)

	for i, x := range xs {
		switch {
		case math.IsNaN(x):
		case x < lo:
			xs[i] = lo
		case x > hi:
			xs[i] = hi
		}
	}
	return lo, hi
}

// Factorize assigns dense 1-based IDs to the distinct values in sorted order.
func Factorize(values []string) map[string]int {
	uniq := make(map[string]struct{}, len(values))
	for _, v := range values {
		uniq[v] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for v := range uniq {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)

	ids := make(map[string]int, len(sorted))
	for i, v := range sorted {
		ids[v] = i + 1
	}
	return ids
}
