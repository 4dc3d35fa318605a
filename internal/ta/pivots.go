package ta

import (
	"sort"

	"crypto_bot/internal/models"
)

const (
	PivotWindow = 5
	pivotLimit  = 3
)

// SupportLevels ищет локальные минимумы (low не выше low соседних window свечей
// с каждой стороны) ниже цены. Ближайший к цене идёт первым.
func SupportLevels(series models.Series, price float64, window int) []float64 {
	lows := series.Lows()
	var out []float64
	for i := window; i < len(lows)-window; i++ {
		if lows[i] >= price || !isPivot(lows, i, window, func(a, b float64) bool { return a <= b }) {
			continue
		}
		out = append(out, lows[i])
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return nearest(out)
}

// ResistanceLevels зеркальна SupportLevels: локальные максимумы выше цены.
func ResistanceLevels(series models.Series, price float64, window int) []float64 {
	highs := series.Highs()
	var out []float64
	for i := window; i < len(highs)-window; i++ {
		if highs[i] <= price || !isPivot(highs, i, window, func(a, b float64) bool { return a >= b }) {
			continue
		}
		out = append(out, highs[i])
	}
	sort.Float64s(out)
	return nearest(out)
}

func isPivot(values []float64, i, window int, cmp func(a, b float64) bool) bool {
	for j := 1; j <= window; j++ {
		if !cmp(values[i], values[i-j]) || !cmp(values[i], values[i+j]) {
			return false
		}
	}
	return true
}

// nearest убирает повторы из отсортированного среза и оставляет первые pivotLimit.
func nearest(sorted []float64) []float64 {
	out := make([]float64, 0, pivotLimit)
	for _, v := range sorted {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
		if len(out) == pivotLimit {
			break
		}
	}
	return out
}
