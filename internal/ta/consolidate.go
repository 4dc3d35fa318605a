package ta

import (
	"sort"
	"strings"

	"crypto_bot/internal/models"
)

const MultiTFMarker = " (Multi-TF)"

type signalKey struct {
	side      models.Side
	indicator string
}

// Consolidate сливает сигналы с одинаковыми (тип, индикатор): из группы остаётся
// самый сильный, сила растёт на размер группы − 1 (не выше 10), к причине
// добавляется отметка мульти-таймфрейма. Результат отсортирован по силе по убыванию.
// Входной срез не меняется.
func Consolidate(signals []models.Signal) []models.Signal {
	if len(signals) == 0 {
		return []models.Signal{}
	}

	order := make([]signalKey, 0, len(signals))
	groups := make(map[signalKey][]models.Signal, len(signals))
	for _, s := range signals {
		k := signalKey{side: s.Type, indicator: s.Indicator}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], s)
	}

	out := make([]models.Signal, 0, len(order))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}

		best := group[0]
		for _, s := range group[1:] {
			if s.Strength > best.Strength {
				best = s
			}
		}
		best.Strength = models.ClampStrength(best.Strength + len(group) - 1)
		if !strings.HasSuffix(best.Reason, MultiTFMarker) {
			best.Reason += MultiTFMarker
		}
		out = append(out, best)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Strength > out[j].Strength
	})
	return out
}
