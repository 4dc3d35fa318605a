package ta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto_bot/internal/models"
)

// rangeSeries: боковик 97..103 с провалом до 90 и выносом до 120.
func rangeSeries() models.Series {
	s := make(models.Series, 30)
	for i := range s {
		s[i] = models.Candle{
			Time:  t0.Add(time.Duration(i) * time.Hour),
			Open:  100,
			High:  103,
			Low:   97,
			Close: 100,
		}
	}
	s[10].Low = 90
	s[20].High = 120
	return s
}

func TestPivotLevels(t *testing.T) {
	s := rangeSeries()
	assert.Equal(t, []float64{97, 90}, SupportLevels(s, 100, PivotWindow))
	assert.Equal(t, []float64{103, 120}, ResistanceLevels(s, 100, PivotWindow))

	assert.Empty(t, SupportLevels(s, 85, PivotWindow))
	assert.Empty(t, ResistanceLevels(s[:8], 100, PivotWindow))
}

func TestPivotLevels_NearestThree(t *testing.T) {
	s := make(models.Series, 60)
	for i := range s {
		s[i] = models.Candle{Time: t0.Add(time.Duration(i) * time.Hour), High: 110, Low: 100, Close: 105}
	}
	for i, low := range map[int]float64{10: 95, 20: 90, 30: 85, 40: 80} {
		s[i].Low = low
	}
	assert.Equal(t, []float64{100, 95, 90}, SupportLevels(s, 105, PivotWindow))
}

func TestPlanEntryExit_Buy(t *testing.T) {
	s := rangeSeries()
	bb := models.BollingerResult{Upper: []float64{106}, Middle: []float64{100}, Lower: []float64{94}}
	signals := []models.Signal{
		sig(models.SideBuy, models.IndicatorRSI, 8, ""),
		sig(models.SideSell, models.IndicatorMACD, 3, ""),
	}

	plan := PlanEntryExit(s, 100, bb, signals)
	assert.Equal(t, models.SideBuy, plan.Action)
	assert.Equal(t, 5, plan.Confidence)
	assert.Equal(t, 97.0, plan.StopLoss)
	assert.Equal(t, 103.0, plan.TakeProfit)
	assert.InDelta(t, 1.0, plan.RiskReward, 1e-9)

	require.Len(t, plan.Entries, 3)
	assert.Equal(t, 100.0, plan.Entries[0].Price)
	assert.Equal(t, 97.0, plan.Entries[1].Price)
	assert.Equal(t, 94.0, plan.Entries[2].Price)
}

func TestPlanEntryExit_Fallbacks(t *testing.T) {
	short := rangeSeries()[:6]
	bb := models.BollingerResult{}

	buy := PlanEntryExit(short, 100, bb, []models.Signal{sig(models.SideBuy, models.IndicatorRSI, 4, "")})
	assert.Equal(t, models.SideBuy, buy.Action)
	assert.InDelta(t, 95.0, buy.StopLoss, 1e-9)
	assert.InDelta(t, 105.0, buy.TakeProfit, 1e-9)
	assert.InDelta(t, 98.0, buy.Entries[1].Price, 1e-9)
	assert.InDelta(t, 1.0, buy.RiskReward, 1e-9)
	assert.Len(t, buy.Entries, 2)

	sell := PlanEntryExit(short, 100, bb, []models.Signal{sig(models.SideSell, models.IndicatorRSI, 4, "")})
	assert.Equal(t, models.SideSell, sell.Action)
	assert.InDelta(t, 105.0, sell.StopLoss, 1e-9)
	assert.InDelta(t, 95.0, sell.TakeProfit, 1e-9)
	assert.InDelta(t, 102.0, sell.Entries[1].Price, 1e-9)
	assert.InDelta(t, 1.0, sell.RiskReward, 1e-9)
}

func TestPlanEntryExit_Hold(t *testing.T) {
	signals := []models.Signal{
		sig(models.SideBuy, models.IndicatorRSI, 5, ""),
		sig(models.SideSell, models.IndicatorMACD, 5, ""),
	}
	plan := PlanEntryExit(rangeSeries(), 100, models.BollingerResult{}, signals)

	assert.Equal(t, models.SideHold, plan.Action)
	assert.Zero(t, plan.Confidence)
	assert.Empty(t, plan.Entries)
	assert.Zero(t, plan.StopLoss)
	assert.Zero(t, plan.TakeProfit)

	assert.Equal(t, models.SideHold, PlanEntryExit(nil, 100, models.BollingerResult{}, nil).Action)
}

func TestRiskReward(t *testing.T) {
	assert.Zero(t, riskReward(0, 5))
	assert.Zero(t, riskReward(-1, 5))
	assert.InDelta(t, 2.5, riskReward(2, 5), 1e-9)
}
