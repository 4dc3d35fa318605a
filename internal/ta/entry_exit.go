package ta

import (
	"crypto_bot/internal/models"
)

const (
	fallbackStopPct   = 0.05
	fallbackTargetPct = 0.05
	fallbackEntryPct  = 0.02
)

// PlanEntryExit выбирает направление по перевесу силы сигналов и расставляет
// уровни входа, стопа и тейка по ближайшим пивотам.
func PlanEntryExit(series models.Series, price float64, bb models.BollingerResult, signals []models.Signal) models.EntryExitPlan {
	buy, sell := models.StrengthSums(signals)
	plan := models.EntryExitPlan{Action: models.SideHold, Confidence: absInt(buy - sell)}
	if buy == sell || price <= 0 {
		return plan
	}

	supports := SupportLevels(series, price, PivotWindow)
	resistances := ResistanceLevels(series, price, PivotWindow)

	if buy > sell {
		plan.Action = models.SideBuy
		plan.Entries = []models.EntryPoint{
			{Label: "market", Price: price},
			{Label: "support", Price: firstOr(supports, price*(1-fallbackEntryPct))},
		}
		if lower, ok := models.LastValue(bb.Lower); ok {
			plan.Entries = append(plan.Entries, models.EntryPoint{Label: "bollinger_lower", Price: lower})
		}
		plan.StopLoss = firstOr(supports, price*(1-fallbackStopPct))
		plan.TakeProfit = firstOr(resistances, price*(1+fallbackTargetPct))
		plan.RiskReward = riskReward(price-plan.StopLoss, plan.TakeProfit-price)
		return plan
	}

	plan.Action = models.SideSell
	plan.Entries = []models.EntryPoint{
		{Label: "market", Price: price},
		{Label: "resistance", Price: firstOr(resistances, price*(1+fallbackEntryPct))},
	}
	if upper, ok := models.LastValue(bb.Upper); ok {
		plan.Entries = append(plan.Entries, models.EntryPoint{Label: "bollinger_upper", Price: upper})
	}
	plan.StopLoss = firstOr(resistances, price*(1+fallbackStopPct))
	plan.TakeProfit = firstOr(supports, price*(1-fallbackTargetPct))
	plan.RiskReward = riskReward(plan.StopLoss-price, price-plan.TakeProfit)
	return plan
}

func riskReward(risk, reward float64) float64 {
	if risk <= 0 {
		return 0
	}
	return reward / risk
}

func firstOr(levels []float64, def float64) float64 {
	if len(levels) == 0 {
		return def
	}
	return levels[0]
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
