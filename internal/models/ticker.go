package models

import "time"

// Ticker24h: суточная статистика пары.
type Ticker24h struct {
	Symbol      string
	LastPrice   float64
	ChangePct   float64
	Volume      float64
	QuoteVolume float64
	High        float64
	Low         float64
}

// PriceTick приходит из websocket-стрима.
type PriceTick struct {
	Symbol string
	Price  float64
	Time   time.Time
}

type FearGreed struct {
	Value          int
	Classification string
	Time           time.Time
}
