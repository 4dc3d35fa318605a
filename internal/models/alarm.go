package models

import "time"

type AlarmDirection string

const (
	AlarmAbove AlarmDirection = "above"
	AlarmBelow AlarmDirection = "below"
)

// Alarm: одноразовое ценовое уведомление пользователя.
type Alarm struct {
	ID        string
	UserID    int64
	ChatID    int64
	Symbol    string
	Target    float64
	Direction AlarmDirection // фиксируется при создании
	CreatedAt time.Time
}

// Triggered reports whether price has crossed the alarm target.
func (a Alarm) Triggered(price float64) bool {
	switch a.Direction {
	case AlarmAbove:
		return price >= a.Target
	case AlarmBelow:
		return price <= a.Target
	}
	return false
}

// DirectionFor picks the alarm direction from the price at creation time.
func DirectionFor(current, target float64) AlarmDirection {
	if target >= current {
		return AlarmAbove
	}
	return AlarmBelow
}
