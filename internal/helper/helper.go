package helper

import (
	"strings"
)

// Timeframes, которые понимает анализ.
var Timeframes = []string{"1h", "4h", "1d", "1w"}

// NormTF приводит запись таймфрейма к виду Binance; пустая строка, если таймфрейм не поддерживается.
func NormTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	switch s {
	case "60m", "1h", "h", "1ч", "ч", "час":
		return "1h"
	case "240m", "4h", "4ч":
		return "4h"
	case "1d", "d", "24h", "1д", "д", "день":
		return "1d"
	case "1w", "w", "7d", "1н", "н", "неделя":
		return "1w"
	default:
		return ""
	}
}

// SplitArgs делит аргументы команды по пробелам и запятым.
func SplitArgs(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
}
