package service

import (
	"sync"
	"time"
)

// cooldown: пауза между тяжёлыми командами в одном чате.
type cooldown struct {
	mu   sync.Mutex
	d    time.Duration
	last map[int64]time.Time
	now  func() time.Time
}

func newCooldown(d time.Duration) *cooldown {
	return &cooldown{d: d, last: make(map[int64]time.Time), now: time.Now}
}

// Allow отмечает запуск и возвращает false с остатком паузы, если чат ещё остывает.
func (c *cooldown) Allow(chatID int64) (bool, time.Duration) {
	if c.d <= 0 {
		return true, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[chatID]; ok {
		if wait := c.d - now.Sub(last); wait > 0 {
			return false, wait
		}
	}
	c.last[chatID] = now
	return true, 0
}
