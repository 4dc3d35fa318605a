package service

import (
	"context"
	"fmt"
	"time"

	"crypto_bot/pkg/logger"
)

// SymbolLoader: книга торговых пар биржи.
type SymbolLoader interface {
	LoadSymbols(ctx context.Context) (int, error)
}

type Warmuper struct {
	book SymbolLoader

	attempts int
	delay    time.Duration
}

func NewWarmuper(book SymbolLoader) *Warmuper {
	return &Warmuper{
		book:     book,
		attempts: 3,
		delay:    2 * time.Second,
	}
}

// Warmup загружает книгу символов; пауза между попытками растёт линейно.
func (w *Warmuper) Warmup(ctx context.Context) (int, error) {
	var err error
	for i := 1; i <= w.attempts; i++ {
		var n int
		if n, err = w.book.LoadSymbols(ctx); err == nil {
			return n, nil
		}
		logger.Warn("[BOOT] загрузка пар, попытка %d/%d: %v", i, w.attempts, err)
		if i == w.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(w.delay * time.Duration(i)):
		}
	}
	return 0, fmt.Errorf("warmup symbols: %w", err)
}
