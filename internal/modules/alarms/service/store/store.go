package store

import (
	"context"

	"crypto_bot/internal/models"
)

// Store: хранилище ценовых алертов.
type Store interface {
	Add(ctx context.Context, a models.Alarm) error
	ListByUser(ctx context.Context, userID int64) ([]models.Alarm, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	All(ctx context.Context) ([]models.Alarm, error)
	// Delete возвращает false, если алерта уже нет: так сработавший алерт уходит ровно один раз.
	Delete(ctx context.Context, id string) (bool, error)
	DeleteBySymbol(ctx context.Context, userID int64, symbol string) (int, error)
	Close() error
}
