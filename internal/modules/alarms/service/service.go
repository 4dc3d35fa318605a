package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"crypto_bot/internal/models"
	"crypto_bot/internal/modules/alarms/service/store"
	"crypto_bot/internal/modules/config"
)

var (
	ErrLimit     = errors.New("alarm limit reached")
	ErrBadTarget = errors.New("bad target price")
)

// PriceSource: текущая цена пары (кэш websocket с откатом на REST).
type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

type Service struct {
	store  store.Store
	prices PriceSource
	max    int
	now    func() time.Time

	// count+add должны идти атомарно, иначе лимит можно обойти параллельными командами
	mu sync.Mutex
}

func NewService(cfg *config.Config, st store.Store, prices PriceSource) *Service {
	return &Service{
		store:  st,
		prices: prices,
		max:    cfg.Alarms.MaxPerUser,
		now:    time.Now,
	}
}

func (s *Service) MaxPerUser() int { return s.max }

// ParseTarget принимает "64000", "64,000.5", "$0.35"; цена должна быть больше нуля.
func ParseTarget(raw string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, errors.Wrapf(ErrBadTarget, "%q", raw)
	}
	if !d.IsPositive() {
		return 0, errors.Wrapf(ErrBadTarget, "%q must be positive", raw)
	}
	f, _ := d.Float64()
	return f, nil
}

// Add заводит одноразовый алерт; направление фиксируется по цене в момент создания.
func (s *Service) Add(ctx context.Context, userID, chatID int64, symbol string, target float64) (models.Alarm, float64, error) {
	if target <= 0 {
		return models.Alarm{}, 0, ErrBadTarget
	}

	current, err := s.prices.Price(ctx, symbol)
	if err != nil {
		return models.Alarm{}, 0, fmt.Errorf("price %s: %w", symbol, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.CountByUser(ctx, userID)
	if err != nil {
		return models.Alarm{}, 0, err
	}
	if n >= s.max {
		return models.Alarm{}, current, errors.Wrapf(ErrLimit, "%d/%d", n, s.max)
	}

	a := models.Alarm{
		ID:        uuid.NewString(),
		UserID:    userID,
		ChatID:    chatID,
		Symbol:    symbol,
		Target:    target,
		Direction: models.DirectionFor(current, target),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Add(ctx, a); err != nil {
		return models.Alarm{}, current, err
	}
	return a, current, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]models.Alarm, error) {
	return s.store.ListByUser(ctx, userID)
}

// Stop удаляет все алерты пользователя по паре.
func (s *Service) Stop(ctx context.Context, userID int64, symbol string) (int, error) {
	return s.store.DeleteBySymbol(ctx, userID, symbol)
}

// Price: текущая цена для отображения в списке алертов.
func (s *Service) Price(ctx context.Context, symbol string) (float64, error) {
	return s.prices.Price(ctx, symbol)
}
