package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"crypto_bot/internal/models"
	"crypto_bot/internal/modules/alarms/service/store"
	"crypto_bot/internal/modules/config"
	health "crypto_bot/internal/modules/health/service"
	"crypto_bot/pkg/logger"
)

// Notifier доставляет сработавший алерт пользователю.
type Notifier interface {
	AlarmTriggered(ctx context.Context, a models.Alarm, price float64) error
}

// Checker по расписанию сверяет алерты с текущими ценами.
type Checker struct {
	store    store.Store
	prices   PriceSource
	notifier Notifier
	state    *health.State

	cron     *cron.Cron
	schedule string
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewChecker(cfg *config.Config, st store.Store, prices PriceSource, n Notifier, state *health.State) *Checker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Checker{
		store:    st,
		prices:   prices,
		notifier: n,
		state:    state,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		schedule: cfg.Alarms.Schedule,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Checker) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, func() {
		if _, err := c.Check(c.ctx); err != nil {
			logger.Error("alarms: check failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register alarm check %q: %w", c.schedule, err)
	}
	c.cron.Start()
	logger.Info("alarms: checker started (%s)", c.schedule)
	return nil
}

func (c *Checker) Stop() {
	c.cancel()
	<-c.cron.Stop().Done()
	logger.Info("alarms: checker stopped")
}

// Check проходит по всем алертам один раз и возвращает число сработавших.
// Цена запрашивается один раз на пару; алерт удаляется до отправки, поэтому уведомление уходит не более одного раза.
func (c *Checker) Check(ctx context.Context) (int, error) {
	all, err := c.store.All(ctx)
	if err != nil {
		return 0, err
	}
	prices := make(map[string]float64)
	fired := 0
	for _, a := range all {
		price, ok := prices[a.Symbol]
		if !ok {
			p, err := c.prices.Price(ctx, a.Symbol)
			if err != nil {
				logger.Warn("alarms: нет цены %s: %v", a.Symbol, err)
				prices[a.Symbol] = 0
				continue
			}
			prices[a.Symbol] = p
			price = p
		}
		if price <= 0 || !a.Triggered(price) {
			continue
		}

		deleted, err := c.store.Delete(ctx, a.ID)
		if err != nil {
			logger.Error("alarms: delete %s: %v", a.ID, err)
			continue
		}
		if !deleted {
			continue
		}
		fired++
		if err := c.notifier.AlarmTriggered(ctx, a, price); err != nil {
			logger.Error("alarms: notify user %d: %v", a.UserID, err)
		}
	}

	if c.state != nil {
		c.state.SetAlarmsActive(len(all) - fired)
		c.state.TouchCheck(time.Now())
	}
	return fired, nil
}
