package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"crypto_bot/internal/models"
	"crypto_bot/internal/modules/config"
	health "crypto_bot/internal/modules/health/service"
	"crypto_bot/pkg/logger"
)

const (
	// PriceTTL: дольше этого цена из кэша считается устаревшей.
	PriceTTL = 2 * time.Minute

	readTimeout = 90 * time.Second
	maxBackoff  = 30 * time.Second
)

// miniTicker: элемент массива из потока !miniTicker@arr.
type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// Stream держит websocket !miniTicker@arr и кэш последних цен по всем парам.
type Stream struct {
	url    string
	dialer *websocket.Dialer
	state  *health.State

	mu     sync.RWMutex
	prices map[string]models.PriceTick

	now func() time.Time
}

func NewStream(cfg *config.Config, state *health.State) *Stream {
	return &Stream{
		url:    cfg.Binance.WSURL,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:  state,
		prices: make(map[string]models.PriceTick),
		now:    time.Now,
	}
}

// Price: свежая цена из кэша; false, если пары нет или цена старше PriceTTL.
func (s *Stream) Price(symbol string) (float64, bool) {
	s.mu.RLock()
	tick, ok := s.prices[strings.ToUpper(symbol)]
	s.mu.RUnlock()
	if !ok || s.now().Sub(tick.Time) > PriceTTL {
		return 0, false
	}
	return tick.Price, true
}

func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prices)
}

// Run переподключается с экспоненциальной паузой, пока не отменён ctx.
func (s *Stream) Run(ctx context.Context) {
	backoff := time.Second
	for {
		err := s.session(ctx)
		s.setConnected(false)
		if ctx.Err() != nil {
			logger.Info("binance ws: остановлен")
			return
		}
		logger.Warn("binance ws: соединение потеряно: %v, повтор через %s", err, backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *Stream) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// закрываем сокет при отмене, чтобы разблокировать ReadMessage
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	logger.Info("binance ws: подключено к %s", s.url)
	s.setConnected(true)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if n := s.apply(msg); n > 0 && s.state != nil {
			s.state.TouchTick(s.now())
			s.state.SetPricesCached(s.Len())
		}
	}
}

// apply разбирает кадр и обновляет кэш; возвращает число принятых тиков.
func (s *Stream) apply(msg []byte) int {
	var frame []miniTicker
	if err := sonic.Unmarshal(msg, &frame); err != nil {
		logger.Debug("binance ws: кадр пропущен: %v", err)
		return 0
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range frame {
		p, err := strconv.ParseFloat(t.Close, 64)
		if err != nil || p <= 0 || t.Symbol == "" {
			continue
		}
		// свежесть считаем по часам процесса, а не по E из кадра
		s.prices[t.Symbol] = models.PriceTick{Symbol: t.Symbol, Price: p, Time: now}
		n++
	}
	return n
}

func (s *Stream) setConnected(v bool) {
	if s.state != nil {
		s.state.SetWSConnected(v)
	}
}
