package service

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"crypto_bot/pkg/logger"
)

type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// LoadSymbols перечитывает торгуемые USDT-пары и накладывает синонимы.
func (c *Client) LoadSymbols(ctx context.Context) (int, error) {
	var info exchangeInfo
	if err := c.get(ctx, "/exchangeInfo", nil, &info); err != nil {
		return 0, err
	}

	book := make(map[string]string, len(info.Symbols))
	syms := make(map[string]struct{}, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || !strings.HasSuffix(s.Symbol, quoteAsset) {
			continue
		}
		base := strings.ToLower(s.BaseAsset)
		if base == "" {
			base = strings.ToLower(strings.TrimSuffix(s.Symbol, quoteAsset))
		}
		book[base] = s.Symbol
		syms[s.Symbol] = struct{}{}
	}

	for alias, coin := range c.aliases {
		if sym, ok := book[strings.ToLower(coin)]; ok {
			book[alias] = sym
		}
	}

	c.mu.Lock()
	c.book = book
	c.syms = syms
	c.mu.Unlock()

	logger.Info("binance: загружено %d USDT-пар", len(syms))
	return len(syms), nil
}

// Resolve переводит ввод пользователя (btc, bitcoin, BTCUSDT) в торговую пару.
// Порядок: точное совпадение, частичное (префикс, затем вхождение), <COIN>USDT.
// Пока книга пуста, пробует загрузить её; если биржа недоступна: синоним или <COIN>USDT без проверки.
func (c *Client) Resolve(ctx context.Context, input string) (string, error) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return "", errors.Wrap(ErrUnknownSymbol, "empty input")
	}

	if c.bookSize() == 0 {
		if _, err := c.LoadSymbols(ctx); err != nil {
			logger.Warn("binance: книга символов недоступна: %v", err)
			return c.guess(in), nil
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if sym, ok := c.book[in]; ok {
		return sym, nil
	}
	if _, ok := c.syms[strings.ToUpper(in)]; ok {
		return strings.ToUpper(in), nil
	}
	if sym, ok := c.partial(in); ok {
		return sym, nil
	}
	if sym := strings.ToUpper(in) + quoteAsset; c.hasSymbol(sym) {
		return sym, nil
	}
	return "", errors.Wrap(ErrUnknownSymbol, input)
}

// partial: среди ключей-префиксов выигрывает самый короткий, затем среди вхождений; при равенстве: по алфавиту.
func (c *Client) partial(in string) (string, bool) {
	var prefix, contains []string
	for k := range c.book {
		switch {
		case strings.HasPrefix(k, in):
			prefix = append(prefix, k)
		case strings.Contains(k, in):
			contains = append(contains, k)
		}
	}
	for _, keys := range [][]string{prefix, contains} {
		if len(keys) == 0 {
			continue
		}
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) < len(keys[j])
			}
			return keys[i] < keys[j]
		})
		return c.book[keys[0]], true
	}
	return "", false
}

func (c *Client) guess(in string) string {
	if coin, ok := c.aliases[in]; ok {
		in = coin
	}
	up := strings.ToUpper(in)
	if strings.HasSuffix(up, quoteAsset) && len(up) > len(quoteAsset) {
		return up
	}
	return up + quoteAsset
}

func (c *Client) hasSymbol(sym string) bool {
	_, ok := c.syms[sym]
	return ok
}

func (c *Client) bookSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.syms)
}
