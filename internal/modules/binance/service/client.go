package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"crypto_bot/internal/modules/config"
)

const apiPrefix = "/api/v3"

// ErrUnknownSymbol: монета не нашлась ни в книге символов, ни среди синонимов.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Client: публичный REST Binance: свечи, цены, 24h-статистика, список пар.
type Client struct {
	http    *http.Client
	baseURL string

	aliases map[string]string

	mu   sync.RWMutex
	book map[string]string // base(lower)/синоним -> SYMBOL
	syms map[string]struct{}
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Binance.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.Binance.RESTURL, "/"),
		aliases: cfg.Aliases,
		book:    map[string]string{},
		syms:    map[string]struct{}{},
	}
}

// get выполняет GET baseURL/api/v3/<path> и декодирует тело в out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "binance."+strings.TrimPrefix(path, "/"))
	defer span.Finish()

	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetTag("error", true)
		return errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if resp.StatusCode/100 != 2 {
		span.SetTag("error", true)
		return fmt.Errorf("binance %s: http %d: %s", path, resp.StatusCode, string(rb))
	}

	if err := sonic.Unmarshal(rb, out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
