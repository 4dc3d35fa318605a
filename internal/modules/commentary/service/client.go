package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"crypto_bot/internal/modules/config"
)

// ErrDisabled: ключ API не задан, комментарии модели выключены.
var ErrDisabled = errors.New("ai commentary disabled")

const analystRole = "Ты профессиональный криптоаналитик и трейдер. Делаешь объективные выводы на основе технического анализа и рыночных данных. Отвечай по-русски."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client: OpenAI-совместимый /chat/completions.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.OpenAI.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.OpenAI.BaseURL, "/"),
		apiKey:  cfg.OpenAI.APIKey,
		model:   cfg.OpenAI.Model,
	}
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

// Complete отправляет system+user сообщения и возвращает текст первого варианта.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "commentary.complete")
	defer span.Finish()
	span.SetTag("model", c.model)

	msgs := make([]chatMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: user})

	body, err := sonic.Marshal(chatRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", errors.Wrap(err, "encode chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "chat completions")
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read chat completions")
	}
	if resp.StatusCode/100 != 2 {
		span.SetTag("error", true)
		return "", fmt.Errorf("chat completions: http %d: %s", resp.StatusCode, string(rb))
	}

	var out chatResponse
	if err := sonic.Unmarshal(rb, &out); err != nil {
		return "", errors.Wrap(err, "decode chat completions")
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat completions: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("chat completions: empty answer")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
