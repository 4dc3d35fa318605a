package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"crypto_bot/internal/models"
	"crypto_bot/internal/modules/config"
)

const weekDays = 7

// Index: текущее значение индекса страха и жадности и история за неделю (новые первыми).
type Index struct {
	Current models.FearGreed
	History []models.FearGreed
}

// WeekChange: разница с точкой недельной давности; false, если истории меньше недели.
func (i Index) WeekChange() (int, bool) {
	if len(i.History) < weekDays {
		return 0, false
	}
	return i.Current.Value - i.History[weekDays-1].Value, true
}

// Mood: эмодзи, комментарий и подсказка по значению индекса.
func Mood(value int) (emoji, comment, hint string) {
	switch {
	case value >= 75:
		return "🤑", "Экстремальная жадность! Будь осторожен!", "Возможно, время фиксировать прибыль"
	case value >= 55:
		return "😊", "На рынке преобладает жадность", "Следи за размером позиции"
	case value >= 45:
		return "😐", "Нейтрально", "Жди и наблюдай"
	case value >= 25:
		return "😰", "На рынке страх", "Можно набирать позицию частями"
	default:
		return "😱", "Экстремальный страх! Рынок может дать шанс", "Сильная зона для покупок (только рисковым капиталом)"
	}
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
}

type Client struct {
	http *http.Client
	url  string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		url:  cfg.FearGreed.URL,
	}
}

func (c *Client) FearGreed(ctx context.Context) (Index, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sentiment.fear_greed")
	defer span.Finish()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Index{}, errors.Wrap(err, "build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Index{}, errors.Wrap(err, "fear&greed")
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return Index{}, errors.Wrap(err, "read fear&greed")
	}
	if resp.StatusCode/100 != 2 {
		return Index{}, fmt.Errorf("fear&greed: http %d: %s", resp.StatusCode, string(rb))
	}

	var data fngResponse
	if err := sonic.Unmarshal(rb, &data); err != nil {
		return Index{}, errors.Wrap(err, "decode fear&greed")
	}
	if len(data.Data) == 0 {
		return Index{}, errors.New("fear&greed: empty data")
	}

	out := Index{History: make([]models.FearGreed, 0, len(data.Data))}
	for _, d := range data.Data {
		v, err := strconv.Atoi(d.Value)
		if err != nil {
			return Index{}, errors.Wrapf(err, "fear&greed value %q", d.Value)
		}
		var ts time.Time
		if sec, err := strconv.ParseInt(d.Timestamp, 10, 64); err == nil {
			ts = time.Unix(sec, 0).UTC()
		}
		out.History = append(out.History, models.FearGreed{Value: v, Classification: d.Classification, Time: ts})
	}
	out.Current = out.History[0]
	return out, nil
}
