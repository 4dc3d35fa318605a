package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crypto_bot/internal/models"
	commentary "crypto_bot/internal/modules/commentary/service"
	"crypto_bot/internal/modules/config"
	health "crypto_bot/internal/modules/health/service"
	sentiment "crypto_bot/internal/modules/sentiment/service"
	"crypto_bot/internal/ta"
	"crypto_bot/pkg/logger"
)

// Market: данные биржи, нужные командам.
type Market interface {
	ta.SeriesSource
	Resolve(ctx context.Context, input string) (string, error)
	Stats24h(ctx context.Context, symbol string) (models.Ticker24h, error)
	TopByVolume(ctx context.Context, n int) ([]models.Ticker24h, error)
}

type Sentiment interface {
	FearGreed(ctx context.Context) (sentiment.Index, error)
}

type Commentator interface {
	Enabled() bool
	Predict(ctx context.Context, snap commentary.Snapshot, days int) (string, error)
	Comment(ctx context.Context, res models.AnalysisResult) (string, error)
}

type Alarms interface {
	Add(ctx context.Context, userID, chatID int64, symbol string, target float64) (models.Alarm, float64, error)
	List(ctx context.Context, userID int64) ([]models.Alarm, error)
	Stop(ctx context.Context, userID int64, symbol string) (int, error)
	Price(ctx context.Context, symbol string) (float64, error)
	MaxPerUser() int
}

// commandTimeout: потолок на одну команду, включая походы в биржу и модель.
const commandTimeout = 90 * time.Second

// Telegram
type Telegram struct {
	bot *tgbot.BotAPI
	cfg *config.Config

	market Market
	fng    Sentiment
	ai     Commentator
	alarms Alarms
	state  *health.State

	cooldown *cooldown

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewTelegram(
	cfg *config.Config,
	market Market,
	fng Sentiment,
	ai Commentator,
	al Alarms,
	state *health.State,
) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	b.Debug = cfg.Telegram.Debug
	return newTelegram(b, cfg, market, fng, ai, al, state), nil
}

func newTelegram(b *tgbot.BotAPI, cfg *config.Config, market Market, fng Sentiment, ai Commentator, al Alarms, state *health.State) *Telegram {
	return &Telegram{
		bot:      b,
		cfg:      cfg,
		market:   market,
		fng:      fng,
		ai:       ai,
		alarms:   al,
		state:    state,
		cooldown: newCooldown(cfg.Telegram.Cooldown),
	}
}

func (t *Telegram) SendMessage(_ context.Context, message tgbot.MessageConfig) (tgbot.Message, error) {
	return t.bot.Send(message)
}

// SendMarkdown отправляет текст с разметкой Markdown.
func (t *Telegram) SendMarkdown(ctx context.Context, chatID int64, text string) {
	msg := tgbot.NewMessage(chatID, text)
	msg.ParseMode = tgbot.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := t.SendMessage(ctx, msg); err != nil {
		logger.Error("send to %d: %v", chatID, err)
	}
}

func (t *Telegram) editReplyMarkupRemove(chatID int64, msgID int) error {
	rm := tgbot.InlineKeyboardMarkup{InlineKeyboard: [][]tgbot.InlineKeyboardButton{}}
	edit := tgbot.NewEditMessageReplyMarkup(chatID, msgID, rm)
	_, err := t.bot.Request(edit)
	return err
}

// AlarmTriggered: уведомление о сработавшем алерте.
func (t *Telegram) AlarmTriggered(ctx context.Context, a models.Alarm, price float64) error {
	msg := tgbot.NewMessage(a.ChatID, formatAlarmTriggered(a, price))
	msg.ParseMode = tgbot.ModeMarkdown
	_, err := t.SendMessage(ctx, msg)
	return err
}

// Start запускает чтение апдейтов в фоне.
func (t *Telegram) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	if t.state != nil {
		t.state.SetReady(true)
	}
	logger.Info("telegram: бот @%s запущен", t.bot.Self.UserName)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for update := range updates {
			t.wg.Add(1)
			go func(update tgbot.Update) {
				defer t.wg.Done()
				t.handleUpdate(runCtx, update)
			}(update)
		}
	}()
	return nil
}

func (t *Telegram) Stop() {
	if t.state != nil {
		t.state.SetReady(false)
	}
	t.bot.StopReceivingUpdates()
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	logger.Info("telegram: бот остановлен")
}
