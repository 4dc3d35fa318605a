package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"crypto_bot/internal/helper"
	"crypto_bot/internal/models"
	binance "crypto_bot/internal/modules/binance/service"
	"crypto_bot/internal/modules/config"
	sentiment "crypto_bot/internal/modules/sentiment/service"
	"crypto_bot/internal/ta"
	"crypto_bot/pkg/logger"
)

type options struct {
	configPath string
	json       bool
	logLevel   string

	cfg    *config.Config
	market *binance.Client
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "ta",
		Short:        "Технический анализ пар Binance из терминала",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := logger.Init(opts.logLevel, false); err != nil {
				return err
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.market = binance.NewClient(cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", filepath.Join("configs", "values_local.yaml"), "путь к yaml-конфигу")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "вывод в JSON")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "уровень логов")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newMultiCmd(opts),
		newSignalsCmd(opts),
		newBreakoutCmd(opts),
		newFearCmd(opts),
	)
	return root
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var tf string
	cmd := &cobra.Command{
		Use:   "analyze COIN",
		Short: "Анализ одного таймфрейма",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval := helper.NormTF(tf)
			if interval == "" {
				return errors.Errorf("unsupported timeframe %q, want one of %s", tf, strings.Join(helper.Timeframes, ", "))
			}
			symbol, err := opts.market.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			series, err := opts.market.Candles(cmd.Context(), symbol, interval, ta.LimitFor(interval))
			if err != nil {
				return err
			}
			res := ta.Analyze(symbol, interval, series)
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), summarize(res))
			}
			return writeAnalysis(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&tf, "tf", "t", "1d", "таймфрейм: 1h, 4h, 1d, 1w")
	return cmd
}

func newMultiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "multi COIN",
		Short: "Анализ по 1h, 4h, 1d и 1w",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, err := opts.market.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			multi, err := ta.MultiTimeframe(cmd.Context(), opts.market, symbol, ta.DefaultFrames)
			if err != nil {
				return err
			}
			if opts.json {
				out := multiSummary{Symbol: multi.Symbol, Average: multi.Average(), Missing: multi.Missing}
				for _, fr := range multi.Frames {
					out.Frames = append(out.Frames, summarize(fr.Result))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "TF\tSCORE\tREC\tTREND\tSTATUS\n")
			for _, fr := range multi.Frames {
				r := fr.Result
				fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\t%s\n", fr.Frame.Interval, r.Score.Value, r.Score.Recommendation, r.Indicators.Trend.Direction, r.Status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\naverage: %.1f\n", multi.Average())
			if len(multi.Missing) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "missing: %s\n", strings.Join(multi.Missing, ", "))
			}
			return nil
		},
	}
}

func newSignalsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "signals COIN",
		Short: "Сводка сигналов 1h/4h/1d",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, err := opts.market.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sum, err := ta.CollectSignals(cmd.Context(), opts.market, symbol, ta.SignalFrames)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), sum)
			}
			if err := writeSignals(cmd.OutOrStdout(), sum.Signals); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nbullish: %d  bearish: %d\n", sum.Bullish, sum.Bearish)
			return nil
		},
	}
}

func newBreakoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "breakout",
		Short: "Скан кандидатов на пробой",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			symbols := make([]string, 0, len(ta.BreakoutCandidates))
			for _, coin := range ta.BreakoutCandidates {
				symbols = append(symbols, coin+"USDT")
			}
			list, err := ta.ScanBreakouts(cmd.Context(), opts.market, symbols)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), list)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "SYMBOL\tSCORE\tPROB\tTARGET\tR/R\tREASONS\n")
			for _, r := range list {
				fmt.Fprintf(w, "%s\t%.1f\t%d%%\t%.1f%%\t%.1f\t%s\n", r.Symbol, r.Score, r.Probability, r.TargetPct, r.RiskReward, strings.Join(r.Reasons, "; "))
			}
			return w.Flush()
		},
	}
}

func newFearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fear",
		Short: "Индекс страха и жадности",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := sentiment.NewClient(opts.cfg).FearGreed(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), idx)
			}
			emoji, comment, _ := sentiment.Mood(idx.Current.Value)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d/100 %s\n%s\n", emoji, idx.Current.Value, idx.Current.Classification, comment)
			if diff, ok := idx.WeekChange(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "week: %+d\n", diff)
			}
			return nil
		},
	}
}

// summary: результат анализа без сырых серий: в сериях NaN, JSON их не принимает.
type summary struct {
	Symbol         string               `json:"symbol"`
	Timeframe      string               `json:"timeframe"`
	Price          float64              `json:"price"`
	Status         models.Status        `json:"status"`
	Score          float64              `json:"score"`
	Recommendation string               `json:"recommendation"`
	Trend          models.Trend         `json:"trend"`
	Risk           models.Risk          `json:"risk"`
	RSI            *float64             `json:"rsi,omitempty"`
	Signals        []models.Signal      `json:"signals"`
	Plan           models.EntryExitPlan `json:"plan"`
	Fibonacci      []models.FibLevel    `json:"fibonacci,omitempty"`
	Faults         []models.Fault       `json:"faults,omitempty"`
}

type multiSummary struct {
	Symbol  string    `json:"symbol"`
	Average float64   `json:"average"`
	Frames  []summary `json:"frames"`
	Missing []string  `json:"missing,omitempty"`
}

func summarize(res models.AnalysisResult) summary {
	s := summary{
		Symbol:         res.Symbol,
		Timeframe:      res.Timeframe,
		Price:          res.Price,
		Status:         res.Status,
		Score:          res.Score.Value,
		Recommendation: res.Score.Recommendation,
		Trend:          res.Indicators.Trend,
		Risk:           res.Indicators.Risk,
		Signals:        res.Signals,
		Plan:           res.Plan,
		Fibonacci:      res.Indicators.Fibonacci,
		Faults:         res.Faults,
	}
	if v, ok := models.LastValue(res.Indicators.RSI); ok {
		s.RSI = &v
	}
	if s.Signals == nil {
		s.Signals = []models.Signal{}
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode json")
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeAnalysis(out io.Writer, res models.AnalysisResult) error {
	fmt.Fprintf(out, "%s %s  price %.8g  status %s\n", res.Symbol, res.Timeframe, res.Price, res.Status)
	fmt.Fprintf(out, "score %.1f/10  %s\n", res.Score.Value, res.Score.Recommendation)
	fmt.Fprintf(out, "trend %s (%d/10)  risk %d/10\n", res.Indicators.Trend.Direction, res.Indicators.Trend.Score, res.Indicators.Risk.Level)
	if v, ok := models.LastValue(res.Indicators.RSI); ok {
		fmt.Fprintf(out, "rsi %.1f\n", v)
	}

	if len(res.Signals) > 0 {
		fmt.Fprintln(out)
		if err := writeSignals(out, res.Signals); err != nil {
			return err
		}
	}

	p := res.Plan
	fmt.Fprintf(out, "\nplan %s confidence %d", p.Action, p.Confidence)
	if p.Action != models.SideHold {
		fmt.Fprintf(out, "  stop %.8g  take %.8g  r/r %.2f", p.StopLoss, p.TakeProfit, p.RiskReward)
	}
	fmt.Fprintln(out)
	for _, f := range res.Faults {
		fmt.Fprintf(out, "fault %s: %s\n", f.Indicator, f.Err)
	}
	return nil
}

func writeSignals(out io.Writer, signals []models.Signal) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "SIDE\tINDICATOR\tSTRENGTH\tCONF\tTF\tREASON\n")
	for _, s := range signals {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", s.Type, s.Indicator, s.Strength, s.Confidence, s.Timeframe, s.Reason)
	}
	return w.Flush()
}
