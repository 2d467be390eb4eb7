// Package oraclelink assembles the trading assistant: a market data feeder,
// a strategy, the paper trading engine, trade persistence and Telegram
// notifications, all driven by one configuration file.
package oraclelink

import (
	"context"
	"fmt"
	"time"

	"github.com/oraclelink/oraclelink/config"
	"github.com/oraclelink/oraclelink/core"
	"github.com/oraclelink/oraclelink/exchange"
	"github.com/oraclelink/oraclelink/journal"
	"github.com/oraclelink/oraclelink/notification"
	"github.com/oraclelink/oraclelink/paper"
	"github.com/oraclelink/oraclelink/strategy"
)

// Bot wires the application components together and runs the live paper
// trading loop
type Bot struct {
	cfg      *config.Config
	log      core.Logger
	feeder   core.Feeder
	strategy core.Strategy

	portfolio *paper.Portfolio
	trader    *paper.Trader
	journal   journal.Journal
	telegram  *notification.Telegram
	notifier  core.Notifier
}

// Option overrides a default component
type Option func(*Bot)

// WithLogger replaces the default logger
func WithLogger(log core.Logger) Option {
	return func(b *Bot) {
		b.log = log
	}
}

// WithFeeder replaces the Binance feeder, e.g. with a CSV feed
func WithFeeder(feeder core.Feeder) Option {
	return func(b *Bot) {
		b.feeder = feeder
	}
}

// WithJournal replaces the configured journal backend. Required for SQL
// journals, whose dialector cannot come from the config file.
func WithJournal(j journal.Journal) Option {
	return func(b *Bot) {
		b.journal = j
	}
}

// WithExtraNotifier adds a notifier alongside Telegram
func WithExtraNotifier(notifier core.Notifier) Option {
	return func(b *Bot) {
		b.notifier = notifier
	}
}

// NewBot builds a bot from configuration. The strategy decides the traded
// timeframe; everything else comes from cfg or the options.
func NewBot(cfg *config.Config, strat core.Strategy, options ...Option) (*Bot, error) {
	bot := &Bot{
		cfg:      cfg,
		log:      DefaultLog,
		strategy: strat,
	}

	for _, option := range options {
		option(bot)
	}

	if bot.feeder == nil {
		feederOpts := []exchange.BinanceOption{
			exchange.WithBinanceLogger(bot.log),
			exchange.WithBinanceCredentials(cfg.Exchange.APIKey, cfg.Exchange.APISecret),
		}
		if cfg.Exchange.Testnet {
			feederOpts = append(feederOpts, exchange.WithBinanceTestnet())
		}
		bot.feeder = exchange.NewBinance(feederOpts...)
	}

	portfolio, err := paper.NewPortfolio(cfg.Account.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("creating portfolio: %w", err)
	}
	bot.portfolio = portfolio

	if err := bot.initJournal(); err != nil {
		return nil, err
	}
	if err := bot.initTelegram(); err != nil {
		return nil, err
	}

	notifier := newDispatcher(bot.journal, bot.log, bot.telegramNotifier(), bot.notifier)

	traderOpts, err := traderOptions(cfg, bot.log, notifier)
	if err != nil {
		return nil, err
	}
	bot.trader = paper.NewTrader(portfolio, strat, bot.feeder, cfg.Trading.Symbol, traderOpts...)

	return bot, nil
}

func (b *Bot) initJournal() error {
	if b.journal != nil {
		return nil
	}

	switch b.cfg.Journal.Type {
	case "":
		return nil
	case "buntdb":
		j, err := journal.NewBuntJournal(b.cfg.Journal.Path)
		if err != nil {
			return err
		}
		b.journal = j
		return nil
	case "sql":
		return fmt.Errorf("sql journal requires the WithJournal option to supply a dialector")
	default:
		return fmt.Errorf("unknown journal type %q", b.cfg.Journal.Type)
	}
}

func (b *Bot) initTelegram() error {
	if !b.cfg.Telegram.Enabled {
		return nil
	}

	telegram, err := notification.NewTelegram(
		notification.TelegramSettings{
			Token: b.cfg.Telegram.Token,
			Users: b.cfg.Telegram.Users,
		},
		b.feeder,
		func(timeframe string) core.Strategy {
			return strategy.NewShadowsTrendingTouch(timeframe)
		},
		b.log,
		notification.WithAccountViewer(b.portfolio),
	)
	if err != nil {
		return fmt.Errorf("creating telegram notifier: %w", err)
	}

	b.telegram = telegram
	return nil
}

func (b *Bot) telegramNotifier() core.Notifier {
	if b.telegram == nil {
		return nil
	}
	return b.telegram
}

// traderOptions converts the trading config section into engine options
func traderOptions(cfg *config.Config, log core.Logger, notifier core.Notifier) ([]paper.Option, error) {
	opts := []paper.Option{
		paper.WithLogger(log),
		paper.WithNotifier(notifier),
		paper.WithFee(cfg.Trading.FeeRate),
		paper.WithSlippage(cfg.Trading.Slippage),
		paper.WithMinSize(cfg.Trading.MinOrderSize),
	}

	if cfg.Trading.Window > 0 {
		opts = append(opts, paper.WithWindow(cfg.Trading.Window))
	}
	if cfg.Trading.ConfidenceSizing {
		opts = append(opts, paper.WithConfidenceSizing())
	}
	if cfg.Trading.RiskPerPosition > 0 {
		opts = append(opts,
			paper.WithRiskPerPosition(cfg.Trading.RiskPerPosition),
			paper.WithLeverage(cfg.Trading.Leverage),
		)
	}

	if cfg.Trading.Cooldown != "" {
		cooldown, err := time.ParseDuration(cfg.Trading.Cooldown)
		if err != nil {
			return nil, fmt.Errorf("parsing trading.cooldown: %w", err)
		}
		opts = append(opts, paper.WithCooldown(cooldown))
	}

	priority, err := parseExitPriority(cfg.Trading.ExitPriority)
	if err != nil {
		return nil, err
	}
	opts = append(opts, paper.WithExitPriority(priority))

	return opts, nil
}

func parseExitPriority(value string) (paper.ExitPriority, error) {
	switch value {
	case "", string(paper.ExitTakeProfitPriority):
		return paper.ExitTakeProfitPriority, nil
	case string(paper.ExitStopLossPriority):
		return paper.ExitStopLossPriority, nil
	case string(paper.ExitWorstCase):
		return paper.ExitWorstCase, nil
	default:
		return "", fmt.Errorf("unknown exit priority %q", value)
	}
}

// Portfolio exposes the paper account for reporting
func (b *Bot) Portfolio() *paper.Portfolio {
	return b.portfolio
}

// Run starts Telegram polling, if configured, and blocks in the live trading
// loop until the context is canceled
func (b *Bot) Run(ctx context.Context) error {
	if b.telegram != nil {
		b.telegram.Start()
	}

	defer func() {
		if b.journal != nil {
			if err := b.journal.Close(); err != nil {
				b.log.WithError(err).Error("closing journal")
			}
		}
	}()

	b.log.Infof("oraclelink starting on %s %s", b.cfg.Trading.Symbol, b.strategy.Timeframe())
	return b.trader.Run(ctx)
}

// Summary builds performance statistics over the closed trades so far
func (b *Bot) Summary() paper.Summary {
	return paper.NewSummary(b.cfg.Trading.Symbol, b.portfolio.TradeRecords())
}
