// Package notification delivers user-facing events. The Telegram notifier
// also hosts the watchlist commands that drive scheduled signal evaluation.
package notification

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/StudioSol/set"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/oraclelink/oraclelink/core"
	"github.com/oraclelink/oraclelink/exchange"
	"github.com/oraclelink/oraclelink/paper"
)

const pollingTimeout = 10 * time.Second

// timeframes accepted by /add
var validTimeframes = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w"}

// evaluation window requested from the feeder on every scheduled run
const watchCandleCount = 120

// StrategyFactory builds a fresh strategy instance for a watch entry.
// Stateful strategies must not be shared between symbols, hence a factory
// instead of a single instance.
type StrategyFactory func(timeframe string) core.Strategy

// AccountViewer exposes read-only portfolio state for status commands
type AccountViewer interface {
	Snapshot() paper.Snapshot
}

// TelegramSettings holds bot credentials and the authorized user ids
type TelegramSettings struct {
	Token string
	Users []int
}

// Telegram implements core.NotifierWithStart over a Telegram bot. Incoming
// messages from users outside the authorized list are dropped before they
// reach any handler.
type Telegram struct {
	settings    TelegramSettings
	client      *tb.Bot
	defaultMenu *tb.ReplyMarkup
	log         core.Logger

	feeder   core.Feeder
	newStrat StrategyFactory
	account  AccountViewer

	mu        sync.Mutex
	watchlist *set.LinkedHashSetString
	watchers  map[string]context.CancelFunc
}

// Option configures a Telegram instance
type Option func(*Telegram)

// WithAccountViewer wires the portfolio shown by /status and /profit
func WithAccountViewer(viewer AccountViewer) Option {
	return func(t *Telegram) {
		t.account = viewer
	}
}

// NewTelegram creates and initializes the Telegram service
func NewTelegram(settings TelegramSettings, feeder core.Feeder, factory StrategyFactory, log core.Logger, options ...Option) (*Telegram, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: pollingTimeout}

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Token,
		Poller:    newAuthMiddleware(poller, settings, log),
	})
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("setting telegram commands: %w", err)
	}

	bot := &Telegram{
		settings:    settings,
		client:      client,
		defaultMenu: menu,
		log:         log,
		feeder:      feeder,
		newStrat:    factory,
		watchlist:   set.NewLinkedHashSetString(),
		watchers:    make(map[string]context.CancelFunc),
	}

	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)
	return bot, nil
}

// newAuthMiddleware drops updates from users outside the authorized list
func newAuthMiddleware(poller *tb.LongPoller, settings TelegramSettings, log core.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if slices.Contains(settings.Users, int(u.Message.Sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		statusBtn = menu.Text("/status")
		profitBtn = menu.Text("/profit")
		listBtn   = menu.Text("/list")
		startBtn  = menu.Text("/start")
		stopBtn   = menu.Text("/stop")
	)

	menu.Reply(
		menu.Row(statusBtn, profitBtn, listBtn),
		menu.Row(startBtn, stopBtn),
	)
}

func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/start", Description: "Start watching the watchlist"},
		{Text: "/stop", Description: "Stop watching"},
		{Text: "/add", Description: "Add a symbol: /add BTCUSDT 15m"},
		{Text: "/rmv", Description: "Remove a symbol: /rmv BTCUSDT 15m"},
		{Text: "/list", Description: "Show the watchlist"},
		{Text: "/price", Description: "Quote a symbol: /price BTCUSDT"},
		{Text: "/clear", Description: "Clear the watchlist"},
		{Text: "/status", Description: "Paper account status"},
		{Text: "/profit", Description: "Summary of closed trades"},
	})
}

func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/start", bot.StartHandle)
	client.Handle("/stop", bot.StopHandle)
	client.Handle("/add", bot.AddHandle)
	client.Handle("/rmv", bot.RemoveHandle)
	client.Handle("/list", bot.ListHandle)
	client.Handle("/price", bot.PriceHandle)
	client.Handle("/clear", bot.ClearHandle)
	client.Handle("/status", bot.StatusHandle)
	client.Handle("/profit", bot.ProfitHandle)
}

// Start begins polling for commands and greets the authorized users
func (t *Telegram) Start() {
	go t.client.Start()
	t.sendToAll("Bot initialized.", t.defaultMenu)
}

// ---------------------
// Notifier interface
// ---------------------

// Notify sends a message to all authorized users
func (t *Telegram) Notify(text string) {
	t.sendToAll(text)
}

// OnTrade reports a closed trade
func (t *Telegram) OnTrade(record core.TradeRecord) {
	var builder strings.Builder
	outcome := "profit"
	if record.PnL < 0 {
		outcome = "loss"
	}

	fmt.Fprintf(&builder, "*Trade closed* (%s)\n", outcome)
	fmt.Fprintf(&builder, "Symbol: `%s`\n", record.Symbol)
	fmt.Fprintf(&builder, "Side: `%s`\n", record.Side)
	fmt.Fprintf(&builder, "Quantity: `%f`\n", record.Quantity)
	fmt.Fprintf(&builder, "Entry: `%f` Exit: `%f`\n", record.EntryPrice, record.ExitPrice)
	fmt.Fprintf(&builder, "PnL: `%f` (%.2f%%)", record.PnL, record.Return()*100)

	t.sendToAll(builder.String())
}

// OnError reports an engine error
func (t *Telegram) OnError(err error) {
	t.sendToAll(fmt.Sprintf("🚨 *ERROR*\n`%v`", err))
}

func (t *Telegram) sendToAll(text string, options ...any) {
	for _, user := range t.settings.Users {
		if _, err := t.client.Send(&tb.User{ID: int64(user)}, text, options...); err != nil {
			t.log.WithError(err).Error("failed to send notification")
		}
	}
}

func (t *Telegram) sendTo(to *tb.User, text string, options ...any) {
	if _, err := t.client.Send(to, text, options...); err != nil {
		t.log.WithError(err).Error("failed to send message")
	}
}

// ---------------------
// Watchlist commands
// ---------------------

func watchKey(symbol, timeframe string) string {
	return symbol + " " + timeframe
}

// AddHandle adds a symbol and timeframe to the watchlist
func (t *Telegram) AddHandle(m *tb.Message) {
	symbol, timeframe, ok := parseWatchArgs(m.Payload)
	if !ok {
		t.sendTo(m.Sender, "Usage: `/add <symbol> <timeframe>`")
		return
	}

	if !slices.Contains(validTimeframes, timeframe) {
		t.sendTo(m.Sender, fmt.Sprintf("Invalid timeframe. Valid options: %s",
			strings.Join(validTimeframes, ", ")))
		return
	}

	key := watchKey(symbol, timeframe)

	t.mu.Lock()
	exists := t.watchlist.InArray(key)
	if !exists {
		t.watchlist.Add(key)
	}
	watching := len(t.watchers) > 0
	t.mu.Unlock()

	if exists {
		t.sendTo(m.Sender, fmt.Sprintf("⚠️ %s already exists with timeframe %s", symbol, timeframe))
		return
	}

	if watching {
		t.startWatcher(key, symbol, timeframe)
	}
	t.sendTo(m.Sender, fmt.Sprintf("✅ Added %s (%s) to watchlist", symbol, timeframe))
}

// RemoveHandle removes a symbol and timeframe from the watchlist
func (t *Telegram) RemoveHandle(m *tb.Message) {
	symbol, timeframe, ok := parseWatchArgs(m.Payload)
	if !ok {
		t.sendTo(m.Sender, "Usage: `/rmv <symbol> <timeframe>`")
		return
	}

	key := watchKey(symbol, timeframe)

	t.mu.Lock()
	exists := t.watchlist.InArray(key)
	if exists {
		t.watchlist.Remove(key)
		if cancel, running := t.watchers[key]; running {
			cancel()
			delete(t.watchers, key)
		}
	}
	t.mu.Unlock()

	if !exists {
		t.sendTo(m.Sender, fmt.Sprintf("❌ %s with timeframe %s not found in watchlist", symbol, timeframe))
		return
	}
	t.sendTo(m.Sender, fmt.Sprintf("✅ Removed %s (%s) from watchlist", symbol, timeframe))
}

// ListHandle shows the watchlist sorted by symbol and timeframe
func (t *Telegram) ListHandle(m *tb.Message) {
	entries := t.watchEntries()
	if len(entries) == 0 {
		t.sendTo(m.Sender, "Watchlist is empty")
		return
	}

	sort.Strings(entries)

	var builder strings.Builder
	builder.WriteString("*🔍 Watchlist*\n\n```\n")
	builder.WriteString("Symbol    Timeframe\n")
	builder.WriteString(strings.Repeat("─", 20) + "\n")
	for _, entry := range entries {
		symbol, timeframe, _ := strings.Cut(entry, " ")
		fmt.Fprintf(&builder, "%-9s %s\n", symbol, timeframe)
	}
	builder.WriteString("```")

	t.sendTo(m.Sender, builder.String())
}

// ClearHandle empties the watchlist and stops its watchers
func (t *Telegram) ClearHandle(m *tb.Message) {
	t.mu.Lock()
	t.watchlist = set.NewLinkedHashSetString()
	for key, cancel := range t.watchers {
		cancel()
		delete(t.watchers, key)
	}
	t.mu.Unlock()

	t.sendTo(m.Sender, "Watchlist cleared.")
}

// StartHandle starts a watcher for every watchlist entry
func (t *Telegram) StartHandle(m *tb.Message) {
	entries := t.watchEntries()
	if len(entries) == 0 {
		t.sendTo(m.Sender, "🚀 Crypto trading bot at your service!\nWatchlist is empty.", t.defaultMenu)
		return
	}

	for _, entry := range entries {
		symbol, timeframe, _ := strings.Cut(entry, " ")
		t.startWatcher(entry, symbol, timeframe)
	}

	t.sendTo(m.Sender, "🚀 Started watching...", t.defaultMenu)
}

// StopHandle stops every running watcher, keeping the watchlist itself
func (t *Telegram) StopHandle(m *tb.Message) {
	t.mu.Lock()
	for key, cancel := range t.watchers {
		cancel()
		delete(t.watchers, key)
	}
	t.mu.Unlock()

	t.sendTo(m.Sender, "Stopped watching.", t.defaultMenu)
}

// PriceHandle quotes the most recent traded price of a symbol
func (t *Telegram) PriceHandle(m *tb.Message) {
	t.sendTo(m.Sender, priceReply(context.Background(), t.feeder, m.Payload))
}

func priceReply(ctx context.Context, feeder core.Feeder, payload string) string {
	fields := strings.Fields(payload)
	if len(fields) != 1 {
		return "Usage: `/price <symbol>`"
	}
	symbol := strings.ToUpper(fields[0])

	quote, err := feeder.LastQuote(ctx, symbol)
	if err != nil {
		return fmt.Sprintf("Failed to fetch %s: `%v`", symbol, err)
	}
	return fmt.Sprintf("`%s` last price: `%f`", symbol, quote)
}

// StatusHandle shows the paper account state
func (t *Telegram) StatusHandle(m *tb.Message) {
	if t.account == nil {
		t.sendTo(m.Sender, "No paper account attached.")
		return
	}

	snapshot := t.account.Snapshot()

	var builder strings.Builder
	fmt.Fprintf(&builder, "*Balance*: `%f`\n", snapshot.Balance)
	fmt.Fprintf(&builder, "*Fees paid*: `%f`\n", snapshot.FeesPaid)
	fmt.Fprintf(&builder, "*Open positions*: `%d`\n", len(snapshot.Positions))
	for _, pos := range snapshot.Positions {
		fmt.Fprintf(&builder, "`%s`\n", pos)
	}

	t.sendTo(m.Sender, builder.String())
}

// ProfitHandle shows a summary of closed trades
func (t *Telegram) ProfitHandle(m *tb.Message) {
	if t.account == nil {
		t.sendTo(m.Sender, "No paper account attached.")
		return
	}

	records := t.account.Snapshot().TradeRecords
	if len(records) == 0 {
		t.sendTo(m.Sender, "No trades registered.")
		return
	}

	summary := paper.NewSummary("", records)
	t.sendTo(m.Sender, fmt.Sprintf("```\n%s```", summary))
}

// HelpHandle displays the available commands
func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("failed to get commands")
		t.OnError(err)
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("%s - %s", command.Text, command.Description))
	}
	t.sendTo(m.Sender, strings.Join(lines, "\n"))
}

// ---------------------
// Scheduled evaluation
// ---------------------

// startWatcher launches a goroutine that evaluates the strategy for one
// watch entry on every interval boundary and reports non-neutral signals
func (t *Telegram) startWatcher(key, symbol, timeframe string) {
	t.mu.Lock()
	if _, running := t.watchers[key]; running {
		t.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.watchers[key] = cancel
	t.mu.Unlock()

	go t.watch(ctx, symbol, timeframe)
}

func (t *Telegram) watch(ctx context.Context, symbol, timeframe string) {
	interval, err := exchange.ParseInterval(timeframe)
	if err != nil {
		t.OnError(err)
		return
	}

	// align the first run with the next candle close
	next, err := exchange.NextBoundary(time.Now(), timeframe)
	if err != nil {
		t.OnError(err)
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Until(next)):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		t.evaluateWatch(ctx, symbol, timeframe)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Telegram) evaluateWatch(ctx context.Context, symbol, timeframe string) {
	candles, err := t.feeder.CandlesByLimit(ctx, symbol, timeframe, watchCandleCount)
	if err != nil {
		t.log.WithError(err).Errorf("watch %s %s: fetch failed", symbol, timeframe)
		return
	}

	strat := t.newStrat(timeframe)
	df := core.NewDataframe(symbol, candles)
	if df.Len() < strat.WarmupPeriod() {
		return
	}

	advice := strat.Evaluate(df)
	if advice.Neutral() {
		return
	}

	direction := "📈 LONG"
	if advice.Confidence < 0 {
		direction = "📉 SHORT"
	}
	t.sendToAll(fmt.Sprintf("%s signal on `%s` (%s), confidence %.2f",
		direction, symbol, timeframe, advice.Confidence))
}

func (t *Telegram) watchEntries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]string, 0, t.watchlist.Length())
	for entry := range t.watchlist.Iter() {
		entries = append(entries, entry)
	}
	return entries
}

func parseWatchArgs(payload string) (symbol, timeframe string, ok bool) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return "", "", false
	}
	return strings.ToUpper(fields[0]), strings.ToLower(fields[1]), true
}
