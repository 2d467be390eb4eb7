package oraclelink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclelink/oraclelink/config"
	"github.com/oraclelink/oraclelink/core"
	"github.com/oraclelink/oraclelink/journal"
	"github.com/oraclelink/oraclelink/paper"
	"github.com/oraclelink/oraclelink/strategy"
)

type recordingNotifier struct {
	messages []string
	trades   []core.TradeRecord
	errs     []error
}

func (r *recordingNotifier) Notify(text string)           { r.messages = append(r.messages, text) }
func (r *recordingNotifier) OnTrade(rec core.TradeRecord) { r.trades = append(r.trades, rec) }
func (r *recordingNotifier) OnError(err error)            { r.errs = append(r.errs, err) }

func TestDispatcher_FansOutAndJournals(t *testing.T) {
	j, err := journal.NewBuntFromMemory()
	require.NoError(t, err)
	defer j.Close()

	first := &recordingNotifier{}
	second := &recordingNotifier{}
	d := newDispatcher(j, core.DefaultLog, first, nil, second)

	d.Notify("hello")
	assert.Equal(t, []string{"hello"}, first.messages)
	assert.Equal(t, []string{"hello"}, second.messages)

	record := core.TradeRecord{ID: "trade-1", Symbol: "BTCUSDT", Side: core.SideLong, PnL: 5}
	d.OnTrade(record)
	require.Len(t, first.trades, 1)
	require.Len(t, second.trades, 1)

	stored, err := j.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "trade-1", stored[0].ID)

	boom := errors.New("boom")
	d.OnError(boom)
	assert.Equal(t, []error{boom}, first.errs)
}

func TestDispatcher_NilJournal(t *testing.T) {
	n := &recordingNotifier{}
	d := newDispatcher(nil, core.DefaultLog, n)

	d.OnTrade(core.TradeRecord{ID: "trade-1"})
	assert.Len(t, n.trades, 1)
}

func TestParseExitPriority(t *testing.T) {
	priority, err := parseExitPriority("")
	require.NoError(t, err)
	assert.Equal(t, paper.ExitTakeProfitPriority, priority)

	priority, err = parseExitPriority("stop_loss")
	require.NoError(t, err)
	assert.Equal(t, paper.ExitStopLossPriority, priority)

	priority, err = parseExitPriority("worst_case")
	require.NoError(t, err)
	assert.Equal(t, paper.ExitWorstCase, priority)

	_, err = parseExitPriority("optimistic")
	assert.Error(t, err)
}

func TestTraderOptions_RejectsBadCooldown(t *testing.T) {
	cfg := config.Default()
	cfg.Trading.Cooldown = "soon"

	_, err := traderOptions(cfg, core.DefaultLog, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trading.cooldown")
}

func TestTraderOptions_ValidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Trading.Cooldown = (5 * time.Second).String()
	cfg.Trading.ExitPriority = "worst_case"
	cfg.Trading.RiskPerPosition = 0.01

	opts, err := traderOptions(cfg, core.DefaultLog, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

func TestNewBot_Wiring(t *testing.T) {
	cfg := config.Default()

	bot, err := NewBot(cfg, strategy.NewShadowsTrendingTouch(cfg.Trading.Timeframe))
	require.NoError(t, err)
	require.NotNil(t, bot.Portfolio())
	assert.Equal(t, cfg.Account.InitialBalance, bot.Portfolio().Balance())

	summary := bot.Summary()
	assert.Empty(t, summary.Records())
}

func TestNewBot_SQLJournalNeedsOption(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Type = "sql"

	_, err := NewBot(cfg, strategy.NewShadowsTrendingTouch(cfg.Trading.Timeframe))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WithJournal")

	j, jerr := journal.NewBuntFromMemory()
	require.NoError(t, jerr)
	defer j.Close()

	bot, err := NewBot(cfg, strategy.NewShadowsTrendingTouch(cfg.Trading.Timeframe), WithJournal(j))
	require.NoError(t, err)
	assert.NotNil(t, bot)
}

func TestNewBot_UnknownJournalType(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Type = "papyrus"

	_, err := NewBot(cfg, strategy.NewShadowsTrendingTouch(cfg.Trading.Timeframe))
	assert.Error(t, err)
}

func TestNewBot_NegativeBalance(t *testing.T) {
	cfg := config.Default()
	cfg.Account.InitialBalance = -5

	_, err := NewBot(cfg, strategy.NewShadowsTrendingTouch(cfg.Trading.Timeframe))
	assert.ErrorIs(t, err, core.ErrNegativeBalance)
}
