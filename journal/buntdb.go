package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/tidwall/buntdb"

	"github.com/oraclelink/oraclelink/core"
)

const exitTimeIndex = "exit_time_index"

// BuntJournal stores trade records as JSON documents in BuntDB, indexed by
// exit time
type BuntJournal struct {
	db *buntdb.DB
}

// NewBuntFromMemory creates an in-memory journal, useful for tests and
// throwaway backtests
func NewBuntFromMemory() (*BuntJournal, error) {
	return NewBuntJournal(":memory:")
}

// NewBuntJournal opens or creates a file-backed journal
func NewBuntJournal(sourceFile string) (*BuntJournal, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", sourceFile, err)
	}

	if err := db.SetConfig(buntdb.Config{SyncPolicy: buntdb.EverySecond}); err != nil {
		return nil, fmt.Errorf("configuring journal: %w", err)
	}

	if err := db.CreateIndex(exitTimeIndex, "*", buntdb.IndexJSON("exit_time")); err != nil {
		return nil, fmt.Errorf("creating exit time index: %w", err)
	}

	return &BuntJournal{db: db}, nil
}

// Save stores a trade record keyed by its id
func (b *BuntJournal) Save(_ context.Context, record core.TradeRecord) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling trade record %s: %w", record.ID, err)
		}

		if _, _, err := tx.Set(record.ID, string(content), nil); err != nil {
			return fmt.Errorf("storing trade record %s: %w", record.ID, err)
		}
		return nil
	})
}

// Records returns stored records matching all filters, ascending by exit
// time
func (b *BuntJournal) Records(_ context.Context, filters ...Filter) ([]core.TradeRecord, error) {
	var records []core.TradeRecord
	var scanErr error

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(exitTimeIndex, func(key, value string) bool {
			var record core.TradeRecord
			if err := json.Unmarshal([]byte(value), &record); err != nil {
				scanErr = fmt.Errorf("decoding trade record %s: %w", key, err)
				return false
			}
			records = append(records, record)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}

	if len(filters) > 0 {
		records = lo.Filter(records, func(r core.TradeRecord, _ int) bool {
			return matches(r, filters)
		})
	}
	return records, nil
}

// Close releases the underlying database
func (b *BuntJournal) Close() error {
	return b.db.Close()
}
