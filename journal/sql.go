package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/oraclelink/oraclelink/core"
)

// SQLJournal stores trade records in a relational database through GORM.
// The dialector is injected so deployments choose their own driver.
type SQLJournal struct {
	db *gorm.DB
}

// SQLConfig holds connection pool settings
type SQLConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLConfig returns pool settings suitable for a single-process bot
func DefaultSQLConfig() SQLConfig {
	return SQLConfig{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// NewSQLJournal opens a SQL journal with the given dialector and migrates
// the trade record schema
func NewSQLJournal(dialect gorm.Dialector, config SQLConfig, opts ...gorm.Option) (*SQLJournal, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.AutoMigrate(&core.TradeRecord{}); err != nil {
		return nil, fmt.Errorf("migrating trade record schema: %w", err)
	}

	return &SQLJournal{db: db}, nil
}

// Save stores a trade record
func (s *SQLJournal) Save(ctx context.Context, record core.TradeRecord) error {
	if result := s.db.WithContext(ctx).Create(&record); result.Error != nil {
		return fmt.Errorf("storing trade record %s: %w", record.ID, result.Error)
	}
	return nil
}

// Records returns stored records matching all filters, ascending by exit
// time
func (s *SQLJournal) Records(ctx context.Context, filters ...Filter) ([]core.TradeRecord, error) {
	var records []core.TradeRecord

	result := s.db.WithContext(ctx).Order("exit_time asc").Find(&records)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetching trade records: %w", result.Error)
	}

	if len(filters) > 0 {
		records = lo.Filter(records, func(r core.TradeRecord, _ int) bool {
			return matches(r, filters)
		})
	}
	return records, nil
}

// Close releases the underlying connection pool
func (s *SQLJournal) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
