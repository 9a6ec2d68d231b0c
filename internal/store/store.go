package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"main/internal/engine"
	"main/internal/errs"
	"main/pkg/conn"
)

// RunRecord is the persisted form of a backtest result. Nested snapshots are
// stored as JSON documents rather than normalised tables; runs are written
// once and read for comparison, never joined.
type RunRecord struct {
	ID              uuid.UUID       `gorm:"primaryKey;type:uuid"`
	Status          string          `gorm:"type:varchar(16);index"`
	StartTsNs       int64           `gorm:"not null"`
	EndTsNs         int64           `gorm:"not null"`
	EventsProcessed uint64          `gorm:"not null"`
	FinalCash       decimal.Decimal `gorm:"type:numeric"`
	RealisedPnl     decimal.Decimal `gorm:"type:numeric"`
	UnrealisedPnl   decimal.Decimal `gorm:"type:numeric"`
	Performance     string          `gorm:"type:jsonb"`
	StrategyState   string          `gorm:"type:jsonb"`
	Errors          []string        `gorm:"type:text;serializer:json"`
	DurationNs      int64           `gorm:"not null"`
	CreatedAt       time.Time       `gorm:"type:timestamptz"`
}

// TableName pins the table independent of gorm's pluralisation rules.
func (RunRecord) TableName() string {
	return "backtest_runs"
}

// Store persists backtest results to Postgres.
type Store struct {
	client *conn.Client
}

// Open connects and migrates the runs table.
func Open(connString string) (*Store, error) {
	client, err := conn.New(conn.Option{ConnString: connString})
	if err != nil {
		return nil, errs.Wrap(err, "connect result store")
	}
	if err := client.DB().AutoMigrate(&RunRecord{}); err != nil {
		_ = client.Close()
		return nil, errs.Wrap(err, "migrate result store")
	}
	return &Store{client: client}, nil
}

// New wraps an existing connection without migrating.
func New(client *conn.Client) *Store {
	return &Store{client: client}
}

// SaveResult maps a run result to a record and inserts it.
func (s *Store) SaveResult(result engine.Result) error {
	record, err := recordFromResult(result)
	if err != nil {
		return err
	}
	if err := s.client.DB().Create(&record).Error; err != nil {
		return errs.Wrap(err, "insert run "+result.RunID.String())
	}
	return nil
}

// Run loads one persisted run by id.
func (s *Store) Run(id uuid.UUID) (RunRecord, error) {
	var record RunRecord
	if err := s.client.DB().First(&record, "id = ?", id).Error; err != nil {
		return RunRecord{}, errs.Wrap(err, "load run "+id.String())
	}
	return record, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func recordFromResult(result engine.Result) (RunRecord, error) {
	performance, err := json.Marshal(result.Performance)
	if err != nil {
		return RunRecord{}, errs.Wrap(err, "encode performance snapshot")
	}
	state, err := json.Marshal(result.StrategyState)
	if err != nil {
		return RunRecord{}, errs.Wrap(err, "encode strategy state")
	}
	return RunRecord{
		ID:              result.RunID,
		Status:          result.Status.String(),
		StartTsNs:       result.StartTsNs,
		EndTsNs:         result.EndTsNs,
		EventsProcessed: result.EventsProcessed,
		FinalCash:       result.FinalPortfolio.Cash,
		RealisedPnl:     result.FinalPortfolio.RealisedPnl,
		UnrealisedPnl:   result.FinalPortfolio.UnrealisedPnl,
		Performance:     string(performance),
		StrategyState:   string(state),
		Errors:          result.Errors,
		DurationNs:      result.Duration.Nanoseconds(),
		CreatedAt:       time.Now().UTC(),
	}, nil
}
