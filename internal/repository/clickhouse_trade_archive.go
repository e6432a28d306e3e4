package repository

import (
	"context"
	"database/sql"
	"fmt"

	"EdgeDesk/internal/domain/models"
	"EdgeDesk/internal/domain/repository"
)

// TradeArchiveSchema is applied at startup when the clickhouse backend is
// configured.
var TradeArchiveSchema = []string{
	"CREATE DATABASE IF NOT EXISTS edgedesk",
	`CREATE TABLE IF NOT EXISTS edgedesk.closed_trades (
		id String,
		symbol String,
		venue String,
		market_id String,
		side String,
		entry_probability Float64,
		exit_probability Float64,
		size Float64,
		bankroll_usd Float64,
		max_risk_pct Float64,
		fee_bps Float64,
		pnl Float64,
		executed_at DateTime64(3),
		closed_at DateTime64(3)
	) ENGINE=MergeTree ORDER BY (symbol, closed_at)`,
}

// ClickHouseTradeArchive appends closed trades to a MergeTree table for
// offline analysis. The in-memory store stays authoritative; the archive is
// write-only.
type ClickHouseTradeArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseTradeArchive creates a ClickHouse trade archive.
func NewClickHouseTradeArchive(db *sql.DB, table string) repository.TradeArchive {
	return &ClickHouseTradeArchive{db: db, table: table}
}

func (a *ClickHouseTradeArchive) Archive(ctx context.Context, t *models.Trade) error {
	if t.Status != models.StatusClosed || t.Pnl == nil || t.ExitProbability == nil || t.ClosedAt == nil {
		return fmt.Errorf("archive: trade %s is not closed", t.ID)
	}
	q := fmt.Sprintf(`INSERT INTO %s
		(id, symbol, venue, market_id, side, entry_probability, exit_probability,
		 size, bankroll_usd, max_risk_pct, fee_bps, pnl, executed_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, a.table)
	_, err := a.db.ExecContext(ctx, q,
		t.ID,
		t.Symbol,
		t.Venue,
		t.MarketID,
		string(t.Side),
		t.EntryProbability,
		*t.ExitProbability,
		t.Size,
		t.BankrollUsd,
		t.MaxRiskPct,
		t.FeeBps,
		*t.Pnl,
		t.ExecutedAt,
		*t.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("archive trade %s: %w", t.ID, err)
	}
	return nil
}

func (a *ClickHouseTradeArchive) Close() error {
	return nil // pool is managed by pkg/clickhouse
}
