package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeRepository interface using SQLite.
// Only closed trades are made durable; open positions live in memory with
// the position manager.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trading_bot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trade_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		quantity REAL NOT NULL,
		total_invested REAL NOT NULL,
		pnl REAL NOT NULL,
		pnl_percent REAL NOT NULL,
		entry_time TIMESTAMP NOT NULL,
		exit_time TIMESTAMP NOT NULL,
		close_reason TEXT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trade_history_symbol_entry_time ON trade_history (symbol, entry_time);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// CreateTrade saves a new trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trade_history (symbol, entry_price, exit_price, quantity, total_invested,
	                           pnl, pnl_percent, entry_time, exit_time, close_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		trade.Symbol, trade.EntryPrice, trade.ExitPrice, trade.Quantity, trade.TotalInvested,
		trade.PNL, trade.PNLPercent, trade.EntryTime, trade.ExitTime, trade.CloseReason)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert trade for symbol %s: %v", ports.ErrQueryFailed, trade.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Symbol, err)
	}
	trade.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Trade recorded", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol, "pnl": trade.PNL})
	return id, nil
}

// FindBySymbol retrieves the most recent trades for a given symbol, up to a limit.
func (r *Repository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	const query = `
	SELECT id, symbol, entry_price, exit_price, quantity, total_invested,
	       pnl, pnl_percent, entry_time, exit_time, close_reason
	FROM trade_history
	WHERE symbol = ? ORDER BY entry_time DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query trades for symbol %s: %v", ports.ErrQueryFailed, symbol, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindBySymbol: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// TotalRealizedPNL calculates the sum of PNL over all recorded trades.
func (r *Repository) TotalRealizedPNL(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(pnl), 0) FROM trade_history`
	var total float64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: failed to calculate total realized PNL: %v", ports.ErrQueryFailed, err)
	}
	return total, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var closeReason sql.NullString
	err := s.Scan(
		&t.ID, &t.Symbol, &t.EntryPrice, &t.ExitPrice, &t.Quantity, &t.TotalInvested,
		&t.PNL, &t.PNLPercent, &t.EntryTime, &t.ExitTime, &closeReason)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if closeReason.Valid {
		t.CloseReason = domain.CloseReason(closeReason.String)
	} else {
		t.CloseReason = domain.CloseReasonUnknown // Default if NULL
	}
	return t, nil
}
