package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/diegodinero/orderpanel/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			account TEXT NOT NULL,
			kind TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			stop_loss_ticks REAL NOT NULL,
			take_profit_ticks REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_account_symbol ON orders(account, symbol);`,
		`CREATE TABLE IF NOT EXISTS position_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account TEXT NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity REAL NOT NULL,
			entry_price REAL NOT NULL,
			exit_price REAL NOT NULL,
			realized_pnl REAL NOT NULL,
			closed_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// TradeRepository Implementation

func (s *SQLiteStore) SaveOrder(ctx context.Context, rec *domain.OrderRecord) error {
	query := `INSERT INTO orders (symbol, account, kind, side, quantity, price, stop_loss_ticks, take_profit_ticks, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		rec.Symbol, rec.Account, rec.Kind, rec.Side, rec.Quantity, rec.Price,
		rec.StopLossTicks, rec.TakeProfitTicks, rec.CreatedAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

func (s *SQLiteStore) ListOrders(ctx context.Context, limit int) ([]*domain.OrderRecord, error) {
	query := `SELECT id, symbol, account, kind, side, quantity, price, stop_loss_ticks, take_profit_ticks, created_at
			  FROM orders ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.OrderRecord
	for rows.Next() {
		var r domain.OrderRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Account, &r.Kind, &r.Side, &r.Quantity, &r.Price, &r.StopLossTicks, &r.TakeProfitTicks, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SavePositionHistory(ctx context.Context, history *domain.PositionHistory) error {
	query := `INSERT INTO position_history (account, symbol, side, quantity, entry_price, exit_price, realized_pnl, closed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		history.Account, history.Symbol, history.Side, history.Quantity,
		history.EntryPrice, history.ExitPrice, history.RealizedPnL, history.ClosedAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		history.ID = id
	}
	return nil
}

func (s *SQLiteStore) ListPositionHistory(ctx context.Context, limit int) ([]*domain.PositionHistory, error) {
	query := `SELECT id, account, symbol, side, quantity, entry_price, exit_price, realized_pnl, closed_at
			  FROM position_history ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []*domain.PositionHistory
	for rows.Next() {
		var h domain.PositionHistory
		if err := rows.Scan(&h.ID, &h.Account, &h.Symbol, &h.Side, &h.Quantity, &h.EntryPrice, &h.ExitPrice, &h.RealizedPnL, &h.ClosedAt); err != nil {
			return nil, err
		}
		histories = append(histories, &h)
	}
	return histories, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
