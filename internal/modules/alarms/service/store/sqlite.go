package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"crypto_bot/internal/models"
	"crypto_bot/pkg/logger"
)

const alarmColumns = "id, user_id, chat_id, symbol, target, direction, created_at"

type SQLite struct {
	db *sql.DB
}

// NewSQLite открывает (или создаёт) файл базы и прогоняет миграции.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// один писатель: sqlite не любит параллельные транзакции
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite alarm store opened: %s", path)
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alarms (
			id         TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL,
			chat_id    INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			target     REAL NOT NULL,
			direction  TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alarms_user ON alarms(user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Add(ctx context.Context, a models.Alarm) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.Add: %w", err)
		}
	}()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alarms (`+alarmColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.ChatID, a.Symbol, a.Target, string(a.Direction), a.CreatedAt.UnixNano(),
	)
	return err
}

func (s *SQLite) ListByUser(ctx context.Context, userID int64) (list []models.Alarm, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.ListByUser: %w", err)
		}
	}()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alarmColumns+` FROM alarms WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	return scanSQLite(rows)
}

func (s *SQLite) CountByUser(ctx context.Context, userID int64) (n int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.CountByUser: %w", err)
		}
	}()
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alarms WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (s *SQLite) All(ctx context.Context) (list []models.Alarm, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.All: %w", err)
		}
	}()
	rows, err := s.db.QueryContext(ctx, `SELECT `+alarmColumns+` FROM alarms ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return scanSQLite(rows)
}

func (s *SQLite) Delete(ctx context.Context, id string) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.Delete: %w", err)
		}
	}()
	res, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLite) DeleteBySymbol(ctx context.Context, userID int64, symbol string) (n int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.DeleteBySymbol: %w", err)
		}
	}()
	res, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE user_id = ? AND symbol = ?`, userID, symbol)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanSQLite(rows *sql.Rows) ([]models.Alarm, error) {
	defer rows.Close()

	out := make([]models.Alarm, 0)
	for rows.Next() {
		var (
			a         models.Alarm
			direction string
			created   int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.ChatID, &a.Symbol, &a.Target, &direction, &created); err != nil {
			return nil, err
		}
		a.Direction = models.AlarmDirection(direction)
		a.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
