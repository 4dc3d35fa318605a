package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crypto_bot/internal/models"
	"crypto_bot/pkg/db"
)

type PG struct {
	db db.TxManager
}

// NewPG создаёт таблицу алертов, если её нет.
func NewPG(ctx context.Context, m db.TxManager) (*PG, error) {
	p := &PG{db: m}
	err := m.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		for _, stmt := range []string{
			`CREATE TABLE IF NOT EXISTS alarms (
				id         UUID PRIMARY KEY,
				user_id    BIGINT NOT NULL,
				chat_id    BIGINT NOT NULL,
				symbol     TEXT NOT NULL,
				target     DOUBLE PRECISION NOT NULL,
				direction  TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_alarms_user ON alarms(user_id)`,
		} {
			if _, err := tx.Exec(ctxTx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pg.migrate: %w", err)
	}
	return p, nil
}

func (p *PG) Add(ctx context.Context, a models.Alarm) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Add: %w", err)
		}
	}()
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO alarms (`+alarmColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.UserID, a.ChatID, a.Symbol, a.Target, string(a.Direction), a.CreatedAt,
		)
		return err
	})
}

func (p *PG) ListByUser(ctx context.Context, userID int64) (list []models.Alarm, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListByUser: %w", err)
		}
	}()
	rows, err := p.db.Conn().Query(ctx,
		`SELECT id::text, user_id, chat_id, symbol, target, direction, created_at FROM alarms WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	return scanPG(rows)
}

func (p *PG) CountByUser(ctx context.Context, userID int64) (n int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.CountByUser: %w", err)
		}
	}()
	err = p.db.Conn().QueryRow(ctx, `SELECT COUNT(*) FROM alarms WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (p *PG) All(ctx context.Context) (list []models.Alarm, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.All: %w", err)
		}
	}()
	rows, err := p.db.Conn().Query(ctx,
		`SELECT id::text, user_id, chat_id, symbol, target, direction, created_at FROM alarms ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return scanPG(rows)
}

func (p *PG) Delete(ctx context.Context, id string) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Delete: %w", err)
		}
	}()
	tag, err := p.db.Conn().Exec(ctx, `DELETE FROM alarms WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PG) DeleteBySymbol(ctx context.Context, userID int64, symbol string) (n int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.DeleteBySymbol: %w", err)
		}
	}()
	tag, err := p.db.Conn().Exec(ctx, `DELETE FROM alarms WHERE user_id = $1 AND symbol = $2`, userID, symbol)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Close: пулом владеет postgres-модуль.
func (p *PG) Close() error { return nil }

func scanPG(rows pgx.Rows) ([]models.Alarm, error) {
	defer rows.Close()

	out := make([]models.Alarm, 0)
	for rows.Next() {
		var (
			a         models.Alarm
			direction string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.ChatID, &a.Symbol, &a.Target, &direction, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Direction = models.AlarmDirection(direction)
		out = append(out, a)
	}
	return out, rows.Err()
}
