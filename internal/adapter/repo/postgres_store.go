package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/zari-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStateStore — клиентское состояние в таблице client_state.
type PostgresStateStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStateStore(pool *pgxpool.Pool) *PostgresStateStore {
	return &PostgresStateStore{Pool: pool}
}

func (r *PostgresStateStore) Load(ctx context.Context, clientID, key string) ([]byte, error) {
	var raw []byte
	err := r.Pool.QueryRow(ctx, `SELECT value FROM client_state WHERE client_id = $1 AND key = $2`,
		clientID, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select client_state: %w", err)
	}
	return raw, nil
}

func (r *PostgresStateStore) Save(ctx context.Context, clientID, key string, raw []byte) error {
	_, err := r.Pool.Exec(ctx, `INSERT INTO client_state(client_id, key, value, updated_at) VALUES($1, $2, $3, now())
        ON CONFLICT (client_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		clientID, key, raw)
	if err != nil {
		return fmt.Errorf("upsert client_state: %w", err)
	}
	return nil
}

func (r *PostgresStateStore) Delete(ctx context.Context, clientID, key string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM client_state WHERE client_id = $1 AND key = $2`, clientID, key)
	if err != nil {
		return fmt.Errorf("delete client_state: %w", err)
	}
	return nil
}

var _ domain.StateStore = (*PostgresStateStore)(nil)

// EnsureSchema — создать необходимые таблицы, если отсутствуют.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS client_state (
  client_id  text NOT NULL,
  key        text NOT NULL,
  value      bytea NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (client_id, key)
);`)
	return err
}
