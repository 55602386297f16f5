package storage

import (
	"context"
	"errors"
	"io"
	"log"

	"commerce-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps values in the client_storage table (see internal/migrate).
type Postgres struct {
	pool      *pgxpool.Pool
	namespace string
	logger    *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, namespace string, logger *log.Logger) *Postgres {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if namespace == "" {
		namespace = "default"
	}
	return &Postgres{pool: pool, namespace: namespace, logger: logger}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	const q = `
SELECT value
FROM client_storage
WHERE namespace = $1 AND key = $2
`
	var value string
	if err := p.pool.QueryRow(ctx, q, p.namespace, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		p.logger.Printf("storage: get namespace=%s key=%s error=%v", p.namespace, key, err)
		return "", err
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO client_storage (namespace, key, value)
VALUES ($1, $2, $3)
ON CONFLICT (namespace, key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = now()
`
	if _, err := p.pool.Exec(ctx, q, p.namespace, key, value); err != nil {
		p.logger.Printf("storage: set namespace=%s key=%s error=%v", p.namespace, key, err)
		return err
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := p.pool.Exec(ctx, `DELETE FROM client_storage WHERE namespace = $1 AND key = ANY($2)`, p.namespace, keys); err != nil {
		p.logger.Printf("storage: remove namespace=%s keys=%v error=%v", p.namespace, keys, err)
		return err
	}
	return nil
}
