package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"

	"github.com/tu-usuario/invoice-qc/pkg/config"
)

// NewPool crea el pool de conexiones PostgreSQL de la aplicación y verifica
// la conexión con un ping. Registra el codec NUMERIC↔shopspring/decimal en
// todas las conexiones: los montos jamás pasan por float.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// EnsureSchema crea las tablas del histórico si no existen. El índice único
// sobre (invoice_number, seller_name, invoice_date) es la clave natural que
// usa la detección de duplicados; validation_results guarda un veredicto por
// cada ingesta de la factura.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddls := []string{
		`CREATE TABLE IF NOT EXISTS invoices (
			id             UUID PRIMARY KEY,
			invoice_number TEXT NOT NULL,
			invoice_date   DATE NOT NULL,
			seller_name    TEXT NOT NULL,
			buyer_name     TEXT NOT NULL,
			currency       TEXT,
			net_total      NUMERIC(18,4),
			tax_amount     NUMERIC(18,4),
			gross_total    NUMERIC(18,4),
			payload        JSONB,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (invoice_number, seller_name, invoice_date)
		)`,
		`CREATE TABLE IF NOT EXISTS validation_results (
			id           UUID PRIMARY KEY,
			invoice_id   UUID NOT NULL REFERENCES invoices(id),
			is_valid     BOOLEAN NOT NULL,
			errors       JSONB,
			warnings     JSONB,
			validated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, ddl := range ddls {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("crear esquema: %w", err)
		}
	}
	return nil
}
