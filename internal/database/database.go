// Package database owns the PostgreSQL connection pool.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sesmt-backend/internal/config"
)

// Service is the database handle shared by repositories and handlers.
type Service interface {
	// Health reports pool statistics, or an error status if the ping fails.
	Health() map[string]string
	// Close releases every pooled connection.
	Close()
	// GetPool exposes the underlying pgx pool.
	GetPool() *pgxpool.Pool
}

type service struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and applies pending migrations.
// It exits the process on failure since the server cannot run without a database.
func New(cfg *config.DBConfig) Service {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	n, err := Migrate(pool)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to database (%d migrations applied)", n)

	return &service{pool: pool}
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		log.Printf("Database health check failed: %v", err)
		return map[string]string{
			"status": "down",
			"error":  "database unreachable",
		}
	}

	stat := s.pool.Stat()
	return map[string]string{
		"status":            "up",
		"total_connections": fmt.Sprintf("%d", stat.TotalConns()),
		"idle_connections":  fmt.Sprintf("%d", stat.IdleConns()),
		"in_use":            fmt.Sprintf("%d", stat.AcquiredConns()),
	}
}

func (s *service) Close() {
	log.Println("Disconnected from database")
	s.pool.Close()
}

func (s *service) GetPool() *pgxpool.Pool {
	return s.pool
}
