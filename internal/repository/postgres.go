// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrSessionExists возвращается при попытке создать сессию с уже занятым идентификатором.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionNotFound возвращается, если сессия не найдена.
	ErrSessionNotFound = errors.New("session not found")
	// ErrReceiptNotFound возвращается, если чек не найден или уже был скачан.
	ErrReceiptNotFound = errors.New("receipt not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(delays) {
			break
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateSession сохраняет новую сессию.
func (r *PostgresRepository) CreateSession(ctx context.Context, s *model.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, token, user_id, first_name, user_type, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Token, s.UserID, s.FirstName, s.UserType, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrSessionExists, s.ID)
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession возвращает сессию по идентификатору.
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, token, user_id, first_name, user_type, created_at, expires_at
			 FROM sessions WHERE id = $1`,
			id,
		).Scan(&s.ID, &s.Token, &s.UserID, &s.FirstName, &s.UserType, &s.CreatedAt, &s.ExpiresAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

// DeleteSession удаляет сессию. Удаление отсутствующей сессии не считается ошибкой.
func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions удаляет сессии, срок действия которых истёк к моменту now.
func (r *PostgresRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SaveReceipt сохраняет PDF чека и возвращает идентификатор для скачивания.
func (r *PostgresRepository) SaveReceipt(ctx context.Context, filename string, content []byte) (string, error) {
	id := uuid.New()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO receipts (id, filename, content) VALUES ($1, $2, $3)`,
		id, filename, content,
	)
	if err != nil {
		return "", fmt.Errorf("save receipt: %w", err)
	}

	return id.String(), nil
}

// DeleteExpiredReceipts удаляет нескачанные чеки, созданные раньше before.
func (r *PostgresRepository) DeleteExpiredReceipts(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM receipts WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired receipts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TakeReceipt возвращает чек и удаляет его: каждый чек скачивается один раз.
func (r *PostgresRepository) TakeReceipt(ctx context.Context, id string) (*model.Receipt, error) {
	rc := model.Receipt{ID: id}
	err := r.pool.QueryRow(ctx,
		`DELETE FROM receipts WHERE id = $1 RETURNING filename, content, created_at`,
		id,
	).Scan(&rc.Filename, &rc.Content, &rc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) ||
			(errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("take receipt: %w", err)
	}

	return &rc, nil
}
