package postgres_adapter

import (
	"context"
	"errors"
	"fmt"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createInquiriesTable = `
CREATE TABLE IF NOT EXISTS property_inquiries (
	id            UUID PRIMARY KEY,
	session_id    TEXT NOT NULL,
	property_id   TEXT NOT NULL,
	property_name TEXT NOT NULL,
	client_name   TEXT NOT NULL,
	client_phone  TEXT NOT NULL,
	message       TEXT NOT NULL,
	channel       TEXT NOT NULL,
	link          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresInquiryRepository - хранилище заявок в PostgreSQL
type PostgresInquiryRepository struct {
	pool *pgxpool.Pool
}

var _ port.InquiryRepositoryPort = (*PostgresInquiryRepository)(nil)

func NewPostgresInquiryRepository(pool *pgxpool.Pool) (*PostgresInquiryRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresInquiryRepository{pool: pool}, nil
}

// EnsureSchema создает таблицу заявок, если ее нет
func (r *PostgresInquiryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createInquiriesTable); err != nil {
		return fmt.Errorf("failed to create property_inquiries table: %w", err)
	}
	return nil
}

// Save добавляет заявку. Повторная вставка того же id не ошибка.
func (r *PostgresInquiryRepository) Save(ctx context.Context, inquiry domain.Inquiry) error {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "PostgresInquiryRepository",
		"method":      "Save",
		"inquiry_id":  inquiry.ID,
		"property_id": inquiry.PropertyID,
	})

	query := `INSERT INTO property_inquiries
		(id, session_id, property_id, property_name, client_name, client_phone, message, channel, link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		inquiry.ID, inquiry.SessionID, inquiry.PropertyID, inquiry.PropertyName,
		inquiry.ClientName, inquiry.ClientPhone, inquiry.Message,
		string(inquiry.Channel), inquiry.Link, inquiry.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			repoLogger.Warn("Inquiry already stored, operation considered successful.", nil)
			return nil
		}
		repoLogger.Error("Failed to save inquiry", err, port.Fields{"query": query})
		return fmt.Errorf("failed to save inquiry: %w", err)
	}

	repoLogger.Debug("Inquiry saved.", nil)
	return nil
}

// FindByID возвращает заявку или domain.ErrInquiryNotFound
func (r *PostgresInquiryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Inquiry, error) {
	query := `SELECT id, session_id, property_id, property_name, client_name, client_phone, message, channel, link, created_at
		FROM property_inquiries WHERE id = $1`

	var inq domain.Inquiry
	var channel string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&inq.ID, &inq.SessionID, &inq.PropertyID, &inq.PropertyName,
		&inq.ClientName, &inq.ClientPhone, &inq.Message, &channel, &inq.Link, &inq.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInquiryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find inquiry: %w", err)
	}
	inq.Channel = domain.InquiryChannel(channel)
	return &inq, nil
}
