package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insightdelivered/due-invoice-extractor/internal/models"
)

const createFileUploads = `
CREATE TABLE IF NOT EXISTS file_uploads (
	id                uuid PRIMARY KEY,
	file_name         text        NOT NULL,
	file_path         text        NOT NULL,
	file_size         bigint      NOT NULL,
	mime_type         text        NOT NULL,
	status            text        NOT NULL,
	due_records_count integer     NOT NULL DEFAULT 0,
	error             text        NOT NULL DEFAULT '',
	processed_at      timestamptz NOT NULL
)`

// PostgresLog implements UploadLog on a file_uploads table.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog connects to dsn and makes sure the table exists.
func NewPostgresLog(ctx context.Context, dsn string) (*PostgresLog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createFileUploads); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create file_uploads: %w", err)
	}
	return &PostgresLog{pool: pool}, nil
}

func (p *PostgresLog) Record(ctx context.Context, u *models.Upload) error {
	prepare(u)
	_, err := p.pool.Exec(ctx, `
		INSERT INTO file_uploads (
			id, file_name, file_path, file_size, mime_type,
			status, due_records_count, error, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.FileName, u.FilePath, u.FileSize, u.MimeType,
		string(u.Status), u.DueRecordsCount, u.Error, u.ProcessedAt)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (p *PostgresLog) List(ctx context.Context) ([]*models.Upload, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, file_name, file_path, file_size, mime_type,
		       status, due_records_count, error, processed_at
		FROM file_uploads
		ORDER BY processed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]*models.Upload, 0)
	for rows.Next() {
		var (
			u      models.Upload
			status string
		)
		if err := rows.Scan(&u.ID, &u.FileName, &u.FilePath, &u.FileSize, &u.MimeType,
			&status, &u.DueRecordsCount, &u.Error, &u.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		u.Status = models.UploadStatus(status)
		uploads = append(uploads, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return uploads, nil
}

func (p *PostgresLog) Close() error {
	p.pool.Close()
	return nil
}
