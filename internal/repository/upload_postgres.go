package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"webagency/api/internal/models"
)

type PostgresUploadRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUploadRepository(pool *pgxpool.Pool) *PostgresUploadRepository {
	return &PostgresUploadRepository{pool: pool}
}

const uploadColumns = `id, user_id, filename, original_name, mime_type, size_bytes, created_at`

func scanUpload(row pgx.Row) (models.Upload, error) {
	var upload models.Upload
	err := row.Scan(
		&upload.ID,
		&upload.UserID,
		&upload.Filename,
		&upload.OriginalName,
		&upload.MimeType,
		&upload.SizeBytes,
		&upload.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Upload{}, ErrUploadNotFound
		}
		return models.Upload{}, err
	}
	return upload, nil
}

func (r *PostgresUploadRepository) Create(ctx context.Context, upload models.Upload) error {
	const query = `
		INSERT INTO uploads (id, user_id, filename, original_name, mime_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		upload.ID,
		upload.UserID,
		upload.Filename,
		upload.OriginalName,
		upload.MimeType,
		upload.SizeBytes,
	)
	return err
}

func (r *PostgresUploadRepository) GetByID(ctx context.Context, id string) (models.Upload, error) {
	const query = `SELECT ` + uploadColumns + ` FROM uploads WHERE id = $1`
	return scanUpload(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresUploadRepository) ListByUser(ctx context.Context, userID string) ([]models.Upload, error) {
	const query = `SELECT ` + uploadColumns + ` FROM uploads WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUploads(rows)
}

func (r *PostgresUploadRepository) List(ctx context.Context) ([]models.Upload, error) {
	const query = `SELECT ` + uploadColumns + ` FROM uploads ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUploads(rows)
}

func (r *PostgresUploadRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM uploads WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUploadNotFound
	}
	return nil
}

func collectUploads(rows pgx.Rows) ([]models.Upload, error) {
	var uploads []models.Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, rows.Err()
}
