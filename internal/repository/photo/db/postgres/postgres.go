package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photobooth/internal/domain"
	"photobooth/internal/repository/photo"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const photoColumns = `
	id, filename, file_path, url, width, height, size, mime_type,
	is_edited, is_deleted, created_at, updated_at`

type PhotosRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewPhotosRepository(db *dbpg.DB, retries retry.Strategy) *PhotosRepository {
	return &PhotosRepository{
		db:      db,
		retries: retries,
	}
}

func (r *PhotosRepository) Save(ctx context.Context, p *domain.PhotoRecord) error {
	query := `
		INSERT INTO photos (` + photoColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		p.ID,
		p.Filename,
		p.FilePath,
		p.URL,
		p.Width,
		p.Height,
		p.Size,
		p.MimeType,
		p.IsEdited,
		p.IsDeleted,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return photo.ErrDuplicateKey
		}
		return fmt.Errorf("failed to save photo: %w", err)
	}

	return nil
}

func (r *PhotosRepository) GetByID(ctx context.Context, id string) (*domain.PhotoRecord, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1 AND NOT is_deleted`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query photo: %w", err)
	}

	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, photo.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo: %w", err)
	}

	return p, nil
}

// ListRecent returns up to limit non-deleted photos, newest first.
func (r *PhotosRepository) ListRecent(ctx context.Context, limit int) ([]domain.PhotoRecord, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE NOT is_deleted
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	photos := make([]domain.PhotoRecord, 0, limit)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

// Delete is a soft delete; the row stays for auditing.
func (r *PhotosRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE photos SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND NOT is_deleted`
	return r.execAffecting(ctx, "delete photo", query, time.Now(), id)
}

func (r *PhotosRepository) MarkEdited(ctx context.Context, id string) error {
	query := `UPDATE photos SET is_edited = TRUE, updated_at = $1 WHERE id = $2 AND NOT is_deleted`
	return r.execAffecting(ctx, "mark photo edited", query, time.Now(), id)
}

func (r *PhotosRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM photos WHERE NOT is_deleted`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}

func (r *PhotosRepository) execAffecting(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecWithRetry(ctx, r.retries, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return photo.ErrPhotoNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPhoto(s scanner) (*domain.PhotoRecord, error) {
	var p domain.PhotoRecord
	err := s.Scan(
		&p.ID,
		&p.Filename,
		&p.FilePath,
		&p.URL,
		&p.Width,
		&p.Height,
		&p.Size,
		&p.MimeType,
		&p.IsEdited,
		&p.IsDeleted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key")
}
