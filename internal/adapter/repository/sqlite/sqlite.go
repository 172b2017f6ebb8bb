// Package sqlite implements the link store on top of an SQLite database file.
// It is meant for local development and single-instance deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"github.com/vadimbarashkov/link-shortener/pkg/sqlite"
)

const returningColumns = `id, short_code, original_url, clicks, last_clicked, created_at, updated_at`

type linkDB struct {
	ID          int64      `db:"id"`
	ShortCode   string     `db:"short_code"`
	OriginalURL string     `db:"original_url"`
	Clicks      int64      `db:"clicks"`
	LastClicked *timestamp `db:"last_clicked"`
	CreatedAt   timestamp  `db:"created_at"`
	UpdatedAt   timestamp  `db:"updated_at"`
}

func (l *linkDB) toEntity() *entity.Link {
	link := &entity.Link{
		ID:          l.ID,
		ShortCode:   l.ShortCode,
		OriginalURL: l.OriginalURL,
		LinkStats: entity.LinkStats{
			Clicks: l.Clicks,
		},
		CreatedAt: l.CreatedAt.Time(),
		UpdatedAt: l.UpdatedAt.Time(),
	}

	if l.LastClicked != nil {
		lastClicked := l.LastClicked.Time()
		link.LastClicked = &lastClicked
	}

	return link
}

type LinkRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (r *LinkRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.Save"
	const query = `INSERT INTO links(short_code, original_url, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING ` + returningColumns

	var link linkDB
	now := r.now()

	if err := r.db.GetContext(ctx, &link, query, shortCode, originalURL, now, now); err != nil {
		if sqlite.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into links table: %w", op, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.RetrieveByShortCode"
	const query = `SELECT ` + returningColumns + ` FROM links WHERE short_code = ?`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w", op, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) RetrieveAll(ctx context.Context) ([]*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.RetrieveAll"
	const query = `SELECT ` + returningColumns + ` FROM links ORDER BY created_at DESC, id DESC`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: failed to get rows from links table: %w", op, err)
	}

	links := make([]*entity.Link, 0, len(rows))
	for i := range rows {
		links = append(links, rows[i].toEntity())
	}

	return links, nil
}

func (r *LinkRepository) Remove(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.Remove"
	const query = `DELETE FROM links WHERE short_code = ? RETURNING ` + returningColumns

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to delete from links table: %w", op, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) RecordClick(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.RecordClick"
	const query = `UPDATE links
		SET clicks = clicks + 1, last_clicked = ?, updated_at = ?
		WHERE short_code = ?
		RETURNING ` + returningColumns

	var link linkDB
	now := r.now()

	if err := r.db.GetContext(ctx, &link, query, now, now, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	return link.toEntity(), nil
}
