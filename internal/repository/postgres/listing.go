package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"
)

const listingColumns = `id, owner_id, type, title, COALESCE(description, ''), COALESCE(category, ''),
	hourly_rate_cents, COALESCE(location, ''), available, created_on, updated_on, deleted_on`

type listingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) repository.ListingRepository {
	return &listingRepository{db: db}
}

func scanListing(row interface{ Scan(...interface{}) error }) (*domain.Listing, error) {
	l := &domain.Listing{}
	err := row.Scan(&l.ID, &l.OwnerID, &l.Type, &l.Title, &l.Description, &l.Category,
		&l.HourlyRateCents, &l.Location, &l.Available, &l.CreatedOn, &l.UpdatedOn, &l.DeletedOn)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *listingRepository) Create(ctx context.Context, l *domain.Listing) error {
	query := `INSERT INTO listings
		(owner_id, type, title, description, category, hourly_rate_cents, location, available, created_on, updated_on)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), $8, NOW(), NOW())
		RETURNING id, created_on, updated_on`
	return r.db.QueryRowContext(ctx, query, l.OwnerID, l.Type, l.Title, l.Description,
		l.Category, l.HourlyRateCents, l.Location, l.Available).Scan(&l.ID, &l.CreatedOn, &l.UpdatedOn)
}

func (r *listingRepository) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 AND deleted_on IS NULL`
	l, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return l, err
}

func (r *listingRepository) Update(ctx context.Context, l *domain.Listing) error {
	query := `UPDATE listings
		SET title = $2, description = NULLIF($3, ''), category = NULLIF($4, ''),
		    hourly_rate_cents = $5, location = NULLIF($6, ''), available = $7, updated_on = NOW()
		WHERE id = $1 AND deleted_on IS NULL`
	_, err := r.db.ExecContext(ctx, query, l.ID, l.Title, l.Description, l.Category,
		l.HourlyRateCents, l.Location, l.Available)
	return err
}

func (r *listingRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET deleted_on = NOW(), available = false, updated_on = NOW()
		 WHERE id = $1 AND deleted_on IS NULL`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *listingRepository) ListByOwner(ctx context.Context, ownerID int64, page, pageSize int64) ([]domain.Listing, int64, error) {
	where := "WHERE owner_id = $1 AND deleted_on IS NULL"
	args := []interface{}{ownerID}
	return r.listWhere(ctx, where, args, 2, page, pageSize)
}

func (r *listingRepository) List(ctx context.Context, listingType domain.ListingType, category string, page, pageSize int64) ([]domain.Listing, int64, error) {
	where := "WHERE available AND deleted_on IS NULL"
	args := []interface{}{}
	idx := 1
	if listingType != "" {
		where += fmt.Sprintf(" AND type = $%d", idx)
		args = append(args, listingType)
		idx++
	}
	if category != "" {
		where += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, category)
		idx++
	}
	return r.listWhere(ctx, where, args, idx, page, pageSize)
}

func (r *listingRepository) listWhere(ctx context.Context, where string, args []interface{}, idx int, page, pageSize int64) ([]domain.Listing, int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM listings "+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := "SELECT " + listingColumns + " FROM listings " + where +
		fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, *l)
	}
	return listings, count, rows.Err()
}
