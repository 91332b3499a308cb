package postgres

import (
	"context"
	"database/sql"
	"errors"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (email, phone_number, password_hash, name, role, avatar_url, created_on, updated_on)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''), NOW(), NOW())
		RETURNING id, created_on, updated_on`
	return r.db.QueryRowContext(ctx, query, u.Email, u.PhoneNumber, u.PasswordHash, u.Name,
		u.Role, u.AvatarURL).Scan(&u.ID, &u.CreatedOn, &u.UpdatedOn)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, email, COALESCE(phone_number, ''), password_hash, name, role,
		COALESCE(avatar_url, ''), created_on, updated_on FROM users WHERE id = $1`
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.PhoneNumber,
		&u.PasswordHash, &u.Name, &u.Role, &u.AvatarURL, &u.CreatedOn, &u.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, COALESCE(phone_number, ''), password_hash, name, role,
		COALESCE(avatar_url, ''), created_on, updated_on FROM users WHERE email = $1`
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.PhoneNumber,
		&u.PasswordHash, &u.Name, &u.Role, &u.AvatarURL, &u.CreatedOn, &u.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET email = $2, phone_number = NULLIF($3, ''), name = $4,
		avatar_url = NULLIF($5, ''), updated_on = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.PhoneNumber, u.Name, u.AvatarURL)
	return err
}
