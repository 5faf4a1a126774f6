package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stefanjelkic00/TechShop/internal/domain"
)

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, customer_type, created_at FROM users WHERE id = $1`, id).Scan(
		&user.ID,
		&user.Email,
		&user.CustomerType,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return &user, nil
}

func (r *Repository) UpdateCustomerTier(ctx context.Context, userID int64, tier domain.Tier) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET customer_type = $2 WHERE id = $1`, userID, tier)
	if err != nil {
		return fmt.Errorf("update customer tier for user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
