package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// UserStore implements storage.UserStore using PostgreSQL.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

var _ storage.UserStore = (*UserStore)(nil)

// Create adds a new profile. Returns ErrDuplicateKey if id exists.
func (s *UserStore) Create(ctx context.Context, u *domain.UserProfile) error {
	if u == nil || u.Validate() != nil {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, risk_threshold, cashout_target, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.RiskThreshold, u.CashoutTarget, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get retrieves a profile by id. Returns ErrNotFound if not exists.
func (s *UserStore) Get(ctx context.Context, id int64) (*domain.UserProfile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, risk_threshold, cashout_target, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	u, err := scanUser(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Update overwrites both preferences. Returns ErrNotFound if not exists.
func (s *UserStore) Update(ctx context.Context, u *domain.UserProfile) error {
	if u == nil || u.Validate() != nil {
		return storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET risk_threshold = $2, cashout_target = $3, updated_at = $4
		WHERE id = $1
	`, u.ID, u.RiskThreshold, u.CashoutTarget, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns all profiles ordered by id ASC.
func (s *UserStore) List(ctx context.Context) ([]*domain.UserProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, risk_threshold, cashout_target, created_at, updated_at
		FROM users
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var result []*domain.UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return result, nil
}

func scanUser(row pgx.Row) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := row.Scan(&u.ID, &u.RiskThreshold, &u.CashoutTarget, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
