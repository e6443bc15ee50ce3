package sqlite

import (
	"context"
	"fmt"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// UserStore implements storage.UserStore using SQLite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

var _ storage.UserStore = (*UserStore)(nil)

// Create adds a new profile. Returns ErrDuplicateKey if id exists.
func (s *UserStore) Create(ctx context.Context, u *domain.UserProfile) error {
	if u == nil || u.Validate() != nil {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, risk_threshold, cashout_target, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.RiskThreshold, u.CashoutTarget, u.CreatedAt, u.UpdatedAt,
	)
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
	row := s.db.QueryRowContext(ctx,
		`SELECT id, risk_threshold, cashout_target, created_at, updated_at FROM users WHERE id = ?`, id)

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

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET risk_threshold = ?, cashout_target = ?, updated_at = ? WHERE id = ?`,
		u.RiskThreshold, u.CashoutTarget, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns all profiles ordered by id ASC.
func (s *UserStore) List(ctx context.Context) ([]*domain.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, risk_threshold, cashout_target, created_at, updated_at FROM users ORDER BY id ASC`)
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
	return result, rows.Err()
}

func scanUser(row scanner) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := row.Scan(&u.ID, &u.RiskThreshold, &u.CashoutTarget, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
