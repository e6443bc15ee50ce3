package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// PositionStore implements storage.PositionStore using SQLite.
type PositionStore struct {
	db *DB
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(db *DB) *PositionStore {
	return &PositionStore{db: db}
}

var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `mint, pool, score, entry_price, token_amount, spent_lamports,
	contributors, payload, status, created_at, updated_at`

// Create inserts a position, overwriting only an expired row.
func (s *PositionStore) Create(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" || !p.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	contributors, err := json.Marshal(p.Contributors)
	if err != nil {
		return fmt.Errorf("marshal contributors: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (`+positionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (mint) DO UPDATE SET
			pool = excluded.pool,
			score = excluded.score,
			entry_price = excluded.entry_price,
			token_amount = excluded.token_amount,
			spent_lamports = excluded.spent_lamports,
			contributors = excluded.contributors,
			payload = excluded.payload,
			status = excluded.status,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
		WHERE positions.status = ?
	`,
		p.Mint, p.Pool, p.Score,
		p.EntryPrice.String(), p.TokenAmount.String(), p.SpentLamports.String(),
		string(contributors), p.Payload, string(p.Status), p.CreatedAt, p.UpdatedAt,
		string(domain.PositionExpired),
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	if n == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// Get retrieves a position by mint. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(ctx context.Context, mint string) (*domain.Position, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+positionColumns+` FROM positions WHERE mint = ?`, mint)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	return p, nil
}

// ListByStatus retrieves positions with the given status, ordered by created_at ASC.
func (s *PositionStore) ListByStatus(ctx context.Context, status domain.PositionStatus) ([]*domain.Position, error) {
	return s.list(ctx, `SELECT `+positionColumns+` FROM positions WHERE status = ? ORDER BY created_at ASC, mint ASC`, string(status))
}

// List retrieves all positions ordered by created_at ASC.
func (s *PositionStore) List(ctx context.Context) ([]*domain.Position, error) {
	return s.list(ctx, `SELECT `+positionColumns+` FROM positions ORDER BY created_at ASC, mint ASC`)
}

// Transition is a compare-and-set on status.
func (s *PositionStore) Transition(ctx context.Context, mint string, from, to domain.PositionStatus, nowMs int64) error {
	if !to.IsValid() {
		return storage.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET status = ?, updated_at = ? WHERE mint = ? AND status = ?`,
		string(to), nowMs, mint, string(from),
	)
	if err != nil {
		return fmt.Errorf("transition position: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition position: %w", err)
	}
	if n == 1 {
		return nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM positions WHERE mint = ?`, mint).Scan(&count); err != nil {
		return fmt.Errorf("check position: %w", err)
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrDuplicateKey
}

func (s *PositionStore) list(ctx context.Context, query string, args ...any) ([]*domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanPosition(row scanner) (*domain.Position, error) {
	var (
		p                    domain.Position
		entry, tokens, spent string
		contributors, status string
	)
	if err := row.Scan(
		&p.Mint, &p.Pool, &p.Score, &entry, &tokens, &spent,
		&contributors, &p.Payload, &status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if p.EntryPrice, err = decimal.NewFromString(entry); err != nil {
		return nil, fmt.Errorf("parse entry_price: %w", err)
	}
	if p.TokenAmount, err = decimal.NewFromString(tokens); err != nil {
		return nil, fmt.Errorf("parse token_amount: %w", err)
	}
	if p.SpentLamports, err = decimal.NewFromString(spent); err != nil {
		return nil, fmt.Errorf("parse spent_lamports: %w", err)
	}
	if err := json.Unmarshal([]byte(contributors), &p.Contributors); err != nil {
		return nil, fmt.Errorf("unmarshal contributors: %w", err)
	}
	p.Status = domain.PositionStatus(status)
	return &p, nil
}
