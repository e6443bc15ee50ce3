package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	mint, pool, score, entry_price::text, token_amount::text, spent_lamports::text,
	contributors, payload, status, created_at, updated_at`

// Create inserts a position in one statement. An existing row is only
// overwritten when it is expired; otherwise no row is affected and
// ErrDuplicateKey is returned.
func (s *PositionStore) Create(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" || !p.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	contributors, err := json.Marshal(p.Contributors)
	if err != nil {
		return fmt.Errorf("marshal contributors: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO positions (
			mint, pool, score, entry_price, token_amount, spent_lamports,
			contributors, payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (mint) DO UPDATE SET
			pool           = EXCLUDED.pool,
			score          = EXCLUDED.score,
			entry_price    = EXCLUDED.entry_price,
			token_amount   = EXCLUDED.token_amount,
			spent_lamports = EXCLUDED.spent_lamports,
			contributors   = EXCLUDED.contributors,
			payload        = EXCLUDED.payload,
			status         = EXCLUDED.status,
			created_at     = EXCLUDED.created_at,
			updated_at     = EXCLUDED.updated_at
		WHERE positions.status = $12
	`,
		p.Mint,
		p.Pool,
		p.Score,
		p.EntryPrice.String(),
		p.TokenAmount.String(),
		p.SpentLamports.String(),
		contributors,
		p.Payload,
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
		string(domain.PositionExpired),
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// Get retrieves a position by mint. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(ctx context.Context, mint string) (*domain.Position, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+positionColumns+` FROM positions WHERE mint = $1`, mint)

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
	rows, err := s.pool.Query(ctx, `
		SELECT `+positionColumns+`
		FROM positions
		WHERE status = $1
		ORDER BY created_at ASC, mint ASC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list positions by status: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// List retrieves all positions ordered by created_at ASC.
func (s *PositionStore) List(ctx context.Context) ([]*domain.Position, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+positionColumns+`
		FROM positions
		ORDER BY created_at ASC, mint ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// Transition is a compare-and-set on status.
func (s *PositionStore) Transition(ctx context.Context, mint string, from, to domain.PositionStatus, nowMs int64) error {
	if !to.IsValid() {
		return storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE positions SET status = $3, updated_at = $4
		WHERE mint = $1 AND status = $2
	`, mint, string(from), string(to), nowMs)
	if err != nil {
		return fmt.Errorf("transition position: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM positions WHERE mint = $1)`, mint).Scan(&exists); err != nil {
		return fmt.Errorf("check position: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrDuplicateKey
}

func scanPosition(row pgx.Row) (*domain.Position, error) {
	var (
		p            domain.Position
		entry        string
		tokens       string
		spent        string
		contributors []byte
		status       string
	)
	if err := row.Scan(
		&p.Mint, &p.Pool, &p.Score, &entry, &tokens, &spent,
		&contributors, &p.Payload, &status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := parseDecimals(
		[]string{"entry_price", "token_amount", "spent_lamports"},
		[]string{entry, tokens, spent},
		[]*decimal.Decimal{&p.EntryPrice, &p.TokenAmount, &p.SpentLamports},
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contributors, &p.Contributors); err != nil {
		return nil, fmt.Errorf("unmarshal contributors: %w", err)
	}
	p.Status = domain.PositionStatus(status)
	return &p, nil
}

func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var result []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return result, nil
}
