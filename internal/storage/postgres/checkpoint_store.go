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

// CheckpointStore implements storage.CheckpointStore using PostgreSQL.
type CheckpointStore struct {
	pool *Pool
}

// NewCheckpointStore creates a new CheckpointStore.
func NewCheckpointStore(pool *Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

const checkpointColumns = `
	mint, checkpoint_pct, sellers, sell_tokens::text, gain_pct, price_now::text, payload, created_at`

// Create adds a new execution. The primary key makes this the
// create-if-absent point: a concurrent second writer gets ErrDuplicateKey.
func (s *CheckpointStore) Create(ctx context.Context, e *domain.CheckpointExecution) error {
	if e == nil || e.Mint == "" || e.CheckpointPct <= 0 {
		return storage.ErrInvalidInput
	}

	sellers, err := json.Marshal(e.Sellers)
	if err != nil {
		return fmt.Errorf("marshal sellers: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO checkpoint_executions (
			mint, checkpoint_pct, sellers, sell_tokens, gain_pct, price_now, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		e.Mint,
		e.CheckpointPct,
		sellers,
		e.SellTokens.String(),
		e.GainPct,
		e.PriceNow.String(),
		e.Payload,
		e.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert checkpoint execution: %w", err)
	}
	return nil
}

// Get retrieves an execution. Returns ErrNotFound if not exists.
func (s *CheckpointStore) Get(ctx context.Context, mint string, pct int) (*domain.CheckpointExecution, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+checkpointColumns+`
		FROM checkpoint_executions
		WHERE mint = $1 AND checkpoint_pct = $2
	`, mint, pct)

	e, err := scanCheckpoint(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get checkpoint execution: %w", err)
	}
	return e, nil
}

// ListByMint retrieves executions for a mint, ordered by checkpoint_pct ASC.
func (s *CheckpointStore) ListByMint(ctx context.Context, mint string) ([]*domain.CheckpointExecution, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+checkpointColumns+`
		FROM checkpoint_executions
		WHERE mint = $1
		ORDER BY checkpoint_pct ASC
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("list checkpoint executions: %w", err)
	}
	defer rows.Close()

	var result []*domain.CheckpointExecution
	for rows.Next() {
		e, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkpoint execution: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoint executions: %w", err)
	}
	return result, nil
}

func scanCheckpoint(row pgx.Row) (*domain.CheckpointExecution, error) {
	var (
		e        domain.CheckpointExecution
		sellers  []byte
		sellTok  string
		priceNow string
	)
	if err := row.Scan(
		&e.Mint, &e.CheckpointPct, &sellers, &sellTok, &e.GainPct, &priceNow, &e.Payload, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := parseDecimals(
		[]string{"sell_tokens", "price_now"},
		[]string{sellTok, priceNow},
		[]*decimal.Decimal{&e.SellTokens, &e.PriceNow},
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sellers, &e.Sellers); err != nil {
		return nil, fmt.Errorf("unmarshal sellers: %w", err)
	}
	return &e, nil
}
