package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// CheckpointStore implements storage.CheckpointStore using SQLite.
type CheckpointStore struct {
	db *DB
}

// NewCheckpointStore creates a new CheckpointStore.
func NewCheckpointStore(db *DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

const checkpointColumns = `mint, checkpoint_pct, sellers, sell_tokens, gain_pct, price_now, payload, created_at`

// Create adds a new execution. Returns ErrDuplicateKey if (mint, checkpoint_pct) exists.
func (s *CheckpointStore) Create(ctx context.Context, e *domain.CheckpointExecution) error {
	if e == nil || e.Mint == "" || e.CheckpointPct <= 0 {
		return storage.ErrInvalidInput
	}

	sellers, err := json.Marshal(e.Sellers)
	if err != nil {
		return fmt.Errorf("marshal sellers: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoint_executions (`+checkpointColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Mint, e.CheckpointPct, string(sellers), e.SellTokens.String(),
		e.GainPct, e.PriceNow.String(), e.Payload, e.CreatedAt,
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
	row := s.db.QueryRowContext(ctx,
		`SELECT `+checkpointColumns+` FROM checkpoint_executions WHERE mint = ? AND checkpoint_pct = ?`, mint, pct)
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkpointColumns+` FROM checkpoint_executions WHERE mint = ? ORDER BY checkpoint_pct ASC`, mint)
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
	return result, rows.Err()
}

func scanCheckpoint(row scanner) (*domain.CheckpointExecution, error) {
	var (
		e                   domain.CheckpointExecution
		sellers             string
		sellTokens, priceAt string
	)
	if err := row.Scan(
		&e.Mint, &e.CheckpointPct, &sellers, &sellTokens, &e.GainPct, &priceAt, &e.Payload, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if e.SellTokens, err = decimal.NewFromString(sellTokens); err != nil {
		return nil, fmt.Errorf("parse sell_tokens: %w", err)
	}
	if e.PriceNow, err = decimal.NewFromString(priceAt); err != nil {
		return nil, fmt.Errorf("parse price_now: %w", err)
	}
	if err := json.Unmarshal([]byte(sellers), &e.Sellers); err != nil {
		return nil, fmt.Errorf("unmarshal sellers: %w", err)
	}
	return &e, nil
}
