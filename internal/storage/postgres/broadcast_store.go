package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// BroadcastStore implements storage.BroadcastStore using PostgreSQL.
type BroadcastStore struct {
	pool *Pool
}

// NewBroadcastStore creates a new BroadcastStore.
func NewBroadcastStore(pool *Pool) *BroadcastStore {
	return &BroadcastStore{pool: pool}
}

var _ storage.BroadcastStore = (*BroadcastStore)(nil)

const broadcastColumns = `id, kind, mint, checkpoint_pct, signature, error, confirmed_by, created_at`

// Insert appends a receipt. Returns ErrDuplicateKey if id exists.
func (s *BroadcastStore) Insert(ctx context.Context, b *domain.Broadcast) error {
	if b == nil || b.ID == "" || b.Mint == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO broadcasts (`+broadcastColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		b.ID,
		string(b.Kind),
		b.Mint,
		b.CheckpointPct,
		b.Signature,
		b.Error,
		b.ConfirmedBy,
		b.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert broadcast: %w", err)
	}
	return nil
}

// LastSuccess returns the earliest successful receipt for an action.
func (s *BroadcastStore) LastSuccess(ctx context.Context, ref domain.ActionRef) (*domain.Broadcast, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+broadcastColumns+`
		FROM broadcasts
		WHERE mint = $1 AND kind = $2 AND checkpoint_pct = $3
		  AND signature <> '' AND error = ''
		ORDER BY created_at ASC
		LIMIT 1
	`, ref.Mint, string(ref.Kind), ref.CheckpointPct)

	b, err := scanBroadcast(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get last broadcast: %w", err)
	}
	return b, nil
}

// ListByMint retrieves receipts for a mint, ordered by created_at ASC.
func (s *BroadcastStore) ListByMint(ctx context.Context, mint string) ([]*domain.Broadcast, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+broadcastColumns+`
		FROM broadcasts
		WHERE mint = $1
		ORDER BY created_at ASC, id ASC
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("list broadcasts: %w", err)
	}
	defer rows.Close()

	var result []*domain.Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, fmt.Errorf("scan broadcast: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate broadcasts: %w", err)
	}
	return result, nil
}

func scanBroadcast(row pgx.Row) (*domain.Broadcast, error) {
	var (
		b    domain.Broadcast
		kind string
	)
	if err := row.Scan(
		&b.ID, &kind, &b.Mint, &b.CheckpointPct, &b.Signature, &b.Error, &b.ConfirmedBy, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.Kind = domain.ActionKind(kind)
	return &b, nil
}
