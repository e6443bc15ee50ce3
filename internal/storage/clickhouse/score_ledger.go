package clickhouse

import (
	"context"
	"fmt"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// ScoreLedger implements storage.ScoreLedger on the score_observations table.
type ScoreLedger struct {
	conn *Conn
}

// NewScoreLedger creates a new ScoreLedger.
func NewScoreLedger(conn *Conn) *ScoreLedger {
	return &ScoreLedger{conn: conn}
}

var _ storage.ScoreLedger = (*ScoreLedger)(nil)

// Append records one observation. MergeTree does not deduplicate, so
// repeated observations of the same mint are all kept.
func (l *ScoreLedger) Append(ctx context.Context, o *domain.ScoreObservation) error {
	if o == nil || o.Mint == "" {
		return storage.ErrInvalidInput
	}

	batch, err := l.conn.PrepareBatch(ctx, `
		INSERT INTO score_observations (
			mint, pool, liquidity_sol, top5_pct, age_minutes,
			score, eligible_users, decision, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		o.Mint, o.Pool, o.Liquidity, o.Top5Pct, o.AgeMinutes,
		int16(o.Score), uint32(o.EligibleUsers), string(o.Decision), o.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ListByMint retrieves observations for a mint ordered by observed_at ASC.
func (l *ScoreLedger) ListByMint(ctx context.Context, mint string) ([]*domain.ScoreObservation, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT mint, pool, liquidity_sol, top5_pct, age_minutes,
		       score, eligible_users, decision, observed_at
		FROM score_observations
		WHERE mint = ?
		ORDER BY observed_at ASC
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var result []*domain.ScoreObservation
	for rows.Next() {
		var (
			o        domain.ScoreObservation
			score    int16
			eligible uint32
			decision string
		)
		if err := rows.Scan(
			&o.Mint, &o.Pool, &o.Liquidity, &o.Top5Pct, &o.AgeMinutes,
			&score, &eligible, &decision, &o.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		o.Score = int(score)
		o.EligibleUsers = int(eligible)
		o.Decision = domain.Decision(decision)
		result = append(result, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return result, nil
}
