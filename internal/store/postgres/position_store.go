package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/krazyTry/lpbot/internal/store"
)

// PositionStore implements store.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

var _ store.PositionStore = (*PositionStore)(nil)

func (s *PositionStore) Insert(ctx context.Context, p *store.Position) error {
	if err := store.Validate(p); err != nil {
		return err
	}
	status := p.Status
	if status == "" {
		status = store.StatusSubmitted
	}

	query := `
		INSERT INTO positions (
			signature, user_id, wallet, pool, position, min_bin_id, max_bin_id,
			amount_x, amount_y, status, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, CAST($8::text AS NUMERIC), CAST($9::text AS NUMERIC), $10, $11)
	`
	_, err := s.pool.Exec(ctx, query,
		p.Signature,
		p.UserID,
		p.Wallet,
		p.Pool,
		p.Position,
		p.MinBinID,
		p.MaxBinID,
		strconv.FormatUint(p.AmountX, 10),
		strconv.FormatUint(p.AmountY, 10),
		string(status),
		p.Error,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

func (s *PositionStore) UpdateStatus(ctx context.Context, signature string, status store.Status, errText string) error {
	query := `
		UPDATE positions SET status = $2, error = $3, updated_at = now()
		WHERE signature = $1
	`
	tag, err := s.pool.Exec(ctx, query, signature, string(status), errText)
	if err != nil {
		return fmt.Errorf("update position status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const selectColumns = `
	signature, user_id, wallet, pool, position, min_bin_id, max_bin_id,
	amount_x::text, amount_y::text, status, error, created_at, updated_at
`

func (s *PositionStore) GetBySignature(ctx context.Context, signature string) (*store.Position, error) {
	query := `SELECT ` + selectColumns + ` FROM positions WHERE signature = $1`

	p, err := scanPosition(s.pool.QueryRow(ctx, query, signature))
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get position by signature: %w", err)
	}
	return p, nil
}

func (s *PositionStore) ListByUser(ctx context.Context, userID string, limit int) ([]*store.Position, error) {
	query := `SELECT ` + selectColumns + `
		FROM positions
		WHERE user_id = $1
		ORDER BY created_at DESC, signature ASC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list positions by user: %w", err)
	}
	defer rows.Close()

	var result []*store.Position
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

func scanPosition(row pgx.Row) (*store.Position, error) {
	var (
		p                store.Position
		amountX, amountY string
		status           string
	)
	if err := row.Scan(
		&p.Signature,
		&p.UserID,
		&p.Wallet,
		&p.Pool,
		&p.Position,
		&p.MinBinID,
		&p.MaxBinID,
		&amountX,
		&amountY,
		&status,
		&p.Error,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if p.AmountX, err = strconv.ParseUint(amountX, 10, 64); err != nil {
		return nil, fmt.Errorf("amount_x %q: %w", amountX, err)
	}
	if p.AmountY, err = strconv.ParseUint(amountY, 10, 64); err != nil {
		return nil, fmt.Errorf("amount_y %q: %w", amountY, err)
	}
	p.Status = store.Status(status)
	return &p, nil
}
