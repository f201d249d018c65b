package passcode

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCodeNotFound indicates no unused record matches the lookup, or the
// record was consumed by a concurrent redemption.
var ErrCodeNotFound = errors.New("passcode not found")

// Repository persists issued passcodes.
//
// MarkUsed is the serialization point for redemption: it flips the used
// flag only when it is still false, so of any number of concurrent
// redemption attempts against one record exactly one observes success.
type Repository interface {
	Create(ctx context.Context, userID, code string) (Record, error)
	// FindUnused returns the most recent unused record matching code.
	// When userID is non-empty both owner and code must match.
	FindUnused(ctx context.Context, userID, code string) (Record, error)
	MarkUsed(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed passcode repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new unused record.
func (r *PostgresRepository) Create(ctx context.Context, userID, code string) (Record, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.Exec(ctx, `INSERT INTO passcodes (id, user_id, code, created_at, used)
        VALUES ($1, $2, $3, $4, FALSE)`, uuid.MustParse(rec.ID), ownerID, rec.Code, rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// FindUnused looks up the most recent unused record for code, optionally
// scoped to a single owner.
func (r *PostgresRepository) FindUnused(ctx context.Context, userID, code string) (Record, error) {
	var row pgx.Row
	if userID != "" {
		ownerID, err := uuid.Parse(userID)
		if err != nil {
			return Record{}, ErrCodeNotFound
		}
		row = r.db.QueryRow(ctx, `SELECT id, user_id, code, created_at, used FROM passcodes
            WHERE user_id = $1 AND code = $2 AND used = FALSE
            ORDER BY created_at DESC LIMIT 1`, ownerID, code)
	} else {
		row = r.db.QueryRow(ctx, `SELECT id, user_id, code, created_at, used FROM passcodes
            WHERE code = $1 AND used = FALSE
            ORDER BY created_at DESC LIMIT 1`, code)
	}

	var (
		id, ownerID uuid.UUID
		rec         Record
		createdAt   time.Time
	)
	if err := row.Scan(&id, &ownerID, &rec.Code, &createdAt, &rec.Used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrCodeNotFound
		}
		return Record{}, err
	}
	rec.ID = id.String()
	rec.UserID = ownerID.String()
	rec.CreatedAt = createdAt.UTC()
	return rec, nil
}

// MarkUsed flips the used flag. The conditional update makes the
// check-then-mark sequence atomic per record: a concurrent redemption that
// already claimed the row leaves zero rows affected here.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	recID, err := uuid.Parse(id)
	if err != nil {
		return ErrCodeNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE passcodes SET used = TRUE WHERE id = $1 AND used = FALSE`, recID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}
