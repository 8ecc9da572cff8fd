package note

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orchestrix/apiresponder/pkg/apiresponse"
	"github.com/orchestrix/apiresponder/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id          UUID PRIMARY KEY,
	title       TEXT NOT NULL,
	body        TEXT NOT NULL DEFAULT '',
	priority    INTEGER NOT NULL DEFAULT 3,
	tags        TEXT[] NOT NULL DEFAULT '{}',
	remind_cron TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS notes_created_at_idx ON notes (created_at, id);
`

const noteColumns = `id, title, body, priority, tags, remind_cron, created_at, updated_at`

// PostgresRepository stores notes in Postgres
type PostgresRepository struct {
	db database.Querier
}

func NewPostgresRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the notes table if it does not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "migrate notes")
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, page, limit int) (apiresponse.Page[*Note], error) {
	return database.Paginate(ctx, r.db,
		`SELECT COUNT(*) FROM notes`,
		`SELECT `+noteColumns+` FROM notes ORDER BY created_at, id`,
		page, limit, pgx.RowToAddrOfStructByName[Note],
	)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Note, error) {
	rows, err := r.db.Query(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	if err != nil {
		return nil, errors.Wrap(err, "query note")
	}
	n, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Note])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan note")
	}
	return n, nil
}

func (r *PostgresRepository) Create(ctx context.Context, n *Note) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.Title, n.Body, n.Priority, n.Tags, n.RemindCron, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert note")
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, n *Note) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE notes SET title = $2, body = $3, priority = $4, tags = $5, remind_cron = $6, updated_at = $7 WHERE id = $1`,
		n.ID, n.Title, n.Body, n.Priority, n.Tags, n.RemindCron, n.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update note")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete note")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
