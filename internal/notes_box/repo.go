package notes_box

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/householdnotes/internal/notes"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoteNotFound = errors.New("note not found")

const Schema = `
DO $$
BEGIN
    CREATE TYPE author_enum AS ENUM ('Ben', 'Wife');
EXCEPTION
    WHEN duplicate_object THEN NULL;
END $$;

CREATE TABLE IF NOT EXISTS notes
(
    id         SERIAL PRIMARY KEY,
    author     author_enum  NOT NULL,
    title      VARCHAR(255) NOT NULL,
    body       TEXT,
    created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS ix_notes_author ON notes (author);
`

const noteColumns = `id, author::text, title, body, created_at, updated_at`

// Repo keeps notes in PostgreSQL, in the same table layout the real backend uses.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate notes schema: %w", err)
	}
	return nil
}

func (r *Repo) Add(ctx context.Context, author notes.Author, title string, body *string) (*notes.Note, error) {
	if title == "" {
		return nil, errors.New("note title empty")
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO notes (author, title, body) VALUES ($1::author_enum, $2, $3) RETURNING `+noteColumns+`;`,
		string(author), title, body,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("unexpected error [no rows next]")
	}

	note, err := scanNote(rows)
	if err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return note, nil
}

func (r *Repo) Get(ctx context.Context, id int) (*notes.Note, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoteNotFound
	}

	return scanNote(rows)
}

func (r *Repo) Update(ctx context.Context, id int, patch notes.UpdateNotePayload) (*notes.Note, error) {
	rows, err := r.db.Query(
		ctx,
		`
			UPDATE notes
			SET
				title = COALESCE($1, title),
				body = COALESCE($2, body),
				updated_at = clock_timestamp()
			WHERE id = $3
			RETURNING `+noteColumns+`;`,
		patch.Title, patch.Body, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoteNotFound
	}

	return scanNote(rows)
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM notes WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context, filter notes.Filter) ([]notes.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes`
	var args []any
	if author, ok := filter.Author(); ok {
		query += ` WHERE author = $1::author_enum`
		args = append(args, string(author))
	}
	query += ` ORDER BY created_at DESC, id DESC;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []notes.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func scanNote(rows pgx.Rows) (*notes.Note, error) {
	var id int
	var author string
	var title string
	var body *string
	var createdAt time.Time
	var updatedAt time.Time
	if err := rows.Scan(&id, &author, &title, &body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return &notes.Note{
		Id:        id,
		Author:    notes.Author(author),
		Title:     title,
		Body:      body,
		CreatedAt: notes.NewTimestamp(createdAt),
		UpdatedAt: notes.NewTimestamp(updatedAt),
	}, nil
}
