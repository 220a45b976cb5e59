package repository

import (
	"context"
	"encoding/json"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/deppfellow/testtable-service/internal/model"
	"github.com/deppfellow/testtable-service/internal/model/testtable"
)

// DBTX is the subset of *pgxpool.Pool the repositories use.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const testTableColumns = `id, name, event_date, event_timestamp, metadata, created_at, updated_at`

const (
	selectAllTestTables = `SELECT ` + testTableColumns + ` FROM test_table`

	selectTestTableByID = `SELECT ` + testTableColumns + ` FROM test_table WHERE id = $1`

	insertTestTable = `INSERT INTO test_table (` + testTableColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING ` + testTableColumns

	// updated_at never moves backwards, even if the clock does.
	updateTestTable = `UPDATE test_table
SET name = $2, event_date = $3, event_timestamp = $4, metadata = $5, updated_at = GREATEST($6, updated_at)
WHERE id = $1
RETURNING ` + testTableColumns

	deleteTestTable = `DELETE FROM test_table WHERE id = $1`

	existsTestTable = `SELECT EXISTS (SELECT 1 FROM test_table WHERE id = $1)`
)

// TestTableRepository persists TestTable rows. Mutations each run in their
// own transaction.
type TestTableRepository struct {
	db    DBTX
	now   func() time.Time
	newID func() uuid.UUID
}

type Option func(*TestTableRepository)

// WithClock replaces the clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *TestTableRepository) { r.now = now }
}

// WithIDGenerator replaces uuid.New for inserted rows.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(r *TestTableRepository) { r.newID = newID }
}

func NewTestTableRepository(db DBTX, opts ...Option) *TestTableRepository {
	r := &TestTableRepository{db: db, now: time.Now, newID: uuid.New}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// timestamp matches PostgreSQL's microsecond precision so the value written
// is the value read back.
func (r *TestTableRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// FindAll streams every row. Each range over the sequence runs a new query;
// stopping early releases the rows.
func (r *TestTableRepository) FindAll(ctx context.Context) iter.Seq2[*testtable.TestTable, error] {
	return func(yield func(*testtable.TestTable, error) bool) {
		rows, err := r.db.Query(ctx, selectAllTestTables)
		if err != nil {
			yield(nil, errors.Wrap(err, "query test_table"))
			return
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTestTable(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(t, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, errors.Wrap(err, "iterate test_table"))
		}
	}
}

// FindByID returns nil, nil when no row has id.
func (r *TestTableRepository) FindByID(ctx context.Context, id uuid.UUID) (*testtable.TestTable, error) {
	t, err := scanTestTable(r.db.QueryRow(ctx, selectTestTableByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select test_table %s", id)
	}
	return t, nil
}

// Insert stores a new row with a generated id and created_at = updated_at.
func (r *TestTableRepository) Insert(ctx context.Context, f testtable.Fields) (*testtable.TestTable, error) {
	metadata, err := json.Marshal(f.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "encode metadata")
	}

	id := r.newID()
	var inserted *testtable.TestTable
	err = inTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		inserted, err = scanTestTable(tx.QueryRow(ctx, insertTestTable,
			id, f.Name, f.EventDate.Time(), f.EventTimestamp, metadata, r.timestamp()))
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "insert test_table %s", id)
	}
	return inserted, nil
}

// Update replaces the mutable fields of id. It returns nil, nil and writes
// nothing when the row does not exist.
func (r *TestTableRepository) Update(ctx context.Context, id uuid.UUID, f testtable.Fields) (*testtable.TestTable, error) {
	metadata, err := json.Marshal(f.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "encode metadata")
	}

	var updated *testtable.TestTable
	err = inTx(ctx, r.db, func(tx pgx.Tx) error {
		t, err := scanTestTable(tx.QueryRow(ctx, updateTestTable,
			id, f.Name, f.EventDate.Time(), f.EventTimestamp, metadata, r.timestamp()))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		updated = t
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "update test_table %s", id)
	}
	return updated, nil
}

// DeleteByID reports whether a row was removed.
func (r *TestTableRepository) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteTestTable, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "delete test_table %s", id)
	}
	return deleted, nil
}

func (r *TestTableRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsTestTable, id).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "exists test_table %s", id)
	}
	return exists, nil
}

func scanTestTable(row pgx.Row) (*testtable.TestTable, error) {
	var (
		t         testtable.TestTable
		id        string
		eventDate time.Time
		metadata  []byte
	)

	if err := row.Scan(&id, &t.Name, &eventDate, &t.EventTimestamp, &metadata, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, &model.DataIntegrityError{Resource: testtable.Resource, Column: "id", Err: err}
	}
	t.ID = parsed
	t.EventDate = model.DateOf(eventDate)

	t.Metadata, err = testtable.UnmarshalMetadata(metadata)
	if err != nil {
		return nil, &model.DataIntegrityError{Resource: testtable.Resource, ID: t.ID, Column: "metadata", Err: err}
	}

	return &t, nil
}
