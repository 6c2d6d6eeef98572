// Package sqlrepo implements users.UserRepo on database/sql. SQLite (modernc)
// and PostgreSQL (lib/pq) are supported; queries are written with '?'
// placeholders and rebound for PostgreSQL.
package sqlrepo

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/users"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS identities (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    username   TEXT    NOT NULL,
    email      TEXT    NOT NULL DEFAULT '',
    role       TEXT    NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT 1,
    credential TEXT    NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS identities_username_lower_unique
ON identities (LOWER(username));
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS identities (
    id         BIGSERIAL PRIMARY KEY,
    username   text        NOT NULL,
    email      text        NOT NULL DEFAULT '',
    role       text        NOT NULL,
    active     boolean     NOT NULL DEFAULT true,
    credential text        NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS identities_username_lower_unique
ON identities (LOWER(username));
`

// postgresSyncSequence moves the id sequence past rows written with an
// explicit id, so later inserts that rely on BIGSERIAL do not collide.
const postgresSyncSequence = `SELECT setval(pg_get_serial_sequence('identities', 'id'), (SELECT MAX(id) FROM identities))`

const selectColumns = `SELECT id, username, email, role, active, credential FROM identities`

var _ users.UserRepo = (*SQLUserRepo)(nil)

type SQLUserRepo struct {
	db     *sql.DB
	driver string
}

// Open connects to the database, verifies the connection and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLUserRepo, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, errors.Errorf("[sqlrepo.Open] unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlrepo.Open] sql.Open")
	}
	if driver == DriverSQLite {
		// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlrepo.Open] ping")
	}

	repo := New(db, driver)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func New(db *sql.DB, driver string) *SQLUserRepo {
	return &SQLUserRepo{db: db, driver: driver}
}

// Migrate creates the identities table if it does not exist.
func (r *SQLUserRepo) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if r.driver == DriverPostgres {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "[SQLUserRepo.Migrate] exec")
		}
	}
	return nil
}

func (r *SQLUserRepo) Close() error {
	return r.db.Close()
}

func (r *SQLUserRepo) GetByID(ctx context.Context, id int64) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(selectColumns+` WHERE id = ?`), id)
	user, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrap(err, "[SQLUserRepo.GetByID]")
	}
	return user, nil
}

func (r *SQLUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(selectColumns+` WHERE LOWER(username) = LOWER(?)`), username)
	user, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrap(err, "[SQLUserRepo.GetByUsername]")
	}
	return user, nil
}

func (r *SQLUserRepo) PersistCredential(ctx context.Context, id int64, credential string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`
		UPDATE identities
		SET credential = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`), credential, id)
	if err != nil {
		return false, errors.Wrap(err, "[SQLUserRepo.PersistCredential] exec")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "[SQLUserRepo.PersistCredential] rows affected")
	}
	return n == 1, nil
}

func (r *SQLUserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user == nil {
		return errors.New("[SQLUserRepo.Upsert] user is nil")
	}

	if user.ID == 0 {
		err := r.db.QueryRowContext(ctx, r.rebind(`
			INSERT INTO identities (username, email, role, active, credential)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id
		`), user.Username, user.Email, string(user.Role), user.Active, user.Credential).Scan(&user.ID)
		if err != nil {
			return errors.Wrap(err, "[SQLUserRepo.Upsert] insert")
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "[SQLUserRepo.Upsert] begin")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, r.rebind(`
		INSERT INTO identities (id, username, email, role, active, credential)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username   = excluded.username,
			email      = excluded.email,
			role       = excluded.role,
			active     = excluded.active,
			credential = excluded.credential,
			updated_at = CURRENT_TIMESTAMP
	`), user.ID, user.Username, user.Email, string(user.Role), user.Active, user.Credential)
	if err != nil {
		return errors.Wrap(err, "[SQLUserRepo.Upsert] upsert")
	}
	if stmt := r.sequenceSyncStatement(); stmt != "" {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "[SQLUserRepo.Upsert] sync sequence")
		}
	}
	return errors.Wrap(tx.Commit(), "[SQLUserRepo.Upsert] commit")
}

// sequenceSyncStatement returns the statement that realigns the id sequence
// after an explicit-id write. SQLite's AUTOINCREMENT already tracks the
// largest id, so it needs none.
func (r *SQLUserRepo) sequenceSyncStatement() string {
	if r.driver == DriverPostgres {
		return postgresSyncSequence
	}
	return ""
}

func (r *SQLUserRepo) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, r.rebind(selectColumns+` ORDER BY id LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "[SQLUserRepo.List] query")
	}
	defer rows.Close()

	userList := make([]*users.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[SQLUserRepo.List]")
		}
		userList = append(userList, user)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[SQLUserRepo.List] rows")
	}
	return userList, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		user users.User
		role string
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &role, &user.Active, &user.Credential)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	user.Role = users.RoleType(role)
	return &user, nil
}

// rebind rewrites '?' placeholders as $1..$n for PostgreSQL.
func (r *SQLUserRepo) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
