package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Seungho-Jeong/accountbooks/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrDuplicateEmail is returned when an insert hits the unique email index.
var ErrDuplicateEmail = errors.New("email already registered")

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			amount INTEGER NOT NULL,
			description TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS deleted_expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			amount INTEGER NOT NULL,
			description TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser creates a new user with the given email and password hash.
func (db *DB) CreateUser(email, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	result, err := db.conn.Exec(
		"INSERT INTO users (email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)",
		email, passwordHash, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = ?",
		id,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email (case-sensitive exact match).
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = ?",
		email,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateExpense inserts a new expense owned by ownerID with server-set
// creation and modification timestamps.
func (db *DB) CreateExpense(ownerID int64, title, date string, amount int64, description *string) (*models.Expense, error) {
	now := time.Now().UTC()
	result, err := db.conn.Exec(
		"INSERT INTO expenses (user_id, title, date, amount, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ownerID, title, date, amount, description, now, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetExpense(id)
}

// GetExpense retrieves a single active expense by ID.
func (db *DB) GetExpense(id int64) (*models.Expense, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, title, date, amount, description, created_at, updated_at FROM expenses WHERE id = ?",
		id,
	)

	var e models.Expense
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Date, &e.Amount, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateExpense writes the mutable fields of an expense and bumps its
// modification timestamp.
func (db *DB) UpdateExpense(e *models.Expense) error {
	e.UpdatedAt = time.Now().UTC()
	_, err := db.conn.Exec(
		"UPDATE expenses SET title = ?, date = ?, amount = ?, description = ?, updated_at = ? WHERE id = ?",
		e.Title, e.Date, e.Amount, e.Description, e.UpdatedAt, e.ID,
	)
	return err
}

// FilterKind selects which single list predicate applies.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterKeyword
	FilterDate
	FilterRange
)

// ListFilter narrows a list query. At most one predicate applies at a time.
type ListFilter struct {
	Kind    FilterKind
	Keyword string
	Date    string
	Start   string
	End     string
}

// ListExpenses returns the list projection of the active expenses owned
// by ownerID, optionally narrowed by a single filter predicate.
func (db *DB) ListExpenses(ownerID int64, filter ListFilter) ([]models.ExpenseSummary, error) {
	query := "SELECT id, date, title, amount FROM expenses WHERE user_id = ?"
	args := []any{ownerID}

	switch filter.Kind {
	case FilterKeyword:
		query += " AND title LIKE ?"
		args = append(args, "%"+filter.Keyword+"%")
	case FilterDate:
		query += " AND date = ?"
		args = append(args, filter.Date)
	case FilterRange:
		// Dates are stored as yyyy-mm-dd, so lexicographic comparison is
		// chronological.
		query += " AND date >= ? AND date <= ?"
		args = append(args, filter.Start, filter.End)
	}
	query += " ORDER BY id"

	return db.listSummaries(query, args...)
}

// ListDeletedExpenses returns the list projection of the deleted expenses
// owned by ownerID.
func (db *DB) ListDeletedExpenses(ownerID int64) ([]models.ExpenseSummary, error) {
	return db.listSummaries(
		"SELECT id, date, title, amount FROM deleted_expenses WHERE user_id = ? ORDER BY id",
		ownerID,
	)
}

func (db *DB) listSummaries(query string, args ...any) ([]models.ExpenseSummary, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []models.ExpenseSummary{}
	for rows.Next() {
		var s models.ExpenseSummary
		if err := rows.Scan(&s.ID, &s.Date, &s.Title, &s.Amount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GetDeletedExpense retrieves a single deleted expense by ID.
func (db *DB) GetDeletedExpense(id int64) (*models.DeletedExpense, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, title, date, amount, description, created_at, updated_at, deleted_at FROM deleted_expenses WHERE id = ?",
		id,
	)

	var e models.DeletedExpense
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Date, &e.Amount, &e.Description, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// MoveExpenseToDeleted relocates an active expense into deleted_expenses
// in one transaction. Every field except the id is carried over verbatim;
// deletedAt is stamped on the new row. Returns sql.ErrNoRows if the
// expense does not exist.
func (db *DB) MoveExpenseToDeleted(id int64, deletedAt time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO deleted_expenses (user_id, title, date, amount, description, created_at, updated_at, deleted_at)
		 SELECT user_id, title, date, amount, description, created_at, updated_at, ? FROM expenses WHERE id = ?`,
		deletedAt, id,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.Exec("DELETE FROM expenses WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

// RestoreDeletedExpense relocates a deleted expense back into expenses in
// one transaction. The deletion timestamp is dropped and the restored row
// gets a fresh id. Returns sql.ErrNoRows if the deleted expense does not
// exist.
func (db *DB) RestoreDeletedExpense(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO expenses (user_id, title, date, amount, description, created_at, updated_at)
		 SELECT user_id, title, date, amount, description, created_at, updated_at FROM deleted_expenses WHERE id = ?`,
		id,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.Exec("DELETE FROM deleted_expenses WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}
