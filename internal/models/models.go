package models

import "time"

// User represents a registered account. Email is unique; the password is
// stored only as a bcrypt hash.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expense is an active ledger record. It belongs to exactly one user and
// ownership never changes. Date is a calendar date in yyyy-mm-dd form;
// Amount is in the smallest currency unit.
type Expense struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Date        string    `json:"date"`
	Title       string    `json:"title"`
	Amount      int64     `json:"amount"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeletedExpense is an expense that has been moved to the deleted table.
// CreatedAt/UpdatedAt are carried over from the source row; DeletedAt is
// stamped at move time.
type DeletedExpense struct {
	Expense
	DeletedAt time.Time `json:"deleted_at"`
}

// ExpenseSummary is the light projection returned by list endpoints.
type ExpenseSummary struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Title  string `json:"title"`
	Amount int64  `json:"amount"`
}

// Summary returns the list projection of an expense.
func (e Expense) Summary() ExpenseSummary {
	return ExpenseSummary{ID: e.ID, Date: e.Date, Title: e.Title, Amount: e.Amount}
}
