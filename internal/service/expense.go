package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Seungho-Jeong/accountbooks/internal/apperr"
	"github.com/Seungho-Jeong/accountbooks/internal/models"
	"github.com/Seungho-Jeong/accountbooks/internal/storage"
	"github.com/Seungho-Jeong/accountbooks/internal/validation"
)

const dateLayout = "2006-01-02"

// Expenses decides who may read, mutate, delete and restore an expense,
// and orchestrates the cross-table moves.
type Expenses struct {
	db *storage.DB
}

// NewExpenses creates the expense service.
func NewExpenses(db *storage.DB) *Expenses {
	return &Expenses{db: db}
}

// ListQuery carries the optional list filters as received from the query
// string. Empty strings mean the parameter was absent.
type ListQuery struct {
	Keyword   string
	Date      string
	StartDate string
	EndDate   string
}

// List returns the caller's active expenses. At most one filter predicate
// applies; when several parameters are supplied the last one evaluated
// wins (keyword, then date, then range), matching established client
// behavior. A range with start after end is rejected before any query.
func (s *Expenses) List(callerID int64, q ListQuery) ([]models.ExpenseSummary, error) {
	filter := storage.ListFilter{}
	if q.Keyword != "" {
		filter = storage.ListFilter{Kind: storage.FilterKeyword, Keyword: q.Keyword}
	}
	if q.Date != "" {
		filter = storage.ListFilter{Kind: storage.FilterDate, Date: q.Date}
	}
	if q.StartDate != "" && q.EndDate != "" {
		if q.StartDate > q.EndDate {
			return nil, apperr.InvalidValue("'end-date' must greater than 'start-date'.")
		}
		filter = storage.ListFilter{Kind: storage.FilterRange, Start: q.StartDate, End: q.EndDate}
	}

	return s.db.ListExpenses(callerID, filter)
}

// ListDeleted returns the caller's deleted expenses.
func (s *Expenses) ListDeleted(callerID int64) ([]models.ExpenseSummary, error) {
	return s.db.ListDeletedExpenses(callerID)
}

// Get returns the full record of an active expense. Existence is checked
// before ownership, so a nonexistent id is NotFound for everyone.
func (s *Expenses) Get(callerID, id int64) (*models.Expense, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound()
		}
		return nil, err
	}
	if expense.OwnerID != callerID {
		return nil, apperr.Permission()
	}
	return expense, nil
}

// GetDeleted returns the full record of a deleted expense under the same
// existence-then-ownership rule as Get.
func (s *Expenses) GetDeleted(callerID, id int64) (*models.DeletedExpense, error) {
	expense, err := s.db.GetDeletedExpense(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound()
		}
		return nil, err
	}
	if expense.OwnerID != callerID {
		return nil, apperr.Permission()
	}
	return expense, nil
}

// Create validates the payload and inserts a new expense owned by the
// caller. Title, date and amount are required; description is optional.
func (s *Expenses) Create(callerID int64, body []byte) (*models.Expense, error) {
	p, err := validation.Parse(body)
	if err != nil {
		return nil, err
	}
	if err := p.Require("title", "date", "amount"); err != nil {
		return nil, err
	}
	if err := p.Validate("title", "date", "amount", "description"); err != nil {
		return nil, err
	}
	if err := checkDate(p.String("date")); err != nil {
		return nil, err
	}

	var description *string
	if p.Has("description") {
		d := p.String("description")
		description = &d
	}

	return s.db.CreateExpense(callerID, p.String("title"), p.String("date"), p.Int("amount"), description)
}

// Edit applies the fields present in the payload to an expense the caller
// owns and bumps its modification timestamp. Absent fields keep their
// stored values.
func (s *Expenses) Edit(callerID, id int64, body []byte) error {
	expense, err := s.Get(callerID, id)
	if err != nil {
		return err
	}

	p, err := validation.Parse(body)
	if err != nil {
		return err
	}
	if err := p.Validate("title", "date", "amount", "description"); err != nil {
		return err
	}
	if p.Has("date") {
		if err := checkDate(p.String("date")); err != nil {
			return err
		}
		expense.Date = p.String("date")
	}
	if p.Has("title") {
		expense.Title = p.String("title")
	}
	if p.Has("amount") {
		expense.Amount = p.Int("amount")
	}
	if p.Has("description") {
		d := p.String("description")
		expense.Description = &d
	}

	return s.db.UpdateExpense(expense)
}

// Delete moves an expense the caller owns into the deleted table. The
// move is atomic: the expense is never visible in both tables, or neither.
func (s *Expenses) Delete(callerID, id int64) error {
	if _, err := s.Get(callerID, id); err != nil {
		return err
	}
	if err := s.db.MoveExpenseToDeleted(id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound()
		}
		return err
	}
	return nil
}

// Restore moves a deleted expense the caller owns back into the active
// table, dropping its deletion timestamp and assigning a fresh id.
func (s *Expenses) Restore(callerID, id int64) error {
	if _, err := s.GetDeleted(callerID, id); err != nil {
		return err
	}
	if err := s.db.RestoreDeletedExpense(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound()
		}
		return err
	}
	return nil
}

func checkDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return apperr.InvalidValue("date format must be 'yyyy-mm-dd'.")
	}
	return nil
}
