// Package service holds the business rules: user registration and
// credential checks, and the expense ownership and lifecycle decisions.
package service

import (
	"database/sql"
	"errors"

	"github.com/Seungho-Jeong/accountbooks/internal/apperr"
	"github.com/Seungho-Jeong/accountbooks/internal/auth"
	"github.com/Seungho-Jeong/accountbooks/internal/models"
	"github.com/Seungho-Jeong/accountbooks/internal/storage"
	"github.com/Seungho-Jeong/accountbooks/internal/validation"
)

// Users implements sign-up, sign-in and caller resolution.
type Users struct {
	db     *storage.DB
	tokens *auth.TokenIssuer
}

// NewUsers creates the user service.
func NewUsers(db *storage.DB, tokens *auth.TokenIssuer) *Users {
	return &Users{db: db, tokens: tokens}
}

// SignUp validates and registers a new user. The duplication check runs
// before password validation, so a taken email always reports Duplication
// regardless of the password supplied.
func (s *Users) SignUp(body []byte) error {
	p, err := validation.Parse(body)
	if err != nil {
		return err
	}

	if err := p.Require("email"); err != nil {
		return err
	}
	if err := p.Validate("email"); err != nil {
		return err
	}
	email := p.String("email")

	if _, err := s.db.GetUserByEmail(email); err == nil {
		return apperr.Duplication(email)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if err := p.Require("password"); err != nil {
		return err
	}
	if err := p.Validate("password"); err != nil {
		return err
	}

	hash, err := auth.HashPassword(p.String("password"))
	if err != nil {
		return err
	}

	if _, err := s.db.CreateUser(email, hash); err != nil {
		// A concurrent sign-up may win the race after our existence check;
		// the unique index reports it the same way.
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return apperr.Duplication(email)
		}
		return err
	}
	return nil
}

// SignIn checks credentials and returns a signed token. Unknown email and
// wrong password yield the identical message so accounts cannot be
// enumerated.
func (s *Users) SignIn(body []byte) (string, error) {
	p, err := validation.Parse(body)
	if err != nil {
		return "", err
	}

	if err := p.Require("email", "password"); err != nil {
		return "", err
	}

	// The lookup runs first: a non-string email never matches a row and
	// falls into the same answer as an unknown one.
	user, err := s.db.GetUserByEmail(p.String("email"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.InvalidValue("invalid 'email' or 'password'.")
		}
		return "", err
	}

	if p["password"].Kind != validation.KindString {
		return "", apperr.InvalidValue("invalid data type. (email: str, password: str)")
	}
	if !auth.CheckPassword(p.String("password"), user.PasswordHash) {
		return "", apperr.InvalidValue("invalid 'email' or 'password'.")
	}

	return s.tokens.Issue(user.ID)
}

// Resolve looks up the user a verified token refers to. A token whose
// user row no longer exists is treated as an expired credential.
func (s *Users) Resolve(userID int64) (*models.User, error) {
	user, err := s.db.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Unauthorized()
		}
		return nil, err
	}
	return user, nil
}
