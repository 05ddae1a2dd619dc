package model

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Employee is one entry of users.json.
type Employee struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Company string `json:"company" validate:"required"`
	// PIN is either a plain code (legacy files) or a bcrypt hash.
	PIN string `json:"pin" validate:"required"`
}

// Validate checks that every field of e is set.
func (e Employee) Validate() error {
	return validate.Struct(e)
}

// MatchPIN reports whether pin unlocks e.
func (e Employee) MatchPIN(pin string) bool {
	if pin == "" {
		return false
	}
	if isBcryptHash(e.PIN) {
		return bcrypt.CompareHashAndPassword([]byte(e.PIN), []byte(pin)) == nil
	}
	return e.PIN == pin
}

// HashPIN returns a bcrypt hash suitable for Employee.PIN.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
