package engine

import (
	"strings"

	"taskline/internal/codec"
	"taskline/internal/domain"
	"taskline/internal/errs"
)

// requireText rejects blank values and values the line format cannot hold.
func requireText(op, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return errs.Validation(op, field, "must not be blank")
	}
	return optionalText(op, field, v)
}

func optionalText(op, field, v string) error {
	if codec.ContainsReserved(v) {
		return errs.Validation(op, field, "must not contain '"+codec.Delimiter+"' or line breaks")
	}
	return nil
}

// Passwords are hashed before storage, so only blankness matters.
func validateCredentials(op, username, password string) error {
	if err := requireText(op, "username", username); err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return errs.Validation(op, "password", "must not be blank")
	}
	return nil
}

func validateRole(op string, role domain.Role) error {
	if _, err := domain.ParseRole(string(role)); err != nil {
		return errs.Validation(op, "role", "must be ADMIN or MATE")
	}
	return nil
}
