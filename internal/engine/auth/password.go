package auth

import (
	"github.com/alexedwards/argon2id"

	"taskline/internal/errs"
)

// Argon2Hasher hashes passwords with argon2id using Params.
type Argon2Hasher struct {
	Params *argon2id.Params
}

func NewArgon2Hasher() Argon2Hasher {
	return Argon2Hasher{Params: argon2id.DefaultParams}
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	params := h.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	hash, err := argon2id.CreateHash(password, params)
	if err != nil {
		return "", errs.E(errs.OperationFailure, "password.hash", err)
	}
	return hash, nil
}

// Verify reports whether password matches hash. A hash that cannot be
// parsed is reported as a mismatch with an error.
func (h Argon2Hasher) Verify(password, hash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, errs.E(errs.MalformedRecord, "password.verify", err)
	}
	return ok, nil
}
