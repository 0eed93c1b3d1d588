package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"checkin-service/internal/apperr"
	"checkin-service/internal/model"
	"checkin-service/internal/store"
)

// dummyHash is compared against when the username does not exist, so the
// unknown-username and wrong-password paths cost the same and stay
// indistinguishable to the caller.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("checkin-gate-dummy"), bcrypt.DefaultCost)

// Gate validates credentials and produces the Identity all other
// operations are scoped by. No session state is kept here; the handler
// layer issues whatever token it wants from the returned user.
type Gate struct {
	users store.UserStore
}

func NewGate(users store.UserStore) *Gate {
	return &Gate{users: users}
}

// Authenticate looks the user up by exact, case-sensitive username and
// compares the secret against the stored bcrypt hash. Unknown username and
// wrong password both fail with InvalidCredentials.
func (g *Gate) Authenticate(ctx context.Context, username, secret string) (model.User, error) {
	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a compare anyway to keep timing uniform.
			bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
			return model.User{}, apperr.New(apperr.InvalidCredentials, "invalid username or password")
		}
		return model.User{}, apperr.Wrap(err, apperr.Internal, "looking up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(secret)); err != nil {
		return model.User{}, apperr.New(apperr.InvalidCredentials, "invalid username or password")
	}

	return user, nil
}

// HashSecret hashes a plaintext secret for storage.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "hashing secret")
	}
	return string(hash), nil
}
