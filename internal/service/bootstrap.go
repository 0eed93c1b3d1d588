package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"checkin-service/internal/model"
	"checkin-service/internal/store"
)

// EnsureDefaultAdmin creates the configured bootstrap admin on first start
// so a fresh deployment has a tenant to log into. It is a no-op once any
// admin account exists.
func EnsureDefaultAdmin(ctx context.Context, users store.UserStore, username, password string, log *zap.Logger) error {
	count, err := users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashSecret(password)
	if err != nil {
		return err
	}

	admin := model.User{
		ID:       uuid.NewString(),
		Username: username,
		Password: hash,
		Role:     model.RoleAdmin,
	}
	if err := users.Create(ctx, &admin); err != nil {
		// Another instance may have bootstrapped concurrently.
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}
		return err
	}

	log.Info("Default admin created", zap.String("username", username))
	return nil
}
