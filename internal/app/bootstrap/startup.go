// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/authutil"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("handler timeouts",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps.Backend.Users, appCfg, logger); err != nil {
			return fmt.Errorf("ensure superadmin: %w", err)
		}
	}
	return nil
}

// ensureSuperAdmin creates the configured superadmin when no account uses the
// email. An existing account is left alone: its password and role may have
// been changed since first boot.
func ensureSuperAdmin(ctx context.Context, users store.Users, appCfg AppConfig, logger *zap.Logger) error {
	email := normalize.Email(appCfg.SuperAdminEmail)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != authz.RoleSuperAdmin.String() {
			logger.Warn("superadmin_email belongs to a non-superadmin account; not promoting",
				zap.String("email", email), zap.String("role", existing.Role))
		} else if !existing.IsActive {
			logger.Warn("configured superadmin is deactivated", zap.String("email", email))
		}
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	hash, err := authutil.HashPassword(appCfg.SuperAdminPassword)
	if err != nil {
		return err
	}
	name := appCfg.SuperAdminName
	if normalize.Name(name) == "" {
		name = "Administrator"
	}
	u, err := users.Create(ctx, models.User{
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		Role:         authz.RoleSuperAdmin.String(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Another instance created it between our read and write.
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("created superadmin", zap.String("email", u.Email), zap.String("user_id", u.ID.Hex()))
	return nil
}
