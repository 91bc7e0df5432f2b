// internal/app/features/systemusers/handler.go
package systemusers

import (
	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler manages administrative accounts. Every route is superadmin-only.
type Handler struct {
	Users    store.Users
	Churches store.Churches
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(be store.Backend, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    be.Users,
		Churches: be.Churches,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
