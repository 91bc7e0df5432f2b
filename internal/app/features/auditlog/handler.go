// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/store"
	"go.uber.org/zap"
)

type Handler struct {
	Audit  store.AuditEvents
	Users  store.Users
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler over the audit and
// user repositories.
func NewHandler(be store.Backend, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:  be.Audit,
		Users:  be.Users,
		Log:    logger,
		ErrLog: errLog,
	}
}
