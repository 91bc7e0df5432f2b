// internal/app/features/members/handler.go
package members

import (
	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for Members.
// Every read is filtered by the caller's church scope first.
type Handler struct {
	Members  store.Members
	Churches store.Churches
	History  store.History
	Scopes   *churchscope.Resolver
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(be store.Backend, scopes *churchscope.Resolver, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Members:  be.Members,
		Churches: be.Churches,
		History:  be.History,
		Scopes:   scopes,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
