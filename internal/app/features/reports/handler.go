// internal/app/features/reports/handler.go
package reports

import (
	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves missionary reports and the member roster export.
type Handler struct {
	Reports  store.Reports
	Members  store.Members
	Churches store.Churches
	Scopes   *churchscope.Resolver
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(be store.Backend, scopes *churchscope.Resolver, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Reports:  be.Reports,
		Members:  be.Members,
		Churches: be.Churches,
		Scopes:   scopes,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
