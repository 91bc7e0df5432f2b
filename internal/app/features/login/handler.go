// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/churchroll/internal/app/features/errors"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/dalemusser/churchroll/internal/app/system/authutil"
	"github.com/dalemusser/churchroll/internal/app/system/formutil"
	"github.com/dalemusser/churchroll/internal/app/system/metrics"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/ratelimit"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.uber.org/zap"
)

// errBadCredentials is the single answer for unknown email, wrong password
// and inactive account.
var errBadCredentials = &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "Invalid email or password."}

type Handler struct {
	Users      store.Users
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Metrics    *metrics.Metrics
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(users store.Users, sm *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sm,
		Limiter:    limiter,
		AuditLog:   audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := formutil.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode login", err, "Invalid request body.")
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		h.ErrLog.Render(w, r, "login without credentials", apperr.Validation("Email and password are required."))
		return
	}
	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.Metrics.LoginLimited()
			h.Log.Warn("login rate limited", zap.String("email", email), zap.String("ip", ratelimit.ClientIP(r)))
			uierrors.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]string{"kind": "rate_limited", "message": msg},
			})
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.AuditLog.LoginFailed(ctx, nil, email, "user not found")
		h.ErrLog.Render(w, r, "login unknown email", errBadCredentials)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "load user for login", err)
		return
	}
	if !authutil.CheckPassword(in.Password, u.PasswordHash) {
		h.AuditLog.LoginFailed(ctx, &u.ID, email, "wrong password")
		h.ErrLog.Render(w, r, "login wrong password", errBadCredentials)
		return
	}
	if !u.IsActive {
		h.AuditLog.LoginFailed(ctx, &u.ID, email, "user inactive")
		h.ErrLog.Render(w, r, "login inactive user", errBadCredentials)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "save session", err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.Succeeded(email)
	}
	h.AuditLog.LoginSuccess(ctx, u.ID)
	uierrors.WriteJSON(w, http.StatusOK, profile(u))
}

// ServeMe handles GET /me and returns the signed-in user as the session
// layer loaded it.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Write(w, apperr.ErrUnauthenticated)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, su)
}

type profileResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func profile(u models.User) profileResponse {
	return profileResponse{ID: u.ID.Hex(), FullName: u.FullName, Email: u.Email, Role: u.Role}
}
