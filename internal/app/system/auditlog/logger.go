// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/churchroll/internal/app/store/audit"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout).
	// Values: "all" (store + zap), "db" (store only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin actions (transfers, members, churches, users).
	// Values: "all" (store + zap), "db" (store only), "log" (zap only), "off" (disabled)
	Admin string
}

// ValidMode reports whether s is one of the Config modes.
func ValidMode(s string) bool {
	switch s {
	case "all", "db", "log", "off":
		return true
	}
	return false
}

// Sink persists audit events. Both the MongoDB and in-memory stores satisfy it.
type Sink interface {
	Log(ctx context.Context, e audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// A failed write is logged and never returned: auditing must not fail the
// operation being audited.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		sink:   sink,
		zapLog: zapLog,
		config: config,
	}
}

/* ---------------------------- request meta ---------------------------- */

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

type meta struct {
	IP        string
	UserAgent string
	RequestID string
}

type metaKey struct{}

// Middleware records client IP, user agent and a request id in the context
// so audit events written deeper in the call chain carry them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		m := meta{IP: getClientIP(r), UserAgent: r.UserAgent(), RequestID: id}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), metaKey{}, m)))
	})
}

// RequestID returns the request id stored by Middleware, or "".
func RequestID(ctx context.Context) string {
	m, _ := ctx.Value(metaKey{}).(meta)
	return m.RequestID
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

/* ------------------------------- core -------------------------------- */

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	}
	return "all"
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("action", event.Action),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
		zap.String("request_id", event.RequestID),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.TableName != "" {
		fields = append(fields, zap.String("table", event.TableName))
	}
	if event.RecordID != nil {
		fields = append(fields, zap.String("record_id", event.RecordID.Hex()))
	}
	if event.ChurchID != nil {
		fields = append(fields, zap.String("church_id", event.ChurchID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration. A nil Logger is a
// no-op so tests and tools can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == "off" {
		return
	}

	if m, ok := ctx.Value(metaKey{}).(meta); ok {
		if event.IP == "" {
			event.IP = m.IP
		}
		if event.UserAgent == "" {
			event.UserAgent = m.UserAgent
		}
		if event.RequestID == "" {
			event.RequestID = m.RequestID
		}
	}
	audit.Prepare(&event)

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.sink != nil {
		if err := l.sink.Log(context.WithoutCancel(ctx), event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("action", event.Action),
				zap.String("request_id", event.RequestID),
			)
		}
	}
}

func oid(id primitive.ObjectID) *primitive.ObjectID { return &id }

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category: audit.CategoryAuth,
		Action:   audit.ActionLoginSuccess,
		UserID:   &userID,
		Success:  true,
	})
}

// LoginFailed logs a failed login. userID is nil when no account matched.
func (l *Logger) LoginFailed(ctx context.Context, userID *primitive.ObjectID, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		Action:        audit.ActionLoginFailed,
		UserID:        userID,
		NewValues:     map[string]any{"email": email},
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a logout.
func (l *Logger) Logout(ctx context.Context, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category: audit.CategoryAuth,
		Action:   audit.ActionLogout,
		UserID:   &userID,
		Success:  true,
	})
}

// --- Transfer Events ---

func (l *Logger) transfer(ctx context.Context, action string, actorID primitive.ObjectID, t models.TransferRequest, oldStatus string, extra map[string]any) {
	nv := map[string]any{
		"status":         t.Status,
		"member_id":      t.MemberID.Hex(),
		"from_church_id": t.FromChurchID.Hex(),
		"to_church_id":   t.ToChurchID.Hex(),
	}
	for k, v := range extra {
		nv[k] = v
	}
	var ov map[string]any
	if oldStatus != "" {
		ov = map[string]any{"status": oldStatus}
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		Action:    action,
		UserID:    &actorID,
		TableName: "transfer_requests",
		RecordID:  oid(t.ID),
		ChurchID:  oid(t.FromChurchID),
		OldValues: ov,
		NewValues: nv,
		Success:   true,
	})
}

// TransferRequested logs a new pending transfer request.
func (l *Logger) TransferRequested(ctx context.Context, actorID primitive.ObjectID, t models.TransferRequest) {
	l.transfer(ctx, audit.ActionTransferRequested, actorID, t, "", nil)
}

// TransferApproved logs an approval.
func (l *Logger) TransferApproved(ctx context.Context, actorID primitive.ObjectID, t models.TransferRequest) {
	t.Status = models.TransferApproved
	l.transfer(ctx, audit.ActionTransferApproved, actorID, t, models.TransferPending, nil)
}

// TransferRejected logs a rejection with its reason.
func (l *Logger) TransferRejected(ctx context.Context, actorID primitive.ObjectID, t models.TransferRequest, reason string) {
	t.Status = models.TransferRejected
	l.transfer(ctx, audit.ActionTransferRejected, actorID, t, models.TransferPending,
		map[string]any{"rejection_reason": reason})
}

// --- Member Events ---

// MemberCreated logs a new member.
func (l *Logger) MemberCreated(ctx context.Context, actorID primitive.ObjectID, m models.Member) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		Action:    audit.ActionMemberCreated,
		UserID:    &actorID,
		TableName: "members",
		RecordID:  oid(m.ID),
		ChurchID:  oid(m.ChurchID),
		NewValues: map[string]any{"full_name": m.FullName, "status": m.Status},
		Success:   true,
	})
}

// MemberStatusChanged logs a status change.
func (l *Logger) MemberStatusChanged(ctx context.Context, actorID primitive.ObjectID, m models.Member, oldStatus string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		Action:    audit.ActionMemberStatusChanged,
		UserID:    &actorID,
		TableName: "members",
		RecordID:  oid(m.ID),
		ChurchID:  oid(m.ChurchID),
		OldValues: map[string]any{"status": oldStatus},
		NewValues: map[string]any{"status": m.Status},
		Success:   true,
	})
}

// --- Church Events ---

func (l *Logger) church(ctx context.Context, action string, actorID, churchID primitive.ObjectID, nv map[string]any) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		Action:    action,
		UserID:    &actorID,
		TableName: "churches",
		RecordID:  oid(churchID),
		ChurchID:  oid(churchID),
		NewValues: nv,
		Success:   true,
	})
}

// ChurchCreated logs a new church.
func (l *Logger) ChurchCreated(ctx context.Context, actorID primitive.ObjectID, c models.Church) {
	l.church(ctx, audit.ActionChurchCreated, actorID, c.ID, map[string]any{
		"name": c.Name, "field": c.Field, "district": c.District,
	})
}

// ChurchUpdated logs an edit; fields lists what changed.
func (l *Logger) ChurchUpdated(ctx context.Context, actorID, churchID primitive.ObjectID, fields map[string]any) {
	l.church(ctx, audit.ActionChurchUpdated, actorID, churchID, fields)
}

// ChurchDeactivated logs a deactivation.
func (l *Logger) ChurchDeactivated(ctx context.Context, actorID, churchID primitive.ObjectID) {
	l.church(ctx, audit.ActionChurchDeactivated, actorID, churchID, map[string]any{"is_active": false})
}

// --- User Events ---

// UserCreated logs a new administrative account.
func (l *Logger) UserCreated(ctx context.Context, actorID primitive.ObjectID, u models.User) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		Action:    audit.ActionUserCreated,
		UserID:    &actorID,
		TableName: "users",
		RecordID:  oid(u.ID),
		NewValues: map[string]any{"email": u.Email, "role": u.Role},
		Success:   true,
	})
}

// UserDeactivated logs a deactivation.
func (l *Logger) UserDeactivated(ctx context.Context, actorID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		Action:    audit.ActionUserDeactivated,
		UserID:    &actorID,
		TableName: "users",
		RecordID:  oid(userID),
		NewValues: map[string]any{"is_active": false},
		Success:   true,
	})
}

// --- Report Events ---

// ReportFiled logs a missionary report.
func (l *Logger) ReportFiled(ctx context.Context, actorID primitive.ObjectID, r models.MissionaryReport) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		Action:    audit.ActionReportFiled,
		UserID:    &actorID,
		TableName: "missionary_reports",
		RecordID:  oid(r.ID),
		ChurchID:  oid(r.ChurchID),
		NewValues: map[string]any{"period": r.Period},
		Success:   true,
	})
}
