package auditlog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/churchroll/internal/app/store/audit"
	"github.com/dalemusser/churchroll/internal/app/store/memstore"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func all(t *testing.T, b interface {
	Query(context.Context, audit.QueryFilter) ([]audit.Event, error)
}) []audit.Event {
	t.Helper()
	events, err := b.Query(context.Background(), audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	return events
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()

	logger.Log(ctx, audit.Event{Action: "test"})
	logger.LoginSuccess(ctx, primitive.NewObjectID())
	logger.Logout(ctx, primitive.NewObjectID())
}

func TestLogger_Config(t *testing.T) {
	tests := []struct {
		name    string
		config  auditlog.Config
		stored  int
		zapLogs int
	}{
		{"off", auditlog.Config{Auth: "off"}, 0, 0},
		{"db", auditlog.Config{Auth: "db"}, 1, 0},
		{"log", auditlog.Config{Auth: "log"}, 0, 1},
		{"all", auditlog.Config{Auth: "all"}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := memstore.New().Backend()
			core, logs := observer.New(zap.InfoLevel)
			logger := auditlog.New(b.Audit, zap.New(core), tt.config)

			logger.LoginSuccess(context.Background(), primitive.NewObjectID())

			if got := len(all(t, b.Audit)); got != tt.stored {
				t.Errorf("stored events: got %d, want %d", got, tt.stored)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.zapLogs {
				t.Errorf("zap entries: got %d, want %d", got, tt.zapLogs)
			}
		})
	}
}

func TestLogger_CategoryFilteredIndependently(t *testing.T) {
	b := memstore.New().Backend()
	logger := auditlog.New(b.Audit, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "db"})
	ctx := context.Background()

	logger.LoginSuccess(ctx, primitive.NewObjectID())
	logger.ChurchDeactivated(ctx, primitive.NewObjectID(), primitive.NewObjectID())

	events := all(t, b.Audit)
	if len(events) != 1 || events[0].Action != audit.ActionChurchDeactivated {
		t.Errorf("expected only the admin event, got %v", events)
	}
}

func TestLogger_SinkFailureIsLoggedNotReturned(t *testing.T) {
	db := memstore.New()
	db.FailOn(memstore.OpAuditLog, errors.New("disk full"))
	core, logs := observer.New(zap.ErrorLevel)
	logger := auditlog.New(db.Backend().Audit, zap.New(core), auditlog.Config{Admin: "db"})

	tr := models.TransferRequest{ID: primitive.NewObjectID(), Status: models.TransferPending}
	logger.TransferRequested(context.Background(), primitive.NewObjectID(), tr)

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected the sink failure to be logged")
	}
}

func TestLogger_TransferRejected(t *testing.T) {
	b := memstore.New().Backend()
	logger := auditlog.New(b.Audit, zap.NewNop(), auditlog.Config{Admin: "db"})

	actor := primitive.NewObjectID()
	tr := models.TransferRequest{
		ID:           primitive.NewObjectID(),
		MemberID:     primitive.NewObjectID(),
		FromChurchID: primitive.NewObjectID(),
		ToChurchID:   primitive.NewObjectID(),
		Status:       models.TransferPending,
	}
	logger.TransferRejected(context.Background(), actor, tr, "member already moved away")

	events := all(t, b.Audit)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Action != audit.ActionTransferRejected || ev.TableName != "transfer_requests" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.RecordID == nil || *ev.RecordID != tr.ID {
		t.Error("expected record id to be the request")
	}
	if ev.UserID == nil || *ev.UserID != actor {
		t.Error("expected user id to be the actor")
	}
	if ev.OldValues["status"] != models.TransferPending || ev.NewValues["status"] != models.TransferRejected {
		t.Errorf("unexpected values old=%v new=%v", ev.OldValues, ev.NewValues)
	}
	if ev.NewValues["rejection_reason"] != "member already moved away" {
		t.Errorf("expected reason in new values, got %v", ev.NewValues)
	}
}

func TestMiddleware_RequestMeta(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		wantIP     string
	}{
		{"x-forwarded-for first hop", map[string]string{"X-Forwarded-For": "203.0.113.195, 10.0.0.1", "X-Real-IP": "192.168.1.1"}, "127.0.0.1:1", "203.0.113.195"},
		{"x-real-ip", map[string]string{"X-Real-IP": "192.168.1.100"}, "127.0.0.1:1", "192.168.1.100"},
		{"remote addr port stripped", nil, "10.0.0.5:12345", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := memstore.New().Backend()
			logger := auditlog.New(b.Audit, zap.NewNop(), auditlog.Config{Auth: "db"})

			req := httptest.NewRequest("POST", "/login", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("User-Agent", "test-agent")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			auditlog.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.LoginSuccess(r.Context(), primitive.NewObjectID())
			})).ServeHTTP(rec, req)

			events := all(t, b.Audit)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].IP != tt.wantIP {
				t.Errorf("IP: got %q, want %q", events[0].IP, tt.wantIP)
			}
			if events[0].UserAgent != "test-agent" {
				t.Errorf("UserAgent: got %q", events[0].UserAgent)
			}
			if events[0].RequestID == "" || events[0].RequestID != rec.Header().Get(auditlog.RequestIDHeader) {
				t.Errorf("request id %q must match response header %q", events[0].RequestID, rec.Header().Get(auditlog.RequestIDHeader))
			}
		})
	}
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(auditlog.RequestIDHeader, "abc-123")
	var got string
	auditlog.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auditlog.RequestID(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	if got != "abc-123" {
		t.Errorf("RequestID: got %q, want abc-123", got)
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidMode(m) {
			t.Errorf("ValidMode(%q) = false", m)
		}
	}
	for _, m := range []string{"", "ALL", "file"} {
		if auditlog.ValidMode(m) {
			t.Errorf("ValidMode(%q) = true", m)
		}
	}
}
