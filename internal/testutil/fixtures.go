package testutil

import (
	"context"
	"testing"

	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/memstore"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"github.com/dalemusser/churchroll/internal/app/system/authutil"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.uber.org/zap"
)

// Fixtures creates test data in an in-memory backend.
type Fixtures struct {
	t       *testing.T
	DB      *memstore.DB
	Backend store.Backend
}

// NewFixtures returns fixtures over a fresh in-memory backend.
func NewFixtures(t *testing.T) *Fixtures {
	t.Helper()
	db := memstore.New()
	return &Fixtures{t: t, DB: db, Backend: db.Backend()}
}

// Scopes returns a resolver over the fixture churches.
func (f *Fixtures) Scopes() *churchscope.Resolver {
	return churchscope.NewResolver(f.Backend.Churches)
}

// AuditLog returns an audit logger that stores every event.
func (f *Fixtures) AuditLog() *auditlog.Logger {
	return auditlog.New(f.Backend.Audit, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})
}

// CreateChurch inserts an active church.
func (f *Fixtures) CreateChurch(name, field, district string) models.Church {
	f.t.Helper()
	c, err := f.Backend.Churches.Create(context.Background(), models.Church{
		Name:     name,
		Field:    field,
		District: district,
		City:     "Springfield",
	})
	if err != nil {
		f.t.Fatalf("create church %q: %v", name, err)
	}
	return c
}

// CreateMember inserts an active member of church.
func (f *Fixtures) CreateMember(church models.Church, name string) models.Member {
	f.t.Helper()
	m, err := f.Backend.Members.Create(context.Background(), models.Member{
		ChurchID: church.ID,
		FullName: name,
	})
	if err != nil {
		f.t.Fatalf("create member %q: %v", name, err)
	}
	return m
}

// CreateUser inserts u with password hashed. Territory validation applies.
func (f *Fixtures) CreateUser(u models.User, password string) models.User {
	f.t.Helper()
	if password != "" {
		hash, err := authutil.HashPassword(password)
		if err != nil {
			f.t.Fatalf("hash password: %v", err)
		}
		u.PasswordHash = hash
	}
	created, err := f.Backend.Users.Create(context.Background(), u)
	if err != nil {
		f.t.Fatalf("create user %q: %v", u.Email, err)
	}
	return created
}
