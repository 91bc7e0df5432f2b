// Package store defines the persistence contracts shared by the MongoDB
// stores (one package per collection) and the in-memory store.
//
// Every list query carries the caller's church scope explicitly: when
// AllChurches is false only records whose church is in ChurchIDs are
// returned, and an empty ChurchIDs matches nothing.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store/audit"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrStateChanged is returned by conditional updates whose precondition
	// no longer holds (the compare half of compare-and-set failed).
	ErrStateChanged = errors.New("store: state changed")
)

// Scope restricts a query to a set of churches.
type Scope struct {
	AllChurches bool
	ChurchIDs   []primitive.ObjectID
}

// Page is an offset window. Limit <= 0 means no limit.
type Page struct {
	Offset int64
	Limit  int64
}

/* ----------------------------- queries ----------------------------- */

// ChurchQuery filters churches.
type ChurchQuery struct {
	Scope
	Search     string // folded prefix match on name
	Field      string
	District   string
	ActiveOnly bool
	Page
}

// MemberQuery filters members.
type MemberQuery struct {
	Scope
	ChurchID *primitive.ObjectID
	Status   string
	Search   string // folded prefix match on full name
	Page
}

// TransferQuery filters transfer requests. A request is in scope when either
// its source or its destination church is in scope.
type TransferQuery struct {
	Scope
	Status   string
	MemberID *primitive.ObjectID
	Page
}

// ReportQuery filters missionary reports.
type ReportQuery struct {
	Scope
	ChurchID   *primitive.ObjectID
	ReporterID *primitive.ObjectID
	Period     string
	Page
}

// UserQuery filters users.
type UserQuery struct {
	Role       string
	ActiveOnly bool
	Page
}

/* ----------------------------- updates ----------------------------- */

// ChurchUpdate holds the mutable church fields. Empty strings are ignored.
type ChurchUpdate struct {
	Name     string
	Field    string
	District string
	City     string
	Province string
	Address  string
}

// Review records who moved a transfer request out of pending and why.
// A zero Review clears the review fields (used when reverting to pending).
type Review struct {
	ReviewerID      primitive.ObjectID
	ReviewedAt      time.Time
	RejectionReason string
}

/* --------------------------- repositories -------------------------- */

// Users persists administrative accounts.
type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	List(ctx context.Context, q UserQuery) ([]models.User, error)
}

// Churches persists churches.
type Churches interface {
	Create(ctx context.Context, c models.Church) (models.Church, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Church, error)
	Update(ctx context.Context, id primitive.ObjectID, upd ChurchUpdate) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	IDsByDistrict(ctx context.Context, district string) ([]primitive.ObjectID, error)
	IDsByField(ctx context.Context, field string) ([]primitive.ObjectID, error)
	List(ctx context.Context, q ChurchQuery) ([]models.Church, error)
	Count(ctx context.Context, q ChurchQuery) (int64, error)
}

// Members persists members.
type Members interface {
	Create(ctx context.Context, m models.Member) (models.Member, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error)
	List(ctx context.Context, q MemberQuery) ([]models.Member, error)
	Count(ctx context.Context, q MemberQuery) (int64, error)
	// CountByChurch returns member counts keyed by church for the scope.
	CountByChurch(ctx context.Context, sc Scope) (map[primitive.ObjectID]int64, error)
	// MoveChurch sets church_id=to only if the member is currently in from.
	// It returns ErrStateChanged when the member is no longer in from.
	MoveChurch(ctx context.Context, id, from, to primitive.ObjectID) error
	// SaveStatus writes Status and every status-specific field of m.
	SaveStatus(ctx context.Context, m models.Member) error
}

// Transfers persists transfer requests.
type Transfers interface {
	// Create inserts a pending request; ErrDuplicate if the member already
	// has a pending request.
	Create(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.TransferRequest, error)
	HasPending(ctx context.Context, memberID primitive.ObjectID) (bool, error)
	// Transition moves a request from status `from` to `to` atomically and
	// returns ErrStateChanged if it was not in `from`.
	Transition(ctx context.Context, id primitive.ObjectID, from, to string, rv Review) error
	List(ctx context.Context, q TransferQuery) ([]models.TransferRequest, error)
}

// History persists the append-only transfer log.
type History interface {
	Append(ctx context.Context, h models.TransferHistory) (models.TransferHistory, error)
	ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.TransferHistory, error)
	CountByRequest(ctx context.Context, requestID primitive.ObjectID) (int64, error)
}

// Reports persists missionary reports.
type Reports interface {
	Create(ctx context.Context, r models.MissionaryReport) (models.MissionaryReport, error)
	List(ctx context.Context, q ReportQuery) ([]models.MissionaryReport, error)
}

// AuditEvents persists audit records.
type AuditEvents interface {
	Log(ctx context.Context, e audit.Event) error
	Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error)
}

// TxRunner runs fn inside a transaction when the backend supports one and
// directly otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Backend bundles the repositories an app instance runs against.
type Backend struct {
	Users     Users
	Churches  Churches
	Members   Members
	Transfers Transfers
	History   History
	Reports   Reports
	Audit     AuditEvents
	Tx        TxRunner

	// Ping checks connectivity for the health endpoint.
	Ping func(ctx context.Context) error
}
