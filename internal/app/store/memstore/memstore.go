// Package memstore is an in-memory implementation of every store contract.
// It backs the "memory" store backend and the service and handler tests.
//
// Each call holds the mutex for its own duration only; InTx does not isolate
// a sequence of calls. Multi-write operations stay all-or-nothing through
// their compensating steps, which FailOn lets tests exercise.
package memstore

import (
	"context"
	"sync"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/audit"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation names accepted by FailOn.
const (
	OpUserCreate         = "users.Create"
	OpChurchCreate       = "churches.Create"
	OpMemberCreate       = "members.Create"
	OpMemberMoveChurch   = "members.MoveChurch"
	OpMemberSaveStatus   = "members.SaveStatus"
	OpTransferCreate     = "transfers.Create"
	OpTransferTransition = "transfers.Transition"
	OpHistoryAppend      = "history.Append"
	OpReportCreate       = "reports.Create"
	OpAuditLog           = "audit.Log"
)

// DB holds all collections behind one mutex.
type DB struct {
	mu sync.RWMutex

	users     map[primitive.ObjectID]models.User
	churches  map[primitive.ObjectID]models.Church
	members   map[primitive.ObjectID]models.Member
	transfers map[primitive.ObjectID]models.TransferRequest
	history   []models.TransferHistory
	reports   map[primitive.ObjectID]models.MissionaryReport
	audit     []audit.Event

	faults map[string]error
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		users:     map[primitive.ObjectID]models.User{},
		churches:  map[primitive.ObjectID]models.Church{},
		members:   map[primitive.ObjectID]models.Member{},
		transfers: map[primitive.ObjectID]models.TransferRequest{},
		reports:   map[primitive.ObjectID]models.MissionaryReport{},
		faults:    map[string]error{},
	}
}

// Backend exposes the DB through the store contracts.
func (db *DB) Backend() store.Backend {
	return store.Backend{
		Users:     users{db},
		Churches:  churches{db},
		Members:   members{db},
		Transfers: transfers{db},
		History:   history{db},
		Reports:   reports{db},
		Audit:     auditEvents{db},
		Tx:        directTx{},
		Ping:      func(context.Context) error { return nil },
	}
}

// FailOn makes every later call of op return err until ClearFaults.
func (db *DB) FailOn(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.faults[op] = err
}

// ClearFaults removes all injected failures.
func (db *DB) ClearFaults() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.faults = map[string]error{}
}

// fault must be called with mu held.
func (db *DB) fault(op string) error {
	return db.faults[op]
}

type directTx struct{}

func (directTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

/* ------------------------------ helpers ------------------------------ */

func inScope(sc store.Scope, id primitive.ObjectID) bool {
	if sc.AllChurches {
		return true
	}
	for _, x := range sc.ChurchIDs {
		if x == id {
			return true
		}
	}
	return false
}

// window applies an offset page to a sorted slice.
func window[T any](rows []T, p store.Page) []T {
	if p.Offset > 0 {
		if p.Offset >= int64(len(rows)) {
			return nil
		}
		rows = rows[p.Offset:]
	}
	if p.Limit > 0 && int64(len(rows)) > p.Limit {
		rows = rows[:p.Limit]
	}
	return rows
}
