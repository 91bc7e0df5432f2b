// internal/app/features/transfers/workflow.go
package transfers

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	"github.com/dalemusser/churchroll/internal/app/policy/memberpolicy"
	"github.com/dalemusser/churchroll/internal/app/store"
	transferstore "github.com/dalemusser/churchroll/internal/app/store/transfers"
	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/app/system/limits"
	"github.com/dalemusser/churchroll/internal/app/system/ordered"
	"github.com/dalemusser/churchroll/internal/app/system/textsanitize"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MinRejectionReason is the minimum length, in characters, of a rejection
// reason after trimming.
const MinRejectionReason = 10

// Step names reported in ordered.StepError.
const (
	stepMoveMember     = "move member"
	stepApproveRequest = "approve request"
	stepAppendHistory  = "append history"
)

// User-facing errors. Each is distinct so callers can tell them apart with
// errors.Is.
var (
	ErrNotPending        = apperr.Conflict("This transfer request is no longer pending.")
	ErrApprovalRunning   = apperr.Conflict("This transfer is being approved by someone else. Please try again shortly.")
	ErrAlreadyPending    = apperr.Conflict("This member already has a pending transfer request.")
	ErrMemberMoved       = apperr.Conflict("The member is no longer in the source church.")
	ErrMemberNotFound    = apperr.NotFound("Member not found.")
	ErrChurchNotFound    = apperr.NotFound("Destination church not found.")
	ErrRequestNotFound   = apperr.NotFound("Transfer request not found.")
	ErrSourceScope       = apperr.Forbidden("You can only request transfers out of churches you manage.")
	ErrDestinationScope  = apperr.Forbidden("Only the destination church can approve or reject this transfer.")
	ErrRequestScope      = apperr.Forbidden("You don't have access to this transfer request.")
	ErrReasonTooShort    = apperr.Validation("Please give a rejection reason of at least 10 characters.")
	ErrSameChurch        = apperr.Validation("Source and destination church must be different.")
	ErrWrongSourceChurch = apperr.Validation("The member does not belong to the source church.")
	ErrMemberInactive    = apperr.Validation("Only active members can be transferred.")
	ErrChurchInactive    = apperr.Validation("The destination church is inactive.")
	ErrMissingMember     = apperr.Validation("Please choose a member.")
)

// Workflow moves transfer requests through pending, approved and rejected.
//
// Approval writes three records in a fixed order: the member's church, the
// request status, then a history row. The writes run inside a transaction
// when the backend offers one and through ordered.Run either way, so a
// failure at any step leaves the member and the request as they were.
type Workflow struct {
	Store  store.Backend
	Scopes *churchscope.Resolver
	Audit  *auditlog.Logger
	Log    *zap.Logger

	now func() time.Time
}

// NewWorkflow constructs a Workflow.
func NewWorkflow(be store.Backend, scopes *churchscope.Resolver, audit *auditlog.Logger, logger *zap.Logger) *Workflow {
	return &Workflow{
		Store:  be,
		Scopes: scopes,
		Audit:  audit,
		Log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is a new transfer request.
type CreateInput struct {
	MemberID     primitive.ObjectID
	FromChurchID primitive.ObjectID
	ToChurchID   primitive.ObjectID
	Notes        string
}

/*─────────────────────────────────────────────────────────────────────────────*
| Create                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Create inserts a pending request for moving a member out of an in-scope
// church.
func (w *Workflow) Create(ctx context.Context, a *authz.Actor, in CreateInput) (models.TransferRequest, error) {
	if a == nil {
		return models.TransferRequest{}, apperr.ErrUnauthenticated
	}
	if in.MemberID.IsZero() {
		return models.TransferRequest{}, ErrMissingMember
	}
	if in.FromChurchID == in.ToChurchID {
		return models.TransferRequest{}, ErrSameChurch
	}

	sc, err := w.Scopes.Resolve(ctx, a)
	if err != nil {
		return models.TransferRequest{}, err
	}
	if !memberpolicy.CanManage(a, sc, in.FromChurchID) {
		return models.TransferRequest{}, ErrSourceScope
	}

	m, err := w.Store.Members.GetByID(ctx, in.MemberID)
	if err != nil {
		return models.TransferRequest{}, mapNotFound(err, ErrMemberNotFound)
	}
	if m.ChurchID != in.FromChurchID {
		return models.TransferRequest{}, ErrWrongSourceChurch
	}
	if m.Status != models.MemberActive {
		return models.TransferRequest{}, ErrMemberInactive
	}

	dest, err := w.Store.Churches.GetByID(ctx, in.ToChurchID)
	if err != nil {
		return models.TransferRequest{}, mapNotFound(err, ErrChurchNotFound)
	}
	if !dest.IsActive {
		return models.TransferRequest{}, ErrChurchInactive
	}

	pending, err := w.Store.Transfers.HasPending(ctx, in.MemberID)
	if err != nil {
		return models.TransferRequest{}, apperr.Storage(err)
	}
	if pending {
		return models.TransferRequest{}, ErrAlreadyPending
	}

	t, err := w.Store.Transfers.Create(ctx, models.TransferRequest{
		MemberID:      in.MemberID,
		FromChurchID:  in.FromChurchID,
		ToChurchID:    in.ToChurchID,
		Notes:         textsanitize.PlainMax(in.Notes, limits.MaxTransferNotes),
		RequestedByID: a.ID,
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with another request for the same member.
		return models.TransferRequest{}, ErrAlreadyPending
	}
	if err != nil {
		return models.TransferRequest{}, apperr.Storage(err)
	}

	w.Audit.TransferRequested(ctx, a.ID, t)
	return t, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Approve                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Approve moves the member to the destination church and marks the request
// approved. Of two concurrent approvals at most one succeeds; the other gets
// ErrNotPending, or ErrApprovalRunning while the first is still in flight.
func (w *Workflow) Approve(ctx context.Context, a *authz.Actor, id primitive.ObjectID) (models.TransferRequest, error) {
	t, err := w.loadForReview(ctx, a, id)
	if err != nil {
		return models.TransferRequest{}, err
	}

	// Names are captured now, not at request time.
	fromName, err := w.churchName(ctx, t.FromChurchID)
	if err != nil {
		return models.TransferRequest{}, apperr.Storage(err)
	}
	toName, err := w.churchName(ctx, t.ToChurchID)
	if err != nil {
		return models.TransferRequest{}, apperr.Storage(err)
	}

	now := w.now()
	review := store.Review{ReviewerID: a.ID, ReviewedAt: now}

	err = w.Store.Tx.InTx(ctx, func(ctx context.Context) error {
		return ordered.Run(ctx,
			ordered.Step{
				Name: stepMoveMember,
				Do: func(ctx context.Context) error {
					if dest, err := w.Store.Churches.GetByID(ctx, t.ToChurchID); err == nil && !dest.IsActive {
						return ErrChurchInactive
					}
					m, err := w.Store.Members.GetByID(ctx, t.MemberID)
					if err != nil {
						return err
					}
					if m.Status != models.MemberActive {
						return ErrMemberInactive
					}
					return w.Store.Members.MoveChurch(ctx, t.MemberID, t.FromChurchID, t.ToChurchID)
				},
				Undo: func(ctx context.Context) error {
					return w.Store.Members.MoveChurch(ctx, t.MemberID, t.ToChurchID, t.FromChurchID)
				},
			},
			ordered.Step{
				Name: stepApproveRequest,
				Do: func(ctx context.Context) error {
					return w.Store.Transfers.Transition(ctx, t.ID, models.TransferPending, models.TransferApproved, review)
				},
				Undo: func(ctx context.Context) error {
					return w.Store.Transfers.Transition(ctx, t.ID, models.TransferApproved, models.TransferPending, store.Review{})
				},
			},
			ordered.Step{
				Name: stepAppendHistory,
				Do: func(ctx context.Context) error {
					_, err := w.Store.History.Append(ctx, models.TransferHistory{
						MemberID:          t.MemberID,
						TransferRequestID: t.ID,
						FromChurchID:      t.FromChurchID,
						ToChurchID:        t.ToChurchID,
						FromChurchName:    fromName,
						ToChurchName:      toName,
						TransferType:      models.TransferTypeIn,
						TransferDate:      now,
						ApprovedByID:      a.ID,
					})
					return err
				},
			},
		)
	})
	if err != nil {
		return models.TransferRequest{}, w.approveError(ctx, t, err)
	}

	transferstore.ApplyReview(&t, models.TransferApproved, review)
	w.Audit.TransferApproved(ctx, a.ID, t)
	return t, nil
}

// approveError classifies a failed approval. Compare-and-set misses become
// conflicts; everything else is a storage error.
func (w *Workflow) approveError(ctx context.Context, t models.TransferRequest, err error) error {
	var se *ordered.StepError
	if errors.As(err, &se) && se.Undo != nil {
		w.Log.Error("transfer approval: compensation failed",
			zap.String("transfer_id", t.ID.Hex()),
			zap.String("step", se.Step),
			zap.Error(se.Err),
			zap.NamedError("undo_error", se.Undo))
	}

	switch {
	case errors.Is(err, ErrMemberInactive):
		return ErrMemberInactive
	case errors.Is(err, ErrChurchInactive):
		return ErrChurchInactive
	case errors.Is(err, store.ErrStateChanged) && se != nil && se.Step == stepMoveMember:
		return w.movedConflict(ctx, t)
	case errors.Is(err, store.ErrStateChanged):
		return ErrNotPending
	case errors.Is(err, store.ErrNotFound) && se != nil && se.Step == stepApproveRequest:
		return ErrRequestNotFound
	case errors.Is(err, store.ErrNotFound) && se != nil && se.Step == stepMoveMember:
		return ErrMemberNotFound
	}

	w.Log.Error("transfer approval failed",
		zap.String("transfer_id", t.ID.Hex()),
		zap.Error(err))
	return apperr.Storage(err)
}

// movedConflict explains why the member was not in the source church. Only a
// request that is no longer pending yields ErrNotPending. A member already in
// the destination while the request is still pending means another approval
// is between its steps and may yet be undone, so the caller may retry.
func (w *Workflow) movedConflict(ctx context.Context, t models.TransferRequest) error {
	ctx = context.WithoutCancel(ctx)
	if cur, err := w.Store.Transfers.GetByID(ctx, t.ID); err == nil && cur.Status != models.TransferPending {
		return ErrNotPending
	}
	if m, err := w.Store.Members.GetByID(ctx, t.MemberID); err == nil && m.ChurchID == t.ToChurchID {
		return ErrApprovalRunning
	}
	return ErrMemberMoved
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reject                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Reject marks a pending request rejected. The member is not touched and no
// history is written.
func (w *Workflow) Reject(ctx context.Context, a *authz.Actor, id primitive.ObjectID, reason string) (models.TransferRequest, error) {
	if a == nil {
		return models.TransferRequest{}, apperr.ErrUnauthenticated
	}
	reason = textsanitize.PlainMax(reason, limits.MaxTransferNotes)
	if utf8.RuneCountInString(strings.TrimSpace(reason)) < MinRejectionReason {
		return models.TransferRequest{}, ErrReasonTooShort
	}

	t, err := w.loadForReview(ctx, a, id)
	if err != nil {
		return models.TransferRequest{}, err
	}

	review := store.Review{ReviewerID: a.ID, ReviewedAt: w.now(), RejectionReason: reason}
	err = w.Store.Transfers.Transition(ctx, t.ID, models.TransferPending, models.TransferRejected, review)
	switch {
	case errors.Is(err, store.ErrStateChanged):
		return models.TransferRequest{}, ErrNotPending
	case errors.Is(err, store.ErrNotFound):
		return models.TransferRequest{}, ErrRequestNotFound
	case err != nil:
		w.Log.Error("transfer rejection failed", zap.String("transfer_id", t.ID.Hex()), zap.Error(err))
		return models.TransferRequest{}, apperr.Storage(err)
	}

	transferstore.ApplyReview(&t, models.TransferRejected, review)
	w.Audit.TransferRejected(ctx, a.ID, t, reason)
	return t, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reads                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Get returns a request whose source or destination church is in scope.
func (w *Workflow) Get(ctx context.Context, a *authz.Actor, id primitive.ObjectID) (models.TransferRequest, error) {
	if a == nil {
		return models.TransferRequest{}, apperr.ErrUnauthenticated
	}
	sc, err := w.Scopes.Resolve(ctx, a)
	if err != nil {
		return models.TransferRequest{}, err
	}
	t, err := w.Store.Transfers.GetByID(ctx, id)
	if err != nil {
		return models.TransferRequest{}, mapNotFound(err, ErrRequestNotFound)
	}
	if !sc.Allows(t.FromChurchID) && !sc.Allows(t.ToChurchID) {
		return models.TransferRequest{}, ErrRequestScope
	}
	return t, nil
}

// List returns the requests whose source or destination church is in scope.
// An empty scope returns no rows without querying the store.
func (w *Workflow) List(ctx context.Context, a *authz.Actor, q store.TransferQuery) ([]models.TransferRequest, error) {
	if a == nil {
		return nil, apperr.ErrUnauthenticated
	}
	sc, err := w.Scopes.Resolve(ctx, a)
	if err != nil {
		return nil, err
	}
	if sc.IsEmpty() {
		return []models.TransferRequest{}, nil
	}
	q.Scope = sc.Store()
	rows, err := w.Store.Transfers.List(ctx, q)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return rows, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// loadForReview loads a request and checks that a may decide it: the
// destination church must be in scope, the role must be allowed to write
// members, and the request must still be pending.
func (w *Workflow) loadForReview(ctx context.Context, a *authz.Actor, id primitive.ObjectID) (models.TransferRequest, error) {
	if a == nil {
		return models.TransferRequest{}, apperr.ErrUnauthenticated
	}
	sc, err := w.Scopes.Resolve(ctx, a)
	if err != nil {
		return models.TransferRequest{}, err
	}
	t, err := w.Store.Transfers.GetByID(ctx, id)
	if err != nil {
		return models.TransferRequest{}, mapNotFound(err, ErrRequestNotFound)
	}
	if !memberpolicy.CanManage(a, sc, t.ToChurchID) {
		return models.TransferRequest{}, ErrDestinationScope
	}
	if t.Status != models.TransferPending {
		return models.TransferRequest{}, ErrNotPending
	}
	return t, nil
}

func (w *Workflow) churchName(ctx context.Context, id primitive.ObjectID) (string, error) {
	c, err := w.Store.Churches.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func mapNotFound(err error, notFound *apperr.Error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return apperr.Storage(err)
}
