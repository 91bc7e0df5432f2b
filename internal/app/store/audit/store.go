// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth actions
const (
	ActionLoginSuccess = "login_success"
	ActionLoginFailed  = "login_failed"
	ActionLogout       = "logout"
)

// Admin actions
const (
	ActionTransferRequested   = "transfer_requested"
	ActionTransferApproved    = "transfer_approved"
	ActionTransferRejected    = "transfer_rejected"
	ActionMemberCreated       = "member_created"
	ActionMemberStatusChanged = "member_status_changed"
	ActionChurchCreated       = "church_created"
	ActionChurchUpdated       = "church_updated"
	ActionChurchDeactivated   = "church_deactivated"
	ActionUserCreated         = "user_created"
	ActionUserDeactivated     = "user_deactivated"
	ActionReportFiled         = "missionary_report_filed"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Classification
	Category string `bson:"category" json:"category"`
	Action   string `bson:"action" json:"action"`

	// Who
	UserID *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"` // actor

	// What
	TableName string              `bson:"table_name,omitempty" json:"table_name,omitempty"`
	RecordID  *primitive.ObjectID `bson:"record_id,omitempty" json:"record_id,omitempty"`
	ChurchID  *primitive.ObjectID `bson:"church_id,omitempty" json:"church_id,omitempty"`
	OldValues map[string]any      `bson:"old_values,omitempty" json:"old_values,omitempty"`
	NewValues map[string]any      `bson:"new_values,omitempty" json:"new_values,omitempty"`

	// Context
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	RequestID string `bson:"request_id,omitempty" json:"request_id,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	RecordID  *primitive.ObjectID
	Category  string
	Action    string
	TableName string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// DefaultLimit is used when QueryFilter.Limit is not set.
const DefaultLimit = 100

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "table_name", Value: 1}, {Key: "record_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "action", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	Prepare(&event)
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Prepare fills in the ID and timestamp of an event that does not have them.
func Prepare(event *Event) {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.UserID != nil {
		query["user_id"] = filter.UserID
	}
	if filter.RecordID != nil {
		query["record_id"] = filter.RecordID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.TableName != "" {
		query["table_name"] = filter.TableName
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Matches reports whether e satisfies the filter. Used by in-memory backends
// so both stores agree on filter semantics.
func (f QueryFilter) Matches(e Event) bool {
	if f.UserID != nil && (e.UserID == nil || *e.UserID != *f.UserID) {
		return false
	}
	if f.RecordID != nil && (e.RecordID == nil || *e.RecordID != *f.RecordID) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.TableName != "" && e.TableName != f.TableName {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}
