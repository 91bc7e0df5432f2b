// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/churchroll/internal/app/system/authz"
	"github.com/dalemusser/churchroll/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections lists every collection EnsureAll creates.
var Collections = []string{
	"users",
	"churches",
	"members",
	"transfer_requests",
	"transfer_history",
	"missionary_reports",
	"audit_events",
}

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("churches", churchesSchema())
	ensure("members", membersSchema())
	ensure("transfer_requests", transferRequestsSchema())
	ensure("transfer_history", transferHistorySchema())
	ensure("missionary_reports", missionaryReportsSchema())

	// Audit events are written by one code path only.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enum[T ~string](values ...T) bson.A {
	out := bson.A{}
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "is_active"},
			"properties": bson.M{
				"full_name":           nonBlank,
				"full_name_ci":        bson.M{"bsonType": "string"},
				"email":               nonBlank,
				"role":                bson.M{"enum": enum(authz.AllRoles...)},
				"is_active":           bson.M{"bsonType": "bool"},
				"church_id":           bson.M{"bsonType": "objectId"},
				"district_id":         bson.M{"bsonType": "string"},
				"field_id":            bson.M{"bsonType": "string"},
				"assigned_church_ids": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}

func churchesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "field", "district", "is_active"},
			"properties": bson.M{
				"name":      nonBlank,
				"name_ci":   nonBlank,
				"field":     nonBlank,
				"district":  nonBlank,
				"is_active": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func membersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"church_id", "full_name", "status"},
			"properties": bson.M{
				"church_id": bson.M{"bsonType": "objectId"},
				"full_name": nonBlank,
				"status": bson.M{"enum": enum(
					models.MemberActive,
					models.MemberTransferredOut,
					models.MemberResigned,
					models.MemberDisfellowshipped,
					models.MemberDeceased,
				)},
				"resignation_date":   bson.M{"bsonType": bson.A{"date", "null"}},
				"disfellowship_date": bson.M{"bsonType": bson.A{"date", "null"}},
				"date_of_death":      bson.M{"bsonType": bson.A{"date", "null"}},
				"cause_of_death":     bson.M{"bsonType": bson.A{"string", "null"}},
			},
		},
	}
}

func transferRequestsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"member_id", "from_church_id", "to_church_id", "status", "requested_by_id", "requested_at"},
			"properties": bson.M{
				"member_id":       bson.M{"bsonType": "objectId"},
				"from_church_id":  bson.M{"bsonType": "objectId"},
				"to_church_id":    bson.M{"bsonType": "objectId"},
				"status":          bson.M{"enum": enum(models.TransferPending, models.TransferApproved, models.TransferRejected)},
				"requested_by_id": bson.M{"bsonType": "objectId"},
				"requested_at":    bson.M{"bsonType": "date"},
				"reviewed_by_id":  bson.M{"bsonType": "objectId"},
				"reviewed_at":     bson.M{"bsonType": "date"},
			},
		},
	}
}

func transferHistorySchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"member_id", "transfer_request_id", "from_church_id", "to_church_id", "transfer_date", "approved_by_id"},
			"properties": bson.M{
				"member_id":           bson.M{"bsonType": "objectId"},
				"transfer_request_id": bson.M{"bsonType": "objectId"},
				"from_church_id":      bson.M{"bsonType": "objectId"},
				"to_church_id":        bson.M{"bsonType": "objectId"},
				"transfer_type":       bson.M{"enum": enum(models.TransferTypeIn)},
				"transfer_date":       bson.M{"bsonType": "date"},
				"approved_by_id":      bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func missionaryReportsSchema() bson.M {
	count := bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"church_id", "reporter_id", "period"},
			"properties": bson.M{
				"church_id":     bson.M{"bsonType": "objectId"},
				"reporter_id":   bson.M{"bsonType": "objectId"},
				"period":        bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-(0[1-9]|1[0-2])$"},
				"bible_studies": count,
				"visits":        count,
				"baptisms":      count,
				"literature":    count,
			},
		},
	}
}
