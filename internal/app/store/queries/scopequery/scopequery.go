// Package scopequery translates store scopes and pages into MongoDB filters
// and find options shared by the per-collection stores.
package scopequery

import (
	"github.com/dalemusser/churchroll/internal/app/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Empty reports whether sc can match no document at all.
func Empty(sc store.Scope) bool {
	return !sc.AllChurches && len(sc.ChurchIDs) == 0
}

// Apply restricts filter so field must be one of the scope's churches.
// It returns false when the scope is empty; callers skip the query then.
func Apply(filter bson.M, field string, sc store.Scope) bool {
	if sc.AllChurches {
		return true
	}
	if len(sc.ChurchIDs) == 0 {
		return false
	}
	filter[field] = bson.M{"$in": sc.ChurchIDs}
	return true
}

// ApplyEither restricts filter so at least one of fields is in scope.
func ApplyEither(filter bson.M, sc store.Scope, fields ...string) bool {
	if sc.AllChurches {
		return true
	}
	if len(sc.ChurchIDs) == 0 {
		return false
	}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: bson.M{"$in": sc.ChurchIDs}})
	}
	filter["$or"] = or
	return true
}

// Narrow combines a requested church with the scope. It returns false when
// the church is outside the scope.
func Narrow(filter bson.M, field string, sc store.Scope, church *primitive.ObjectID) bool {
	if church == nil {
		return Apply(filter, field, sc)
	}
	if !sc.AllChurches && !contains(sc.ChurchIDs, *church) {
		return false
	}
	filter[field] = *church
	return true
}

// Find builds FindOptions for a page with the given sort.
func Find(p store.Page, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if p.Offset > 0 {
		opts.SetSkip(p.Offset)
	}
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}
	return opts
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
