// Package search normalizes free-text name searches so the MongoDB stores and
// the in-memory store match the same documents.
package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
)

// MaxQuery caps the folded query length in runes.
const MaxQuery = 100

// Fold trims, folds case and diacritics, and caps q. Stored *_ci fields are
// folded the same way.
func Fold(q string) string {
	q = text.Fold(strings.TrimSpace(q))
	if utf8.RuneCountInString(q) > MaxQuery {
		q = string([]rune(q)[:MaxQuery])
	}
	return q
}

// Prefix returns a Mongo filter value matching folded values that start with
// q, or nil when q folds to nothing. The regex is anchored so an index on the
// field can serve it.
func Prefix(q string) bson.M {
	f := Fold(q)
	if f == "" {
		return nil
	}
	return bson.M{"$regex": "^" + regexp.QuoteMeta(f)}
}

// HasPrefix is the in-memory counterpart of Prefix; folded is an already
// folded *_ci value.
func HasPrefix(folded, q string) bool {
	return strings.HasPrefix(folded, Fold(q))
}
