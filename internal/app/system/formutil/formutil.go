// Package formutil decodes JSON request bodies and parses the ids that
// handlers receive in paths and bodies.
//
// Example usage:
//
//	var in createMemberInput
//	if err := formutil.Decode(r, &in); err != nil {
//		h.ErrLog.LogBadRequest(w, r, "decode member", err, "Invalid request body.")
//		return
//	}
package formutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dalemusser/churchroll/internal/app/system/limits"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes limits request bodies.
const MaxBodyBytes = limits.MaxJSONBody

// DateLayout is the accepted format for date-only fields.
const DateLayout = "2006-01-02"

// ErrEmptyBody is returned by Decode when the body is empty.
var ErrEmptyBody = errors.New("request body is empty")

// Decode reads one JSON object from r.Body into v. Unknown fields and
// trailing data are errors.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if dec.More() {
		return errors.New("request body has trailing data")
	}
	return nil
}

// ObjectID parses a hex id. The field name is used in the error.
func ObjectID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s: invalid id %q", field, hex)
	}
	return id, nil
}

// ObjectIDs parses a list of hex ids.
func ObjectIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := ObjectID(field, h)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Date parses an optional YYYY-MM-DD value. Empty input yields nil.
func Date(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%s: expected YYYY-MM-DD", field)
	}
	return &t, nil
}
