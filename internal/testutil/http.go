package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// SuperAdmin returns a session user with the superadmin role.
func SuperAdmin() *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test Superadmin", Role: "superadmin"}
}

// Coordinator returns a session user with the coordinator role.
func Coordinator() *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test Coordinator", Role: "coordinator"}
}

// FieldSecretary returns a session user assigned to field.
func FieldSecretary(field string) *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test Field Secretary", Role: "field_secretary", FieldID: field}
}

// Pastor returns a session user assigned to district.
func Pastor(district string) *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test Pastor", Role: "pastor", DistrictID: district}
}

// ChurchSecretary returns a session user assigned to churchID.
func ChurchSecretary(churchID primitive.ObjectID) *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test Church Secretary", Role: "church_secretary", ChurchID: churchID.Hex()}
}

// Bibleworker returns a session user assigned to churchIDs.
func Bibleworker(churchIDs ...primitive.ObjectID) *auth.SessionUser {
	hexes := make([]string, 0, len(churchIDs))
	for _, id := range churchIDs {
		hexes = append(hexes, id.Hex())
	}
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test Bibleworker", Role: "bibleworker", AssignedChurchIDs: hexes}
}

// NewRequest builds a request, optionally with a JSON body and a user.
func NewRequest(t *testing.T, method, target string, body any, user *auth.SessionUser) *http.Request {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req = auth.WithTestUser(req, user)
	}
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response %q: %v", r.Body.String(), err)
	}
}
