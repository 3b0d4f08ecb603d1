package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/robot-ai-webapp/coord-core/internal/clock"
	"github.com/robot-ai-webapp/coord-core/internal/coordination"
	"go.uber.org/zap"
)

const testAPIKey = "secret-robot-key"
const testJWTSecret = "test-secret"

type stubCollaborator struct {
	result coordination.AuthResult
	err    error
}

func (s stubCollaborator) Verify(token string) (coordination.AuthResult, error) {
	if s.err != nil {
		return coordination.AuthResult{}, s.err
	}
	return s.result, nil
}

func newTestServer(t *testing.T, collaborator stubCollaborator) *Server {
	t.Helper()
	c := clock.NewFakeClock(time.Unix(0, 0))
	coord := coordination.New(c, zap.NewNop(), nil, nil)
	return New(coord, collaborator, testAPIKey, zap.NewNop())
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, stubCollaborator{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", rec.Code)
	}
}

func TestTableStateRequiresAPIKey(t *testing.T) {
	s := newTestServer(t, stubCollaborator{})
	body, _ := json.Marshal(map[string]string{"driveMode": "IDLE"})

	req := httptest.NewRequest(http.MethodPost, "/table/state", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST /table/state without API key = %d, want 401", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/table/state", bytes.NewReader(body))
	req2.Header.Set("X-Api-Key", testAPIKey)
	rec2 := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Errorf("POST /table/state with valid API key = %d, want 200", rec2.Code)
	}
}

func TestTableStateMalformedBodyReturns200WithErrorStatus(t *testing.T) {
	s := newTestServer(t, stubCollaborator{})
	req := httptest.NewRequest(http.MethodPost, "/table/state", bytes.NewReader([]byte("not json")))
	req.Header.Set("X-Api-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("malformed /table/state status = %d, want 200 (robot-control propagation policy)", rec.Code)
	}
	var got statusMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Status != "error" {
		t.Errorf("status = %q, want error", got.Status)
	}
}

func TestRoutesRequiresBearerToken(t *testing.T) {
	s := newTestServer(t, stubCollaborator{})
	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /routes without bearer token = %d, want 401", rec.Code)
	}
}

func TestRoutesWithValidBearerToken(t *testing.T) {
	s := newTestServer(t, stubCollaborator{result: coordination.AuthResult{UserID: "u1", Name: "Ada", Role: coordination.RoleAdmin}})
	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	req.Header.Set("Authorization", "Bearer any-token")
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /routes with valid bearer = %d, want 200", rec.Code)
	}
}

func TestRoutesWithInvalidBearerTokenReturns401(t *testing.T) {
	s := newTestServer(t, stubCollaborator{err: jwt.ErrTokenMalformed})
	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /routes with invalid bearer = %d, want 401", rec.Code)
	}
}

func TestNodesReturns503WhenUnknown(t *testing.T) {
	s := newTestServer(t, stubCollaborator{result: coordination.AuthResult{UserID: "u1", Role: coordination.RoleViewer}})
	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	req.Header.Set("Authorization", "Bearer any-token")
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /nodes with no known robot = %d, want 503", rec.Code)
	}
}

func TestEnqueueRouteForbiddenForOperatorReturns200WithError(t *testing.T) {
	s := newTestServer(t, stubCollaborator{result: coordination.AuthResult{UserID: "u1", Role: coordination.RoleOperator}})
	body, _ := json.Marshal(map[string]string{"start": "A", "destination": "B"})
	req := httptest.NewRequest(http.MethodPost, "/routes", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer any-token")
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /routes by Operator status = %d, want 200 (robot-control propagation policy)", rec.Code)
	}
	var got statusMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Status != "error" {
		t.Errorf("status = %q, want error", got.Status)
	}
}
