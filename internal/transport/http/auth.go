package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/robot-ai-webapp/coord-core/internal/coorderr"
	"github.com/robot-ai-webapp/coord-core/internal/coordination"
)

// unauthorized is the one coorderr kind this REST surface emits, from the
// auth middleware below (spec §7: "Auth/diary REST responses use standard
// HTTP codes"). Refusals inside handlers.go are robot-control 200s with
// {status:"error"}; the other non-200 answers there are GET /nodes' 503 and
// 405 for an unsupported method.
var unauthorized = coorderr.New(coorderr.Unauthorized, "missing or invalid credentials")

type ctxKey int

const authResultKey ctxKey = 0

func withAuthResult(r *http.Request, res coordination.AuthResult) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authResultKey, res))
}

func authResultFrom(r *http.Request) coordination.AuthResult {
	res, _ := r.Context().Value(authResultKey).(coordination.AuthResult)
	return res
}

// apiKeyAuth enforces the X-Api-Key header robot ingest endpoints require
// (spec §6). A missing/wrong key is a transport-level auth failure, so it
// answers with a standard 401 — unlike the robot-control business responses
// those handlers return on success.
func (s *Server) apiKeyAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != s.apiKey {
			w.WriteHeader(unauthorized.HTTPStatus())
			return
		}
		next(w, r)
	}
}

// bearerAuth enforces a JWT via the Auth Collaborator for user-control
// endpoints. Absent/invalid/expired tokens answer 401, per §7's
// Unauthorized kind.
func (s *Server) bearerAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			w.WriteHeader(unauthorized.HTTPStatus())
			return
		}
		result, err := s.auth.Verify(token)
		if err != nil {
			w.WriteHeader(unauthorized.HTTPStatus())
			return
		}
		next(w, withAuthResult(r, result))
	}
}
