// Package auth implements the Auth Collaborator contract named in spec §6:
// verify(token) → {userId, name, role} | Invalid. The collaborator itself is
// specified as an external system (spec §1 lists user identity/credentials
// as out of scope for the core); this package supplies the pluggable
// interface plus one concrete default implementation, JWTVerifier, so the
// repository is runnable end to end.
//
// The teacher's own internal/server/handler.go leaves this exact gap open:
// handleAuth has a literal "// TODO: Validate JWT token" and hard-codes
// client.UserID = "user-from-token". JWTVerifier fills that TODO using the
// golang-jwt family, the same family used for bearer-token validation in
// the YaoApp-yao and gravitational-teleport example repos.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/robot-ai-webapp/coord-core/internal/coordination"
)

// ErrInvalidToken is returned for any verification failure — expired,
// malformed, wrong signature, or missing required claims. The Auth
// Collaborator contract collapses all of these into one "Invalid" case.
var ErrInvalidToken = errors.New("invalid token")

// Collaborator is the interface spec §6 names. A real deployment may swap
// in a remote identity service; JWTVerifier below is this repository's
// default.
type Collaborator interface {
	Verify(token string) (coordination.AuthResult, error)
}

// Claims is the expected JWT payload shape: subject is the user id, plus
// custom name/role claims.
type Claims struct {
	jwt.RegisteredClaims
	Name string           `json:"name"`
	Role coordination.Role `json:"role"`
}

// JWTVerifier validates HS256-signed tokens against a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier bound to secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify implements Collaborator.
func (v *JWTVerifier) Verify(token string) (coordination.AuthResult, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return coordination.AuthResult{}, ErrInvalidToken
	}

	switch claims.Role {
	case coordination.RoleAdmin, coordination.RoleOperator, coordination.RoleViewer:
	default:
		return coordination.AuthResult{}, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return coordination.AuthResult{}, ErrInvalidToken
	}

	return coordination.AuthResult{
		UserID: subject,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}
