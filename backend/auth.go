// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

// userIDKey is the context key for the authenticated user's ID (email).
// The associated value is always a string.
var userIDKey contextKey

// getUserID returns the UserID from the request context, if present.
func getUserID(r *http.Request) string {
	if val := r.Context().Value(userIDKey); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// normalizeEmail ensures consistent casing and whitespace for User IDs.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// maskEmail obscures an email address for safe logging.
// e.g. "user@example.com" -> "u***@example.com"
func maskEmail(email string) string {
	if email == "" {
		return "<empty>"
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "****"
	}
	return local[:1] + "***@" + domain
}

// ErrForbidden is returned when the caller may not score a match.
var ErrForbidden = errors.New("Forbidden: not the scorer of this match")

const scorerTokenIssuer = "wicketkeeper"

// ScorerClaims are carried by a scorer token. Holding a valid token for a
// match is what makes a client its scorer.
type ScorerClaims struct {
	MatchID string `json:"mid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks HS256 scorer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer using secret. An empty secret is replaced
// by a random one, which invalidates tokens on restart.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if len(secret) == 0 {
		log.Println("[AUTH] Warning: no scorer token secret configured; using a random one.")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(err)
		}
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a token that lets its holder score matchID.
func (ti *TokenIssuer) Issue(matchID, subject string) (string, error) {
	now := ti.now()
	claims := ScorerClaims{
		MatchID: matchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    scorerTokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign scorer token: %w", err)
	}
	return s, nil
}

// Verify checks that token is a valid scorer token for matchID.
func (ti *TokenIssuer) Verify(token, matchID string) error {
	if token == "" {
		return ErrForbidden
	}
	var claims ScorerClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(scorerTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	if claims.MatchID != matchID {
		return fmt.Errorf("%w: token is for another match", ErrForbidden)
	}
	return nil
}

// scorerToken extracts the scorer token from the header or a bearer
// Authorization header.
func scorerToken(r *http.Request) string {
	if t := r.Header.Get(ScorerTokenHeader); t != "" {
		return t
	}
	if t, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(t)
	}
	return r.URL.Query().Get("token")
}

// authorizeScorer allows the match owner and holders of a scorer token.
func authorizeScorer(ti *TokenIssuer, r *http.Request, matchID, ownerID string) error {
	if userID := getUserID(r); userID != "" && normalizeEmail(ownerID) == userID {
		return nil
	}
	if err := ti.Verify(scorerToken(r), matchID); err != nil {
		log.Printf("[AUTH] Scorer check failed for match %s user=%s: %v", matchID, maskEmail(getUserID(r)), err)
		return err
	}
	return nil
}
