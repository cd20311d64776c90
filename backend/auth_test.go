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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"user@example.com", "u***@example.com"},
		{"", "<empty>"},
		{"nodomain", "****"},
		{"@example.com", "****"},
		{"a@b@c", "****"},
	}
	for _, tt := range tests {
		if got := maskEmail(tt.in); got != tt.want {
			t.Errorf("maskEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := normalizeEmail("  Bob@Example.COM "); got != "bob@example.com" {
		t.Errorf("normalizeEmail = %q", got)
	}
}

func TestScorerTokens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ti := NewTokenIssuer([]byte("secret"), time.Hour)
	ti.now = func() time.Time { return now }

	tok, err := ti.Issue("match-1", "owner@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := ti.Verify(tok, "match-1"); err != nil {
		t.Errorf("Verify: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		matchID string
		issuer  *TokenIssuer
	}{
		{"Empty", "", "match-1", ti},
		{"Other Match", tok, "match-2", ti},
		{"Garbage", "not.a.token", "match-1", ti},
		{"Other Secret", tok, "match-1", NewTokenIssuer([]byte("other"), time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.issuer.Verify(tt.token, tt.matchID); !errors.Is(err, ErrForbidden) {
				t.Errorf("Verify() = %v, want ErrForbidden", err)
			}
		})
	}

	ti.now = func() time.Time { return now.Add(2 * time.Hour) }
	if err := ti.Verify(tok, "match-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expired token: Verify() = %v, want ErrForbidden", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, ScorerClaims{MatchID: "match-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err := NewTokenIssuer([]byte("secret"), time.Hour).Verify(unsigned, "match-1"); err == nil {
		t.Error("unsigned token accepted")
	}
}

func TestAuthorizeScorer(t *testing.T) {
	ti := NewTokenIssuer([]byte("secret"), time.Hour)
	tok, _ := ti.Issue("m1", "")

	var got []error
	h := mockAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, authorizeScorer(ti, r, "m1", "Owner@Example.com"))
	}))

	reqs := []*http.Request{
		httptest.NewRequest("GET", "/", nil),
		httptest.NewRequest("GET", "/", nil),
		httptest.NewRequest("GET", "/", nil),
		httptest.NewRequest("GET", "/?token="+tok, nil),
		httptest.NewRequest("GET", "/", nil),
	}
	reqs[1].AddCookie(&http.Cookie{Name: mockAuthCookie, Value: "owner@example.com"})
	reqs[2].Header.Set(ScorerTokenHeader, tok)
	reqs[4].Header.Set("Authorization", "Bearer "+tok)
	for _, r := range reqs {
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	if !errors.Is(got[0], ErrForbidden) {
		t.Errorf("anonymous: %v", got[0])
	}
	for i, err := range got[1:] {
		if err != nil {
			t.Errorf("request %d: %v", i+1, err)
		}
	}
}

func TestJWTAuthMiddleware(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := jwk.Import(&priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := pub.Set(jwk.KeyIDKey, "k1"); err != nil {
		t.Fatal(err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		t.Fatal(err)
	}
	jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(set)
	}))
	defer jwks.Close()

	sign := func(kid string, claims jwt.MapClaims) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
		tok.Header["kid"] = kid
		s, err := tok.SignedString(priv)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	var seen string
	h := jwtAuthMiddleware(Options{AuthJWKSURL: jwks.URL}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getUserID(r)
	}))

	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{"No Cookie", "", ""},
		{"Valid", sign("k1", jwt.MapClaims{"email": "User@Example.com", "exp": exp}), "user@example.com"},
		{"Unknown Kid", sign("k2", jwt.MapClaims{"email": "user@example.com", "exp": exp}), ""},
		{"Expired", sign("k1", jwt.MapClaims{"email": "user@example.com", "exp": time.Now().Add(-time.Hour).Unix()}), ""},
		{"No Email", sign("k1", jwt.MapClaims{"exp": exp}), ""},
		{"Garbage", "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = "unset"
			req := httptest.NewRequest("GET", "/api/matches", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: defaultAuthCookie, Value: tt.cookie})
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if seen != tt.want {
				t.Errorf("user = %q, want %q", seen, tt.want)
			}
		})
	}
}
