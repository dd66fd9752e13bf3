// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package authz

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/communitymap/internal/auth"
)

func setupEnforcer(t *testing.T, cfg *EnforcerConfig) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(cfg)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return e
}

func TestEnforce_EmbeddedPolicy(t *testing.T) {
	e := setupEnforcer(t, nil)

	tests := []struct {
		role, obj, act string
		want           bool
	}{
		{"anonymous", ObjObject, ActRead, true},
		{"anonymous", ObjObject, ActCreate, false},
		{"anonymous", ObjComment, ActCreate, false},
		{"anonymous", ObjMessage, ActReadOwn, false},
		{"user", ObjObject, ActRead, true},
		{"user", ObjObject, ActCreate, true},
		{"user", ObjComment, ActCreate, true},
		{"user", ObjObject, ActDelete, false},
		{"user", ObjObject, ActDeleteOwn, true},
		{"user", ObjMessage, ActCreateOwn, true},
		{"admin", ObjObject, ActDelete, true},
		{"admin", ObjComment, ActCreate, true},
		{"admin", ObjGeocode, ActRead, true},
		{"stranger", ObjObject, ActRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.obj+"/"+tt.act, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.obj, tt.act)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforceOwned(t *testing.T) {
	e := setupEnforcer(t, nil)

	tests := []struct {
		name  string
		role  string
		owner bool
		want  bool
	}{
		{"owner user", "user", true, true},
		{"other user", "user", false, false},
		{"admin not owner", "admin", false, true},
		{"anonymous owner flag ignored", "anonymous", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EnforceOwned(tt.role, ObjObject, ActDelete, ActDeleteOwn, tt.owner)
			if err != nil || got != tt.want {
				t.Errorf("EnforceOwned() = %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestEnforce_CacheClearedOnPolicyChange(t *testing.T) {
	e := setupEnforcer(t, &EnforcerConfig{CacheTTL: time.Minute})

	if ok, _ := e.Enforce("anonymous", ObjComment, ActCreate); ok {
		t.Fatal("anonymous should not comment by default")
	}
	if _, err := e.AddPolicy("anonymous", ObjComment, ActCreate); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if ok, _ := e.Enforce("anonymous", ObjComment, ActCreate); !ok {
		t.Error("cached decision survived policy change")
	}
}

func TestNewEnforcer_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, anonymous, object, create\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e := setupEnforcer(t, &EnforcerConfig{PolicyPath: path})

	if ok, _ := e.Enforce("anonymous", ObjObject, ActCreate); !ok {
		t.Error("file policy not applied")
	}
	if ok, _ := e.Enforce("anonymous", ObjObject, ActRead); ok {
		t.Error("embedded policy should not be loaded alongside a file")
	}
	if len(e.GetPolicy()) != 1 {
		t.Errorf("GetPolicy() = %v", e.GetPolicy())
	}
}

func TestMiddleware_Authorize(t *testing.T) {
	mw := NewMiddleware(setupEnforcer(t, nil), nil)
	h := mw.Authorize(ObjObject, ActCreate)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		subject *auth.Subject
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &auth.Subject{ID: "u1", Role: "user"}, http.StatusNoContent},
		{"empty role defaults to user", &auth.Subject{ID: "u1"}, http.StatusNoContent},
		{"unknown role", &auth.Subject{ID: "u1", Role: "banned"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.subject != nil {
				r = r.WithContext(auth.WithSubject(r.Context(), tt.subject))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
