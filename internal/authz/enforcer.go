// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package authz decides what each role may do, using Casbin RBAC with an
// embedded model and policy.
package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/communitymap/internal/cache"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Objects and actions used in the policy.
const (
	ObjObject  = "object"
	ObjComment = "comment"
	ObjProfile = "profile"
	ObjMessage = "message"
	ObjGeocode = "geocode"
	ObjUser    = "user"

	ActRead      = "read"
	ActCreate    = "create"
	ActDelete    = "delete"
	ActDeleteOwn = "delete_own"
	ActReadOwn   = "read_own"
	ActCreateOwn = "create_own"
	ActManage    = "manage"
)

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// PolicyPath overrides the embedded policy when the file exists.
	PolicyPath string

	// CacheTTL is how long decisions are cached. Zero disables the cache.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{CacheTTL: 5 * time.Minute}
}

// Enforcer wraps the Casbin enforcer with a decision cache.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *cache.LRU[bool]
}

// NewEnforcer loads the model and policy.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if config.PolicyPath != "" && fileExists(config.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(config.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{config: config, enforcer: enforcer}
	if config.CacheTTL > 0 {
		e.cache = cache.NewLRU[bool](1024, config.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy parses "p, ..." and "g, ..." lines.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		ptype, rule := parts[0], parts[1:]

		switch {
		case ptype == "p" && len(rule) >= 3:
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case ptype == "g" && len(rule) >= 2:
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		}
	}
	return nil
}

// Enforce reports whether role may perform action on object.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	key := role + "|" + object + "|" + action
	if e.cache != nil {
		if allowed, ok := e.cache.Get(key); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.Add(key, allowed)
	}
	return allowed, nil
}

// EnforceOwned allows action when role has it outright, or when the caller
// owns the resource and role has ownAction.
func (e *Enforcer) EnforceOwned(role, object, action, ownAction string, isOwner bool) (bool, error) {
	allowed, err := e.Enforce(role, object, action)
	if err != nil || allowed {
		return allowed, err
	}
	if !isOwner {
		return false, nil
	}
	return e.Enforce(role, object, ownAction)
}

// AddPolicy adds a rule at runtime.
func (e *Enforcer) AddPolicy(role, object, action string) (bool, error) {
	added, err := e.enforcer.AddPolicy(role, object, action)
	if err != nil {
		return false, fmt.Errorf("failed to add policy: %w", err)
	}
	if e.cache != nil {
		e.cache.Clear()
	}
	return added, nil
}

// GetPolicy returns all policy rules.
func (e *Enforcer) GetPolicy() [][]string {
	//nolint:errcheck // only fails on a nil enforcer
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
