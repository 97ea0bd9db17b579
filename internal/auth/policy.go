package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// PolicyEntry is one allow declaration in the policy document: a set of
// resources combined with the permitted actions on them.
type PolicyEntry struct {
	Resources   []string `json:"resources"`
	Permissions []string `json:"permissions"`
}

// PolicyDocument maps a role name to its allow entries. It is the merged
// per-resource policy produced at build time, e.g.
//
//	{
//	  "Admin": [{"resources": ["user"], "permissions": ["read", "delete"]}],
//	  "User":  [{"resources": ["user"], "permissions": ["read"]}]
//	}
type PolicyDocument map[string][]PolicyEntry

// Policy is the process-wide role→resource→action allow-list. Absent
// entries deny. Reads are taken under a read lock so request handling
// stays concurrent; Replace serializes against readers for reloads.
//
// There is no persisted subject→role association here: each request's
// role comes from the identity loaded by the authentication middleware.
type Policy struct {
	mu    sync.RWMutex
	allow map[string]map[string]map[string]bool
}

func NewPolicy() *Policy {
	return &Policy{allow: map[string]map[string]map[string]bool{}}
}

// LoadPolicyFile reads and parses the merged policy document. On failure
// it returns an empty (deny-everything) policy alongside the error so the
// process can keep serving; the caller is expected to log the failure.
func LoadPolicyFile(path string) (*Policy, error) {
	policy := NewPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}

	var doc PolicyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return policy, fmt.Errorf("parse policy file: %w", err)
	}

	policy.Replace(doc)
	return policy, nil
}

// Replace swaps in a new allow table built from the document.
func (p *Policy) Replace(doc PolicyDocument) {
	allow := make(map[string]map[string]map[string]bool, len(doc))
	for role, entries := range doc {
		resources := map[string]map[string]bool{}
		for _, entry := range entries {
			for _, resource := range entry.Resources {
				actions := resources[resource]
				if actions == nil {
					actions = map[string]bool{}
					resources[resource] = actions
				}
				for _, permission := range entry.Permissions {
					actions[permission] = true
				}
			}
		}
		allow[role] = resources
	}

	p.mu.Lock()
	p.allow = allow
	p.mu.Unlock()
}

// IsAllowed reports whether the role may perform the action on the
// resource. Unknown roles, resources, and actions all deny.
func (p *Policy) IsAllowed(role, resource, action string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	resources, ok := p.allow[role]
	if !ok {
		return false
	}
	actions, ok := resources[resource]
	if !ok {
		return false
	}
	return actions[action]
}
