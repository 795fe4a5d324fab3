package policy

import "sync"

// DefaultTenant is the scanner key used when a request carries no tenant.
const DefaultTenant = "default"

// Registry hands out one scanner per tenant so rule updates for one tenant
// never leak into another. Scanners are created lazily from the base set.
type Registry struct {
	mu       sync.Mutex
	base     RuleSet
	scanners map[string]*Scanner
}

// NewRegistry returns a registry seeded with the built-in default rules.
func NewRegistry() *Registry {
	return &Registry{
		base:     DefaultRuleSet(),
		scanners: make(map[string]*Scanner),
	}
}

// Scanner returns the scanner for a tenant, creating it from the base set on
// first use. An empty tenant maps to DefaultTenant.
func (r *Registry) Scanner(tenant string) *Scanner {
	if tenant == "" {
		tenant = DefaultTenant
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scanners[tenant]
	if !ok {
		s = MustNewScanner(r.base)
		r.scanners[tenant] = s
	}
	return s
}

// SetBase validates and installs a new base rule set. Future tenants start
// from it and the default tenant's scanner is replaced immediately; tenants
// that already customized their rules keep them.
func (r *Registry) SetBase(set RuleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def, ok := r.scanners[DefaultTenant]; ok {
		if err := def.Replace(set); err != nil {
			return err
		}
	} else {
		s, err := NewScanner(set)
		if err != nil {
			return err
		}
		r.scanners[DefaultTenant] = s
	}
	r.base = set.Merged(RuleSetUpdate{})
	return nil
}

// Base returns a copy of the current base rule set.
func (r *Registry) Base() RuleSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.base.Merged(RuleSetUpdate{})
}

// Tenants lists the tenants with an instantiated scanner.
func (r *Registry) Tenants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.scanners))
	for t := range r.scanners {
		out = append(out, t)
	}
	return out
}
