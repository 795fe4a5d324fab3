package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Scanner(t *testing.T) {
	r := NewRegistry()

	t.Run("empty tenant aliases the default tenant", func(t *testing.T) {
		assert.Same(t, r.Scanner(""), r.Scanner(DefaultTenant))
	})

	t.Run("repeated lookups return the same scanner", func(t *testing.T) {
		assert.Same(t, r.Scanner("acme"), r.Scanner("acme"))
	})

	t.Run("tenants get distinct scanners", func(t *testing.T) {
		assert.NotSame(t, r.Scanner("acme"), r.Scanner("globex"))
	})

	t.Run("new scanners start from the base set", func(t *testing.T) {
		assert.Equal(t, DefaultRuleSet(), r.Scanner("initech").Rules())
	})
}

func TestRegistry_TenantIsolation(t *testing.T) {
	r := NewRegistry()

	acme := r.Scanner("acme")
	globex := r.Scanner("globex")

	require.NoError(t, acme.SetRules(RuleSetUpdate{SpamLanguagePatterns: []Rule{}}))

	assert.Empty(t, acme.Scan("buy now"))
	assert.NotEmpty(t, globex.Scan("buy now"))
	assert.NotEmpty(t, r.Scanner("").Scan("buy now"))
}

func TestRegistry_SetBase(t *testing.T) {
	r := NewRegistry()

	def := r.Scanner("")
	acme := r.Scanner("acme")
	require.NoError(t, acme.SetRules(RuleSetUpdate{SpamLanguagePatterns: []Rule{}}))

	next := DefaultRuleSet().Merged(RuleSetUpdate{
		SpamLanguagePatterns: []Rule{{Name: "flash sale", Pattern: "flash sale"}},
	})
	require.NoError(t, r.SetBase(next))

	t.Run("default tenant picks up the new base immediately", func(t *testing.T) {
		assert.Same(t, def, r.Scanner(""))
		assert.NotEmpty(t, def.Scan("flash sale today"))
		assert.Empty(t, def.Scan("buy now"))
	})

	t.Run("customized tenants keep their rules", func(t *testing.T) {
		assert.Empty(t, acme.Scan("flash sale today"))
		assert.Empty(t, acme.Scan("buy now"))
		assert.NotEmpty(t, acme.Scan("enter your password"))
	})

	t.Run("new tenants start from the new base", func(t *testing.T) {
		assert.NotEmpty(t, r.Scanner("globex").Scan("flash sale today"))
	})

	t.Run("base reflects the installed set", func(t *testing.T) {
		assert.Equal(t, next, r.Base())
	})
}

func TestRegistry_SetBase_CreatesDefaultScanner(t *testing.T) {
	r := NewRegistry()

	next := RuleSet{SpamLanguagePatterns: []Rule{{Name: "flash sale", Pattern: "flash sale"}}}
	require.NoError(t, r.SetBase(next))

	assert.ElementsMatch(t, []string{DefaultTenant}, r.Tenants())
	assert.NotEmpty(t, r.Scanner("").Scan("flash sale today"))
}

func TestRegistry_SetBase_InvalidSetKeepsOld(t *testing.T) {
	r := NewRegistry()
	def := r.Scanner("")

	err := r.SetBase(RuleSet{SpamLanguagePatterns: []Rule{{Name: "broken", Pattern: "("}}})
	require.Error(t, err)

	assert.Equal(t, DefaultRuleSet(), r.Base())
	assert.NotEmpty(t, def.Scan("buy now"))
}

func TestRegistry_BaseReturnsCopy(t *testing.T) {
	r := NewRegistry()

	base := r.Base()
	base.SpamLanguagePatterns[0] = Rule{Name: "mutated", Pattern: "mutated"}

	assert.Equal(t, DefaultRuleSet(), r.Base())
}

func TestRegistry_Tenants(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Tenants())

	r.Scanner("")
	r.Scanner("acme")

	assert.ElementsMatch(t, []string{DefaultTenant, "acme"}, r.Tenants())
}
