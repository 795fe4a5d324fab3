package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"whatsapp-crm/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicyRouter(registry *policy.Registry, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPolicyHandler(registry, testLog())

	r := gin.New()
	group := r.Group("/api/policy", pre...)
	group.GET("/rules", h.GetRules)
	group.PUT("/rules", h.UpdateRules)
	return r
}

func putJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPolicyGetRules_Defaults(t *testing.T) {
	r := newPolicyRouter(policy.NewRegistry())

	req := httptest.NewRequest(http.MethodGet, "/api/policy/rules", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rules policy.RuleSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	assert.Equal(t, policy.DefaultRuleSet(), rules)
}

func TestPolicyGetRules_TenantScoped(t *testing.T) {
	registry := policy.NewRegistry()
	custom := []policy.Rule{{Name: "flash sale", Pattern: "flash sale"}}
	require.NoError(t, registry.Scanner("acme").SetRules(policy.RuleSetUpdate{
		SpamLanguagePatterns: custom,
	}))

	r := newPolicyRouter(registry, asTenant("acme"))

	req := httptest.NewRequest(http.MethodGet, "/api/policy/rules", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rules policy.RuleSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	assert.Equal(t, custom, rules.SpamLanguagePatterns)
	assert.Equal(t, policy.DefaultRuleSet().SensitiveDataPatterns, rules.SensitiveDataPatterns)
}

func TestPolicyUpdateRules_Rejections(t *testing.T) {
	registry := policy.NewRegistry()
	r := newPolicyRouter(registry)

	t.Run("bad json", func(t *testing.T) {
		w := putJSON(r, "/api/policy/rules", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no lists in the body", func(t *testing.T) {
		w := putJSON(r, "/api/policy/rules", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "sensitiveDataPatterns")
	})

	t.Run("invalid pattern leaves the rules unchanged", func(t *testing.T) {
		w := putJSON(r, "/api/policy/rules", `{"spamLanguagePatterns":[{"name":"broken","pattern":"("}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, policy.DefaultRuleSet(), registry.Scanner("").Rules())
	})
}
