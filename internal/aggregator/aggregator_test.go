package aggregator

import (
	"testing"

	"mcphub/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pid int

func (p pid) PID() int { return int(p) }

func newRegistry(t *testing.T, running ...string) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for i, name := range running {
		require.NoError(t, reg.Register(name, "http://"+name))
		require.NoError(t, reg.MarkRunning(name, pid(i+1)))
	}
	return reg
}

func toolNames(a *Aggregator) []string {
	var names []string
	for _, tool := range a.ListTools() {
		names = append(names, tool.Name)
	}
	return names
}

func TestListTools(t *testing.T) {
	reg := newRegistry(t, "alpha", "beta")
	require.NoError(t, reg.Register("starting", "http://s"))
	agg := New(reg)

	tools := agg.ListTools()
	assert.Equal(t, []string{"alpha_search", "alpha_list", "beta_search", "beta_list"}, toolNames(agg))

	search := tools[0]
	assert.Contains(t, search.Description, "alpha")
	assert.Equal(t, []string{"query"}, search.InputSchema.Required)
	assert.Contains(t, search.InputSchema.Properties, "query")
	limit, ok := search.InputSchema.Properties["limit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "number", limit["type"])
	assert.EqualValues(t, DefaultSearchLimit, limit["default"])

	list := tools[1]
	assert.Empty(t, list.InputSchema.Required)
	path, ok := list.InputSchema.Properties["path"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultListPath, path["default"])
}

func TestListTools_ReflectsExitImmediately(t *testing.T) {
	reg := newRegistry(t, "alpha", "beta")
	agg := New(reg)

	first := toolNames(agg)
	assert.Equal(t, first, toolNames(agg), "listing is idempotent")

	reg.MarkExited("beta", 0)
	assert.Equal(t, []string{"alpha_search", "alpha_list"}, toolNames(agg))
	assert.Len(t, agg.ListResources(), 1)
}

func TestListResources(t *testing.T) {
	agg := New(newRegistry(t, "alpha", "beta"))

	resources := agg.ListResources()
	require.Len(t, resources, 2)
	assert.Equal(t, "repo://alpha/", resources[0].URI)
	assert.Equal(t, "repo://beta/", resources[1].URI)
	assert.Contains(t, resources[0].Description, "alpha")

	assert.Empty(t, New(registry.New()).ListResources())
	assert.Empty(t, New(registry.New()).ListTools())
}

func TestSplitQualifiedName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantBackend string
		wantAction  string
		wantOK      bool
	}{
		{name: "search", input: "alpha_search", wantBackend: "alpha", wantAction: "search", wantOK: true},
		{name: "splits on first separator", input: "alpha_list_all", wantBackend: "alpha", wantAction: "list_all", wantOK: true},
		{name: "empty action", input: "alpha_", wantBackend: "alpha", wantAction: "", wantOK: true},
		{name: "no separator", input: "alpha", wantOK: false},
		{name: "empty backend", input: "_search", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, action, ok := SplitQualifiedName(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBackend, backend)
			assert.Equal(t, tt.wantAction, action)
		})
	}
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("search")
	assert.True(t, ok)
	assert.Equal(t, ActionSearch, a)

	_, ok = ParseAction("delete")
	assert.False(t, ok)
}

func TestParseResourceURI(t *testing.T) {
	tests := []struct {
		uri         string
		wantBackend string
		wantPath    string
	}{
		{uri: "repo://alpha/", wantBackend: "alpha", wantPath: "/"},
		{uri: "repo://alpha", wantBackend: "alpha", wantPath: "/"},
		{uri: "repo://alpha/src/main.go", wantBackend: "alpha", wantPath: "/src/main.go"},
		{uri: "alpha/docs", wantBackend: "alpha", wantPath: "/docs"},
		{uri: "repo://", wantBackend: "", wantPath: "/"},
		{uri: "repo:///docs", wantBackend: "docs", wantPath: "/"},
		{uri: "", wantBackend: "", wantPath: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			backend, path := ParseResourceURI(tt.uri)
			assert.Equal(t, tt.wantBackend, backend)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}
