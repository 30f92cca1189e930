package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/events"
	"mcphub/internal/registry"
	"mcphub/internal/router"
	"mcphub/internal/server"
)

type pid int

func (p pid) PID() int { return int(p) }

type testHub struct {
	url    string
	reg    *registry.Registry
	broker *events.Broker
}

func startHub(t *testing.T, names ...string) *testHub {
	t.Helper()

	reg := registry.New()
	for i, name := range names {
		require.NoError(t, reg.Register(name, "http://"+name))
		require.NoError(t, reg.MarkRunning(name, pid(200+i)))
	}
	broker := events.NewBroker()
	srv, err := server.New(server.Options{
		Router: router.New(router.Options{Backends: reg}),
		Status: reg,
		Broker: broker,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return &testHub{url: ts.URL, reg: reg, broker: broker}
}

func TestClient_HTTPRoutes(t *testing.T) {
	hub := startHub(t, "alpha", "beta")
	c := New(hub.url, time.Second)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, health.Repositories)

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 4)
	assert.Equal(t, "alpha_search", tools[0].Name)

	resources, err := c.ListResources(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, "repo://beta/", resources[1].URI)

	result, err := c.CallTool(ctx, "alpha_search", map[string]interface{}{"query": "foo"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, `"foo"`)

	read, err := c.ReadResource(ctx, "repo://beta/src/main.go")
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	contents, ok := mcp.AsTextResourceContents(read.Contents[0])
	require.True(t, ok)
	assert.Equal(t, "repo://beta/src/main.go", contents.URI)

	_, err = c.ReadResource(ctx, "file:///etc/passwd")
	assert.Error(t, err)
}

func TestClient_RouterErrorsBecomeRequestErrors(t *testing.T) {
	hub := startHub(t, "alpha")
	c := New(hub.url, time.Second)

	_, err := c.CallTool(context.Background(), "gamma_search", map[string]interface{}{"query": "foo"})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 500, reqErr.StatusCode)
	assert.Equal(t, string(router.KindUnknownBackend), reqErr.Kind)
	assert.Contains(t, reqErr.Error(), "gamma")
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	_, err := New(url, time.Second).Health(context.Background())
	assert.ErrorContains(t, err, "not reachable")

	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, url, unreachable.BaseURL)
}

func TestClient_WatchEvents(t *testing.T) {
	hub := startHub(t, "alpha")
	c := New(hub.url, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan events.Event, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.WatchEvents(ctx, func(ev events.Event) error {
			received <- ev
			return errors.New("stop")
		})
	}()

	require.Eventually(t, func() bool { return hub.broker.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.broker.Publish(events.Running("beta", 42))

	select {
	case ev := <-received:
		assert.Equal(t, events.EventRunning, ev.Type)
		assert.Equal(t, "beta", ev.Backend)
		assert.Equal(t, 42, ev.PID)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
	assert.EqualError(t, <-done, "stop")
}

func TestChannelURL(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:3000/ws", ChannelURL("http://127.0.0.1:3000/"))
	assert.Equal(t, "wss://hub.example.com/ws", ChannelURL("https://hub.example.com"))
}

func TestChannel_Call(t *testing.T) {
	hub := startHub(t, "alpha", "beta")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := Dial(ctx, hub.url)
	require.NoError(t, err)
	defer ch.Close()

	raw, err := ch.Call(ctx, router.MethodInitialize, map[string]interface{}{})
	require.NoError(t, err)
	var initResult router.InitializeResult
	require.NoError(t, json.Unmarshal(raw, &initResult))
	assert.Equal(t, router.ProtocolVersion, initResult.ProtocolVersion)

	require.NoError(t, ch.Notify(ctx, "notifications/initialized", nil))

	raw, err = ch.Call(ctx, router.MethodToolsList, nil)
	require.NoError(t, err)
	var tools struct {
		Tools []mcp.Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &tools))
	assert.Len(t, tools.Tools, 4)

	_, err = ch.Call(ctx, router.MethodToolsCall, router.CallToolParams{Name: "gamma_list"})
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, router.CodeServerError, rpcErr.Code)
	assert.Equal(t, string(router.KindUnknownBackend), rpcErr.Kind)

	reply, err := ch.SendRaw(ctx, []byte(`not json`))
	require.NoError(t, err)
	assert.Contains(t, string(reply), `-32700`)

	// The channel survives the malformed message.
	_, err = ch.Call(ctx, router.MethodResourcesList, nil)
	assert.NoError(t, err)
}
