package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/outfitswitch/internal/config"
	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/mcp/mcpctx"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/svc"
)

type memBackend struct{ s *profile.Settings }

func (m *memBackend) Load(context.Context) (*profile.Settings, error) { return m.s.Clone(), nil }
func (m *memBackend) Save(_ context.Context, s *profile.Settings) error {
	m.s = s.Clone()
	return nil
}

func connect(t *testing.T) (*mcp.ClientSession, *svc.ServiceContext) {
	t.Helper()
	ctx := context.Background()

	seed := profile.DefaultSettings()
	seed.Enabled = true
	seed.Active().BaseFolder = "Alice"
	seed.Active().Triggers = []profile.TriggerEntry{{Trigger: "cold", Triggers: []string{"cold"}, Folder: "winter"}}
	seed.Profiles.Set("Summer", &profile.Profile{BaseFolder: "Alice/summer"})

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	svcCtx, err := svc.NewServiceContext(ctx, cfg,
		svc.WithBackend(&memBackend{s: seed}),
		svc.WithExecutor(issuer.ExecutorFunc(func(context.Context, issuer.Command) error { return nil })),
	)
	require.NoError(t, err)
	t.Cleanup(svcCtx.Close)

	server := mcp.NewServer(&mcp.Implementation{Name: "outfitswitch-test", Version: "test"}, nil)
	RegisterOutfitTools(server, mcpctx.NewToolContext(svcCtx, "req", "session"))

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err = server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session, svcCtx
}

func decode(t *testing.T, res *mcp.CallToolResult, out any) {
	t.Helper()
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestOutfitMatch(t *testing.T) {
	session, _ := connect(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "outfit_match",
		Arguments: map[string]any{"text": "so COLD out here"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out MatchOutput
	decode(t, res, &out)
	assert.True(t, out.Matched)
	assert.Equal(t, "Alice/winter", out.Costume)
	assert.Equal(t, profile.DefaultProfileName, out.Profile)
}

func TestOutfitSwitch(t *testing.T) {
	session, _ := connect(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "outfit_switch",
		Arguments: map[string]any{"trigger": "cold"},
	})
	require.NoError(t, err)
	var out SwitchOutput
	decode(t, res, &out)
	assert.True(t, out.OK)
	assert.Contains(t, out.Message, "Alice/winter")

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "outfit_switch",
		Arguments: map[string]any{"trigger": "cold", "base": true},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestOutfitProfile(t *testing.T) {
	session, svcCtx := connect(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "outfit_profile",
		Arguments: map[string]any{"action": "activate", "name": "Summer"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out ProfileOutput
	decode(t, res, &out)
	assert.Equal(t, "Summer", out.ActiveProfile)
	assert.Equal(t, []string{profile.DefaultProfileName, "Summer"}, out.Profiles)
	assert.Equal(t, "Summer", svcCtx.Store.ActiveName())

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "outfit_profile",
		Arguments: map[string]any{"action": "activate", "name": "Winter"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
