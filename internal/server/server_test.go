package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/outfitswitch/internal/config"
	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

type memBackend struct {
	mu sync.Mutex
	s  *profile.Settings
}

func (m *memBackend) Load(context.Context) (*profile.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Clone(), nil
}

func (m *memBackend) Save(_ context.Context, s *profile.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s.Clone()
	return nil
}

type pathRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (p *pathRecorder) Execute(_ context.Context, cmd issuer.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, cmd.Path)
	return nil
}

func (p *pathRecorder) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}

func newTestServer(t *testing.T) (*httptest.Server, *pathRecorder) {
	t.Helper()
	seed := profile.DefaultSettings()
	seed.Enabled = true
	seed.Active().BaseFolder = "Alice"
	seed.Active().Triggers = []profile.TriggerEntry{
		{Trigger: "cold", Triggers: []string{"cold"}, Folder: "winter"},
		{Trigger: "/^hello/i", Triggers: []string{"/^hello/i"}, Folder: "greeting"},
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Autosave.DebounceMs = 60_000
	rec := &pathRecorder{}
	svcCtx, err := svc.NewServiceContext(context.Background(), cfg,
		svc.WithBackend(&memBackend{s: seed}), svc.WithExecutor(rec))
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(svcCtx))
	t.Cleanup(func() {
		srv.Close()
		svcCtx.Close()
	})
	return srv, rec
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)

	var resp types.HealthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestMatchAndTrigger(t *testing.T) {
	srv, rec := newTestServer(t)

	code, body := do(t, srv, http.MethodPost, "/api/v1/match", `{"text":"Hello there"}`)
	require.Equal(t, http.StatusOK, code)
	var match types.MatchResponse
	require.NoError(t, json.Unmarshal(body, &match))
	assert.True(t, match.Matched)
	assert.Equal(t, "Alice/greeting", match.Costume)
	assert.Empty(t, rec.Paths())

	code, body = do(t, srv, http.MethodPost, "/api/v1/trigger", `{"trigger":"COLD"}`)
	require.Equal(t, http.StatusOK, code)
	var st types.StatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.True(t, st.OK)
	assert.Contains(t, st.HTML, "<strong>Alice/winter</strong>")
	assert.Equal(t, []string{"Alice/winter"}, rec.Paths())

	code, _ = do(t, srv, http.MethodPost, "/api/v1/trigger", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPostEvent(t *testing.T) {
	srv, rec := newTestServer(t)

	code, _ := do(t, srv, http.MethodPost, "/api/v1/events/message_rendered?wait=1", `[{"mes":"it's cold","is_user":false}]`)
	require.Equal(t, http.StatusAccepted, code)
	require.Eventually(t, func() bool { return len(rec.Paths()) == 1 }, 2*time.Second, 10*time.Millisecond)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/events/not_a_topic", `[]`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/events/message_rendered", `{broken`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProfileLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	code, _ := do(t, srv, http.MethodDelete, "/api/v1/profiles/active", "")
	assert.Equal(t, http.StatusConflict, code)

	code, body := do(t, srv, http.MethodPost, "/api/v1/profiles", `{"name":"Default"}`)
	require.Equal(t, http.StatusCreated, code)
	var created types.ProfileResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Default 2", created.Name)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/profiles/rename", `{"name":"Default"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/profiles/Nope/activate", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/profiles/Default/activate", "")
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, srv, http.MethodGet, "/api/v1/profiles", "")
	require.Equal(t, http.StatusOK, code)
	var list types.ListProfilesResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, "Default", list.ActiveProfile)
	require.Len(t, list.Profiles, 2)
	assert.Equal(t, 2, list.Profiles[0].Triggers)
}

func TestExportImport(t *testing.T) {
	srv, _ := newTestServer(t)

	code, exported := do(t, srv, http.MethodGet, "/api/v1/profiles/export", "")
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, srv, http.MethodPost, "/api/v1/profiles/import?fileName=copy.json", string(exported))
	require.Equal(t, http.StatusCreated, code)
	var imported types.ProfileResponse
	require.NoError(t, json.Unmarshal(body, &imported))
	assert.Equal(t, "Default 2", imported.Name)
	assert.Equal(t, "Alice", imported.Profile.BaseFolder)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/profiles/import", `"just a string"`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFieldEditsStayPendingUntilFlush(t *testing.T) {
	srv, _ := newTestServer(t)

	code, _ := do(t, srv, http.MethodPut, "/api/v1/profile/base-folder", `{"baseFolder":"  Bob  "}`)
	require.Equal(t, http.StatusOK, code)

	_, body := do(t, srv, http.MethodGet, "/api/v1/settings", "")
	var settings types.SettingsResponse
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, []string{"the base folder"}, settings.Pending)
	assert.Equal(t, "Bob", settings.Settings.Active().BaseFolder)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/settings/flush", "")
	require.Equal(t, http.StatusOK, code)
	_, body = do(t, srv, http.MethodGet, "/api/v1/settings", "")
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Empty(t, settings.Pending)
}

func TestPickedFolder(t *testing.T) {
	srv, _ := newTestServer(t)

	pick := func(body string) types.PickedFolderResponse {
		t.Helper()
		code, data := do(t, srv, http.MethodPost, "/api/v1/profile/picked-folder", body)
		require.Equal(t, http.StatusOK, code, string(data))
		var out types.PickedFolderResponse
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	}

	got := pick(`{"path":"alice\\winter\\coat"}`)
	assert.Equal(t, "Alice", got.BaseFolder)
	assert.Equal(t, "winter/coat", got.Folder)

	assert.Equal(t, "winter", pick(`{"path":"ALICE/winter/idle.png","file":true}`).Folder)
	assert.Equal(t, "", pick(`{"path":"Alice/idle.png","file":true}`).Folder)
	assert.Equal(t, "Bob/sun", pick(`{"path":"/Bob/sun/"}`).Folder)

	// Resolving a pick leaves the profile untouched.
	_, body := do(t, srv, http.MethodGet, "/api/v1/settings", "")
	var settings types.SettingsResponse
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Empty(t, settings.Pending)
}
