package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/guild"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/internal/domain/user"
	"github.com/hata-go/hata/internal/infrastructure/persistence/entitystore"
	"github.com/hata-go/hata/internal/infrastructure/persistence/redis"
	"github.com/hata-go/hata/internal/infrastructure/persistence/sqlasync"
	"github.com/hata-go/hata/internal/scaffold"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hata "+Version+"\n", out)
}

// ══════════════════════════════════════════════════════════════════════════════
// NEW
// ══════════════════════════════════════════════════════════════════════════════

func TestNewProject(t *testing.T) {
	dir := t.TempDir()

	out, _, err := execute(t, "new", "project", "mybot", "--dir", dir, "--bot", "alpha", "--bot", "beta")
	require.NoError(t, err)

	root := filepath.Join(dir, "mybot")
	assert.Contains(t, out, "Created project mybot")
	assert.Contains(t, out, "bots/alpha.go")
	assert.FileExists(t, filepath.Join(root, "go.mod"))
	assert.FileExists(t, filepath.Join(root, "bots", "beta.go"))

	env, err := os.ReadFile(filepath.Join(root, ".env.example"))
	require.NoError(t, err)
	assert.Equal(t, "ALPHA_TOKEN=\nBETA_TOKEN=\n", string(env))
}

func TestNewProject_Rejects(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, "new", "project", "func", "--dir", dir)
	assert.ErrorIs(t, err, scaffold.ErrInvalidName)

	_, _, err = execute(t, "new", "project", "mybot", "--dir", dir)
	require.NoError(t, err)
	_, _, err = execute(t, "new", "project", "mybot", "--dir", dir)
	assert.ErrorIs(t, err, scaffold.ErrTargetExists)

	_, _, err = execute(t, "new", "project", "mybot", "--dir", dir, "--force")
	assert.NoError(t, err)

	_, _, err = execute(t, "new", "project")
	assert.Error(t, err)
}

func TestNewPlugin(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "new", "project", "mybot", "--dir", dir, "--module", "example.com/mybot")
	require.NoError(t, err)
	root := filepath.Join(dir, "mybot")

	out, _, err := execute(t, "new", "plugin", "greetings", "--dir", root)
	require.NoError(t, err)
	assert.Equal(t, "Created plugins/greetings.go\n", out)

	content, err := os.ReadFile(filepath.Join(root, "plugins", "greetings.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `"example.com/mybot/bots"`)

	_, _, err = execute(t, "new", "plugin", "greetings", "--dir", t.TempDir())
	assert.ErrorIs(t, err, scaffold.ErrNotAProject)
}

// ══════════════════════════════════════════════════════════════════════════════
// FETCH
// ══════════════════════════════════════════════════════════════════════════════

// setupFetchEnv points the REST client at handler and the store at a
// temporary sqlite file.
func setupFetchEnv(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Cleanup(func() {
		user.Users.Purge()
		guild.Guilds.Purge()
	})

	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "hata.db")
	t.Setenv("APP_ENV", "development")
	t.Setenv("DISCORD_TOKEN", "secret")
	t.Setenv("DISCORD_API_BASE", server.URL)
	t.Setenv("DISCORD_RETRY_BASE_DELAY", "1ms")
	t.Setenv("DATABASE_URL", dbURL)
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("LOG_LEVEL", "error")
	return dbURL
}

func writeBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetchUser_PrintsAndSaves(t *testing.T) {
	dbURL := setupFetchEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/users/123", r.URL.Path)
		assert.Equal(t, "Bot secret", r.Header.Get("Authorization"))
		writeBody(w, http.StatusOK, map[string]any{"id": "123", "username": "wumpus", "discriminator": "0"})
	})

	out, _, err := execute(t, "fetch", "user", "123", "--save")
	require.NoError(t, err)

	var printed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	assert.Equal(t, "123", printed["id"])
	assert.Equal(t, "wumpus", printed["username"])

	engine, err := sqlasync.Open(context.Background(), dbURL, sqlasync.DefaultOptions())
	require.NoError(t, err)
	defer engine.Close()

	saved, err := entitystore.New(engine, nil).LoadUser(context.Background(), shared.Snowflake(123))
	require.NoError(t, err)
	assert.Equal(t, "wumpus", saved.Name)
}

func TestFetchUser_CurrentUser(t *testing.T) {
	setupFetchEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/users/@me", r.URL.Path)
		writeBody(w, http.StatusOK, map[string]any{"id": "77", "username": "me", "discriminator": "0", "bot": true})
	})

	out, _, err := execute(t, "fetch", "user", "@me")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "me"`)
}

func TestFetchUser_Errors(t *testing.T) {
	setupFetchEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusNotFound, map[string]any{"code": 10013, "message": "Unknown User"})
	})

	_, _, err := execute(t, "fetch", "user", "123")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, _, err = execute(t, "fetch", "user", "not-an-id")
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	t.Setenv("DISCORD_TOKEN", "")
	_, _, err = execute(t, "fetch", "user", "123")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFetchGuild_WithCounts(t *testing.T) {
	setupFetchEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/guilds/10", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("with_counts"))
		writeBody(w, http.StatusOK, map[string]any{
			"id":                         "10",
			"name":                       "Snake Pit",
			"approximate_member_count":   42,
			"approximate_presence_count": 7,
		})
	})

	out, _, err := execute(t, "fetch", "guild", "10", "--with-counts")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Snake Pit"`)
}

func TestFetch_UnsupportedDatabaseIsNotRetried(t *testing.T) {
	calls := 0
	setupFetchEnv(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeBody(w, http.StatusOK, map[string]any{"id": "1", "username": "x", "discriminator": "0"})
	})
	t.Setenv("DATABASE_URL", "mysql://nope")

	_, _, err := execute(t, "fetch", "user", "1", "--save")
	assert.ErrorIs(t, err, sqlasync.ErrUnsupportedURL)
	assert.Zero(t, calls)
}

// enableRedis points the redis config at an in-process server.
func enableRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	t.Setenv("REDIS_DISABLED", "false")
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())
	return mr
}

func TestFetchUser_WritesCache(t *testing.T) {
	setupFetchEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]any{"id": "123", "username": "wumpus", "discriminator": "0"})
	})
	mr := enableRedis(t)

	_, _, err := execute(t, "fetch", "user", "123", "--cache")
	require.NoError(t, err)

	raw, err := mr.Get(redis.EntityKey(shared.KindUser, 123))
	require.NoError(t, err)
	data, err := field.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "wumpus", data["username"])
	assert.Equal(t, redis.TTLEntity, mr.TTL(redis.EntityKey(shared.KindUser, 123)))
}

// ══════════════════════════════════════════════════════════════════════════════
// WATCH
// ══════════════════════════════════════════════════════════════════════════════

func TestWatch_PrintsUpdates(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "error")
	mr := enableRedis(t)

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, _, err := execute(t, "watch", "user", "--count", "1")
		done <- result{out, err}
	}()

	channel := redis.UpdatesChannel(shared.KindUser)
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] == 1
	}, 2*time.Second, 5*time.Millisecond)

	cache, err := redis.NewCache(redis.Config{Host: mr.Host(), Port: atoiPort(t, mr.Port()), DialTimeout: time.Second})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.SetEntity(ctx, shared.KindUser, 5, field.Data{"id": "5", "username": "before"}, 0))
	require.NoError(t, cache.SetEntity(ctx, shared.KindUser, 5, field.Data{"id": "5", "username": "after"}, 0))

	select {
	case res := <-done:
		require.NoError(t, res.err)
		var update map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.out), &update))
		assert.Equal(t, "user", update["kind"])
		assert.Equal(t, "5", update["id"])
		assert.Equal(t, map[string]any{"username": "before"}, update["changes"])
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not exit")
	}
}

func TestWatch_Rejects(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_DISABLED", "true")

	_, _, err := execute(t, "watch", "channel")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, _, err = execute(t, "watch", "user")
	assert.ErrorIs(t, err, ErrRedisDisabled)
}

func atoiPort(t *testing.T, port string) int {
	t.Helper()
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return n
}
