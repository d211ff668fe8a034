package app_test

import (
	"context"
	"math"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-cowork-client/app"
	"github.com/jrsteele09/go-cowork-client/gateway"
	"github.com/jrsteele09/go-cowork-client/internal/config"
	cerrors "github.com/jrsteele09/go-cowork-client/internal/errors"
	"github.com/jrsteele09/go-cowork-client/internal/fakebackend"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeNavigator struct {
	lock       sync.Mutex
	readyAfter int
	readyCalls int
	routes     []string
}

func (n *fakeNavigator) Ready() bool {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.readyCalls++
	return n.readyCalls > n.readyAfter
}

func (n *fakeNavigator) ResetTo(route string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.routes = append(n.routes, route)
}

func (n *fakeNavigator) snapshot() (int, []string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.readyCalls, append([]string(nil), n.routes...)
}

type testFixture struct {
	backend *fakebackend.Backend
	app     *app.App
}

func setupTestFixture(t *testing.T, backend string) *testFixture {
	t.Helper()

	fake := fakebackend.New(fakebackend.WithLogger(zerolog.Nop()))
	server := httptest.NewServer(fake.Handler())
	t.Cleanup(server.Close)

	t.Setenv("COWORK_BASE_URL", server.URL)
	t.Setenv("COWORK_DATA_FOLDER", t.TempDir())
	t.Setenv("COWORK_SESSION_BACKEND", backend)
	t.Setenv("COWORK_LOGOUT_REDIRECT_INTERVAL", "1ms")

	_, err := fake.AddMember("Ann", "a@b.com", "x1!", fakebackend.RoleMember)
	require.NoError(t, err)

	a, err := app.New(config.New(), app.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &testFixture{backend: fake, app: a}
}

func TestOpenRepo(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COWORK_DATA_FOLDER", dir)

	for _, backend := range []string{config.SessionBackendFile, config.SessionBackendSQLite, config.SessionBackendMemory} {
		t.Run(backend, func(t *testing.T) {
			t.Setenv("COWORK_SESSION_BACKEND", backend)
			repo, closer, err := app.OpenRepo(config.New())
			require.NoError(t, err)
			require.NoError(t, repo.Save("k", "v"))
			value, err := repo.Load("k")
			require.NoError(t, err)
			require.Equal(t, "v", value)
			if closer != nil {
				require.NoError(t, closer.Close())
			}
		})
	}

	t.Setenv("COWORK_SESSION_BACKEND", "redis")
	_, _, err := app.OpenRepo(config.New())
	require.ErrorIs(t, err, cerrors.ErrUnsupportedBackend)
}

func TestLoginRestoreLogout(t *testing.T) {
	f := setupTestFixture(t, config.SessionBackendMemory)
	ctx := context.Background()

	require.NoError(t, f.app.Restore(ctx))
	require.False(t, f.app.State.Authenticated())

	resp, err := f.app.Login(ctx, "a@b.com", "x1!")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.True(t, f.app.State.Authenticated())
	require.Equal(t, "a@b.com", f.app.State.User().Email)

	f.app.State.Reset()
	require.NoError(t, f.app.Restore(ctx))
	require.True(t, f.app.State.Authenticated())

	require.NoError(t, f.app.Logout(ctx))
	require.False(t, f.app.State.Authenticated())
	require.False(t, f.app.Store.Authenticated())
}

func TestSessionSurvivesRestart(t *testing.T) {
	f := setupTestFixture(t, config.SessionBackendSQLite)
	ctx := context.Background()

	_, err := f.app.Login(ctx, "a@b.com", "x1!")
	require.NoError(t, err)
	require.NoError(t, f.app.Close())

	restarted, err := app.New(config.New(), app.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = restarted.Close() })

	require.NoError(t, restarted.Restore(ctx))
	require.Equal(t, "a@b.com", restarted.State.User().Email)
	require.FileExists(t, filepath.Join(config.New().GetDataFolder(), "session.db"))
}

func TestUnauthorizedRedirectsToLogin(t *testing.T) {
	f := setupTestFixture(t, config.SessionBackendMemory)
	ctx := context.Background()
	navigator := &fakeNavigator{}
	coordinator, err := f.app.Mount(navigator)
	require.NoError(t, err)
	t.Cleanup(coordinator.Unmount)

	_, err = f.app.Login(ctx, "a@b.com", "x1!")
	require.NoError(t, err)
	f.backend.ExpireSessions()

	_, err = f.app.API.Rooms.List(ctx)
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	coordinator.Wait()

	_, routes := navigator.snapshot()
	require.Equal(t, []string{"Login"}, routes)
	require.False(t, f.app.State.Authenticated())
	require.False(t, f.app.Store.Authenticated())
}

func TestRestoreWithRejectedToken(t *testing.T) {
	f := setupTestFixture(t, config.SessionBackendFile)
	ctx := context.Background()
	navigator := &fakeNavigator{}
	coordinator, err := f.app.Mount(navigator)
	require.NoError(t, err)
	t.Cleanup(coordinator.Unmount)

	f.app.Store.SetToken("stale")
	err = f.app.Restore(ctx)
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	coordinator.Wait()

	require.False(t, f.app.State.Authenticated())
	require.False(t, f.app.Store.Authenticated())
	_, routes := navigator.snapshot()
	require.Len(t, routes, 1)
}

func TestRedirectRetriesUntilNavigatorReady(t *testing.T) {
	f := setupTestFixture(t, config.SessionBackendMemory)
	navigator := &fakeNavigator{readyAfter: 2}
	coordinator, err := app.NewCoordinator(f.app.Gateway, f.app.State, navigator,
		app.WithCoordinatorLogger(zerolog.Nop()),
		app.WithLoginRoute("Welcome"),
		app.WithRedirectBackoff(5, time.Millisecond),
	)
	require.NoError(t, err)

	f.app.State.SetUser(nil)
	coordinator.HandleLogout()
	require.False(t, f.app.State.Authenticated())
	coordinator.Wait()

	calls, routes := navigator.snapshot()
	require.Equal(t, 3, calls)
	require.Equal(t, []string{"Welcome"}, routes)
}

func TestRedirectGivesUpAfterMaxTries(t *testing.T) {
	f := setupTestFixture(t, config.SessionBackendMemory)
	navigator := &fakeNavigator{readyAfter: math.MaxInt}
	coordinator, err := app.NewCoordinator(f.app.Gateway, f.app.State, navigator,
		app.WithCoordinatorLogger(zerolog.Nop()),
		app.WithRedirectBackoff(3, time.Millisecond),
	)
	require.NoError(t, err)

	coordinator.HandleLogout()
	coordinator.Wait()

	calls, routes := navigator.snapshot()
	require.Equal(t, 3, calls)
	require.Empty(t, routes)
}

func TestUnmountFallsBackToLogout(t *testing.T) {
	f := setupTestFixture(t, config.SessionBackendMemory)
	ctx := context.Background()
	navigator := &fakeNavigator{}
	coordinator, err := f.app.Mount(navigator)
	require.NoError(t, err)
	coordinator.Unmount()

	_, err = f.app.Login(ctx, "a@b.com", "x1!")
	require.NoError(t, err)
	f.backend.ExpireSessions()

	_, err = f.app.API.Wallet.Balance(ctx)
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	require.False(t, f.app.Store.Authenticated())
	_, routes := navigator.snapshot()
	require.Empty(t, routes)
}
