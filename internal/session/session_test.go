package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"trialbridge/platform/httpkit"
	"trialbridge/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Value int `json:"value"`
}

func newCounter() counter { return counter{} }

type sessionCfg struct{}

func (sessionCfg) GetSessionSecret() string                { return "test-secret" }
func (sessionCfg) GetSessionTTL() time.Duration            { return time.Hour }
func (sessionCfg) GetSessionCookieName() string            { return "tb_session" }
func (sessionCfg) GetSessionCookieSecure() bool            { return false }
func (sessionCfg) GetSessionCookieSameSite() http.SameSite { return http.SameSiteLaxMode }
func (sessionCfg) GetSessionCacheSize() int                { return 16 }

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	id := uuid.New()

	token, expiresAt, err := signer.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	parsed, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestSignerRejectsExpiredAndForeignTokens(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	token, _, err := signer.Issue(uuid.New())
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Parse(token)
	assert.Error(t, err)

	other := NewSigner("other-secret", time.Minute)
	foreign, _, err := other.Issue(uuid.New())
	require.NoError(t, err)
	_, err = NewSigner("secret", time.Minute).Parse(foreign)
	assert.Error(t, err)
}

func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	id := uuid.New()

	initial, err := Load(ctx, store, id, KindIntake, newCounter)
	require.NoError(t, err)
	assert.Equal(t, 0, initial.Value)

	for i := 0; i < 3; i++ {
		_, err := Mutate(ctx, store, id, KindIntake, newCounter, func(c counter) (counter, error) {
			c.Value++
			return c, nil
		})
		require.NoError(t, err)
	}

	failure := errors.New("rejected")
	_, err = Mutate(ctx, store, id, KindIntake, newCounter, func(c counter) (counter, error) {
		c.Value = 100
		return c, failure
	})
	assert.ErrorIs(t, err, failure)

	loaded, err := Load(ctx, store, id, KindIntake, newCounter)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Value)

	other, err := Load(ctx, store, uuid.New(), KindIntake, newCounter)
	require.NoError(t, err)
	assert.Equal(t, 0, other.Value, "sessions must not share state")

	require.NoError(t, store.Delete(ctx, id, KindIntake, KindBrowser))
	cleared, err := Load(ctx, store, id, KindIntake, newCounter)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Value)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore(16, time.Hour))
}

func TestMemoryStoreLocksPerKey(t *testing.T) {
	store := NewMemoryStore(16, time.Hour)
	ctx := context.Background()

	blocked := uuid.New()
	free := uuid.New()
	for store.lockFor(stateKey(free, KindIntake)) == store.lockFor(stateKey(blocked, KindIntake)) {
		free = uuid.New()
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := store.Update(ctx, blocked, KindIntake, func(b []byte) ([]byte, error) {
			close(entered)
			<-release
			return []byte(`{"value":1}`), nil
		})
		done <- err
	}()
	<-entered

	finished := make(chan error, 1)
	go func() {
		_, err := store.Update(ctx, free, KindIntake, func([]byte) ([]byte, error) {
			return []byte(`{"value":2}`), nil
		})
		finished <- err
	}()

	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("update of another session waited on a held key")
	}

	close(release)
	require.NoError(t, <-done)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Mutate(ctx, store, blocked, KindBrowser, newCounter, func(c counter) (counter, error) {
				c.Value++
				return c, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := Load(ctx, store, blocked, KindBrowser, newCounter)
	require.NoError(t, err)
	assert.Equal(t, 50, final.Value)
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	runStoreContract(t, NewRedisStore(client, time.Hour))
}

func TestRedisStoreExpires(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	_, err := Mutate(ctx, store, id, KindBrowser, newCounter, func(c counter) (counter, error) {
		c.Value = 7
		return c, nil
	})
	require.NoError(t, err)

	srv.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, id, KindBrowser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMiddlewareStartsAndResumesSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := NewManager(sessionCfg{}, NewMemoryStore(16, time.Hour), logger.Discard())

	engine := gin.New()
	engine.Use(manager.Middleware())
	engine.GET("/whoami", func(c *gin.Context) {
		id, _ := httpkit.GetSessionID(c)
		c.String(http.StatusOK, id.String())
	})

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, first.Code)
	token := first.Header().Get(HeaderToken)
	require.NotEmpty(t, token)
	sessionID := first.Body.String()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderToken, token)
	second := httptest.NewRecorder()
	engine.ServeHTTP(second, req)
	assert.Equal(t, sessionID, second.Body.String())
	assert.Empty(t, second.Header().Get(HeaderToken))

	tampered := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	tampered.Header.Set(HeaderToken, token+"x")
	third := httptest.NewRecorder()
	engine.ServeHTTP(third, tampered)
	assert.NotEqual(t, sessionID, third.Body.String())
	assert.NotEmpty(t, third.Header().Get(HeaderToken))
}
