package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

type storedKey struct {
	hash  string
	done  bool
	reply postgres.IdempotencyReplay
}

type memIdempotency struct {
	mu       sync.Mutex
	keys     map[string]*storedKey
	released []string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]*storedKey)}
}

func (m *memIdempotency) Acquire(_ context.Context, key, _, _, hash string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[key]
	if !ok {
		m.keys[key] = &storedKey{hash: hash}
		return nil, nil
	}
	if k.hash != hash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if !k.done {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	r := k.reply
	return &r, nil
}

func (m *memIdempotency) Complete(_ context.Context, key string, status int, ct string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.keys[key]
	k.done = true
	k.reply = postgres.IdempotencyReplay{StatusCode: status, ContentType: ct, Body: append([]byte(nil), body...)}
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

func post(r http.Handler, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	store := newMemIdempotency()
	r := newEngine(Idempotency(store))
	calls := 0
	r.POST("/movements", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})
	r.POST("/fail", func(c *gin.Context) {
		_ = c.Error(apperror.NewValidation("bad"))
		c.Abort()
	})

	t.Run("replays completed request", func(t *testing.T) {
		first := post(r, "/movements", "k1", `{"qty":5}`)
		require.Equal(t, http.StatusCreated, first.Code)

		second := post(r, "/movements", "k1", `{"qty":5}`)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, 1, calls)
	})

	t.Run("different body is rejected", func(t *testing.T) {
		w := post(r, "/movements", "k1", `{"qty":6}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, apperror.CodeIdempotency, decodeError(t, w).Code)
	})

	t.Run("no key passes through", func(t *testing.T) {
		before := calls
		post(r, "/movements", "", `{}`)
		post(r, "/movements", "", `{}`)
		assert.Equal(t, before+2, calls)
	})

	t.Run("error releases key", func(t *testing.T) {
		w := post(r, "/fail", "k2", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, store.released, "k2")

		w = post(r, "/fail", "k2", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, "released key may be retried")
	})

	t.Run("oversized key", func(t *testing.T) {
		w := post(r, "/movements", strings.Repeat("x", maxIdempotencyKeyLength+1), `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
