package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recalld/internal/profile"
	"github.com/recallhq/recalld/server/metrics"
	"github.com/recallhq/recalld/store"
)

// stubDriver overrides only the methods a test exercises; calling anything
// else panics through the embedded nil interface, which is the point.
type stubDriver struct {
	store.Driver

	createMemoriesFn       func(ctx context.Context, partition string, memories []*store.Memory) error
	getMemoryFn            func(ctx context.Context, id uuid.UUID) (*store.Memory, error)
	listEmbeddedMemoriesFn func(ctx context.Context, find *store.FindEmbeddedMemories) ([]*store.Memory, error)
	getCacheFn             func(ctx context.Context, key string, agentID uuid.UUID) (*store.CacheEntry, error)
}

func (d *stubDriver) CreateMemories(ctx context.Context, partition string, memories []*store.Memory) error {
	return d.createMemoriesFn(ctx, partition, memories)
}

func (d *stubDriver) GetMemory(ctx context.Context, id uuid.UUID) (*store.Memory, error) {
	return d.getMemoryFn(ctx, id)
}

func (d *stubDriver) ListEmbeddedMemories(ctx context.Context, find *store.FindEmbeddedMemories) ([]*store.Memory, error) {
	return d.listEmbeddedMemoriesFn(ctx, find)
}

func (d *stubDriver) GetCache(ctx context.Context, key string, agentID uuid.UUID) (*store.CacheEntry, error) {
	return d.getCacheFn(ctx, key, agentID)
}

func newTestService(driver store.Driver) *APIV1Service {
	p := &profile.Profile{EmbeddingDim: 4}
	return NewAPIV1Service(p, store.New(driver, p), nil, metrics.NewExporter(metrics.DefaultConfig()))
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr.Code
}

func TestCreateMemoryHandler(t *testing.T) {
	t.Run("requires content text", func(t *testing.T) {
		s := newTestService(&stubDriver{})
		c, _ := newJSONContext(http.MethodPost, "/api/v1/memories", `{"content":{}}`)
		err := s.createMemory(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	})

	t.Run("rejects a mismatched embedding", func(t *testing.T) {
		s := newTestService(&stubDriver{})
		c, _ := newJSONContext(http.MethodPost, "/api/v1/memories",
			`{"content":{"text":"hi"},"embedding":[1,2]}`)
		err := s.createMemory(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	})

	t.Run("creates and echoes the memory", func(t *testing.T) {
		driver := &stubDriver{
			createMemoriesFn: func(context.Context, string, []*store.Memory) error {
				return nil
			},
		}
		s := newTestService(driver)
		c, rec := newJSONContext(http.MethodPost, "/api/v1/memories",
			`{"content":{"text":"hi","source":"messages"},"roomId":"`+uuid.NewString()+`"}`)
		require.NoError(t, s.createMemory(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var got memoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEqual(t, uuid.Nil, got.ID)
		assert.Equal(t, "messages", got.Type)
	})
}

func TestGetMemoryHandler(t *testing.T) {
	t.Run("absent memory is 404", func(t *testing.T) {
		driver := &stubDriver{
			getMemoryFn: func(context.Context, uuid.UUID) (*store.Memory, error) {
				return nil, nil
			},
		}
		s := newTestService(driver)
		c, _ := newJSONContext(http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(uuid.NewString())
		err := s.getMemory(c)
		assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		s := newTestService(&stubDriver{})
		c, _ := newJSONContext(http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues("not-a-uuid")
		err := s.getMemory(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	})
}

func TestSearchMemoriesHandler(t *testing.T) {
	t.Run("requires an embedding or text", func(t *testing.T) {
		s := newTestService(&stubDriver{})
		c, _ := newJSONContext(http.MethodPost, "/api/v1/memories/search",
			`{"tableName":"messages"}`)
		err := s.searchMemories(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	})

	t.Run("text search without an embedder is 503", func(t *testing.T) {
		s := newTestService(&stubDriver{})
		c, _ := newJSONContext(http.MethodPost, "/api/v1/memories/search",
			`{"tableName":"messages","text":"hello"}`)
		err := s.searchMemories(c)
		assert.Equal(t, http.StatusServiceUnavailable, httpStatus(t, err))
	})

	t.Run("fallback search ranks in process", func(t *testing.T) {
		driver := &stubDriver{
			listEmbeddedMemoriesFn: func(context.Context, *store.FindEmbeddedMemories) ([]*store.Memory, error) {
				return []*store.Memory{
					{ID: uuid.New(), Embedding: []float32{0, 1, 0, 0}},
				}, nil
			},
		}
		s := newTestService(driver)
		c, rec := newJSONContext(http.MethodPost, "/api/v1/memories/search",
			`{"tableName":"messages","embedding":[1,0,0,0],"fallback":true}`)
		require.NoError(t, s.searchMemories(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var got []*memoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		require.NotNil(t, got[0].Similarity)
		assert.InDelta(t, 0.0, *got[0].Similarity, 1e-9)
	})
}

func TestGetCacheHandler(t *testing.T) {
	t.Run("miss is 404", func(t *testing.T) {
		driver := &stubDriver{
			getCacheFn: func(context.Context, string, uuid.UUID) (*store.CacheEntry, error) {
				return nil, nil
			},
		}
		s := newTestService(driver)
		c, _ := newJSONContext(http.MethodGet, "/", "")
		c.SetParamNames("agentID", "key")
		c.SetParamValues(uuid.NewString(), "profile")
		err := s.getCache(c)
		assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
	})

	t.Run("hit returns the value", func(t *testing.T) {
		driver := &stubDriver{
			getCacheFn: func(context.Context, string, uuid.UUID) (*store.CacheEntry, error) {
				return &store.CacheEntry{Key: "profile", Value: "v1"}, nil
			},
		}
		s := newTestService(driver)
		c, rec := newJSONContext(http.MethodGet, "/", "")
		c.SetParamNames("agentID", "key")
		c.SetParamValues(uuid.NewString(), "profile")
		require.NoError(t, s.getCache(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "v1")
	})
}
