package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	apiKey  string
	baseURL string
	model   string
	dim     int
}

func (c *testConfig) GetAPIKey() string         { return c.apiKey }
func (c *testConfig) GetBaseURL() string        { return c.baseURL }
func (c *testConfig) GetEmbeddingModel() string { return c.model }
func (c *testConfig) GetEmbeddingDim() int      { return c.dim }

// newEmbeddingServer 返回一个模拟OpenAI embeddings接口的测试服务。
// 每个输入文本的向量首元素编码其在请求内的下标，便于校验顺序。
func newEmbeddingServer(t *testing.T, calls *int64, shuffle bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := embeddingResponse{Model: req.Model}
		resp.Usage.TotalTokens = len(req.Input) * 10
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
				Object    string    `json:"object"`
			}{
				Embedding: []float64{float64(i), 0.5, 0.25},
				Index:     i,
				Object:    "embedding",
			})
		}
		if shuffle && len(resp.Data) > 1 {
			// 逆序返回，模拟接口乱序
			for i, j := 0, len(resp.Data)-1; i < j; i, j = i+1, j-1 {
				resp.Data[i], resp.Data[j] = resp.Data[j], resp.Data[i]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestGenerator(t *testing.T, baseURL string) *Generator {
	gen, err := NewGenerator(&testConfig{
		apiKey:  "test-key",
		baseURL: baseURL,
		model:   "text-embedding-3-small",
		dim:     3,
	})
	require.NoError(t, err)
	return gen
}

func TestNewGeneratorValidation(t *testing.T) {
	_, err := NewGenerator(&testConfig{baseURL: "http://x", model: "m"})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))

	_, err = NewGenerator(&testConfig{apiKey: "k", model: "m"})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))

	_, err = NewGenerator(&testConfig{apiKey: "k", baseURL: "http://x"})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))
}

func TestGenerateEmbedding(t *testing.T) {
	var calls int64
	srv := newEmbeddingServer(t, &calls, false)
	defer srv.Close()

	gen := newTestGenerator(t, srv.URL)
	res, err := gen.GenerateEmbedding(context.Background(), "hola mundo")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.5, 0.25}, res.Embedding)
	assert.Equal(t, "text-embedding-3-small", res.Metadata.Model)
	assert.Equal(t, 3, res.Metadata.Dimensions)
	assert.Equal(t, 10, res.Metadata.TokenCount)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestGenerateEmbeddingEmptyText(t *testing.T) {
	gen := newTestGenerator(t, "http://unused")
	_, err := gen.GenerateEmbedding(context.Background(), "")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))
}

func TestGenerateEmbeddingsEmptyInput(t *testing.T) {
	var calls int64
	srv := newEmbeddingServer(t, &calls, false)
	defer srv.Close()

	gen := newTestGenerator(t, srv.URL)
	res, err := gen.GenerateEmbeddings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Embeddings)
	// 空输入不应发起任何上游调用
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))
}

func TestGenerateEmbeddingsOrderPreserved(t *testing.T) {
	var calls int64
	srv := newEmbeddingServer(t, &calls, true)
	defer srv.Close()

	gen := newTestGenerator(t, srv.URL)
	texts := []string{"a", "b", "c", "d"}
	res, err := gen.GenerateEmbeddings(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, res.Embeddings, 4)
	for i := range texts {
		assert.Equal(t, float32(i), res.Embeddings[i][0], "embedding %d out of order", i)
	}
}

func TestGenerateEmbeddingsBatchSplit(t *testing.T) {
	var calls int64
	srv := newEmbeddingServer(t, &calls, false)
	defer srv.Close()

	gen := newTestGenerator(t, srv.URL)
	gen.maxBatchSize = 3

	texts := make([]string, 8)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}
	res, err := gen.GenerateEmbeddings(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, res.Embeddings, 8)
	// 8条输入按3拆成3个子批次
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
	// token用量为各子批次之和
	assert.Equal(t, 80, res.Metadata.TotalTokens)
	// 子批次内下标从0重新计数，校验各子批次落位顺序
	assert.Equal(t, float32(0), res.Embeddings[0][0])
	assert.Equal(t, float32(2), res.Embeddings[2][0])
	assert.Equal(t, float32(0), res.Embeddings[3][0])
	assert.Equal(t, float32(1), res.Embeddings[7][0])
}

func TestGenerateEmbeddingsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	gen := newTestGenerator(t, srv.URL)
	_, err := gen.GenerateEmbeddings(context.Background(), []string{"x"})
	assert.True(t, errors.IsCode(err, errors.ErrEmbeddingFailed))
	assert.Contains(t, err.Error(), "rate limited")
}
