package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/gogf/gf/v2/frame/g"
)

// 批量调用限制与并发参数
const (
	// DefaultMaxBatchSize OpenAI embeddings接口单次请求的输入上限
	DefaultMaxBatchSize = 2048
	// subBatchConcurrency 拆分后子批次的并发上限（避免API限流）
	subBatchConcurrency = 3
)

// Config embedding配置接口
type Config interface {
	GetAPIKey() string
	GetBaseURL() string
	GetEmbeddingModel() string
	GetEmbeddingDim() int
}

// Generator 基于OpenAI兼容接口的向量生成器
type Generator struct {
	apiKey       string
	baseURL      string
	model        string
	dimensions   int
	maxBatchSize int
	httpClient   *http.Client
}

// Metadata 单次调用的元数据
type Metadata struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	TokenCount int    `json:"token_count,omitempty"`
}

// Result 单文本向量化结果
type Result struct {
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
}

// BatchMetadata 批量调用的元数据，TotalTokens为所有子批次之和
type BatchMetadata struct {
	Model       string `json:"model"`
	Dimensions  int    `json:"dimensions"`
	TotalTokens int    `json:"total_tokens,omitempty"`
}

// BatchResult 批量向量化结果，Embeddings顺序与输入一致
type BatchResult struct {
	Embeddings [][]float32   `json:"embeddings"`
	Metadata   BatchMetadata `json:"metadata"`
}

// embeddingRequest OpenAI embedding API请求结构
type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions *int     `json:"dimensions,omitempty"`
}

// embeddingResponse OpenAI embedding API响应结构
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
		Object    string    `json:"object"`
	} `json:"data"`
	Model  string `json:"model"`
	Object string `json:"object"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// errorResponse API错误响应
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// NewGenerator 创建向量生成器
func NewGenerator(conf Config) (*Generator, error) {
	if conf.GetAPIKey() == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "embedding apiKey is required")
	}
	if conf.GetBaseURL() == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "embedding baseURL is required")
	}
	if conf.GetEmbeddingModel() == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "embedding model is required")
	}

	// 自定义HTTP客户端，设置合理的超时时间
	httpClient := &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   30 * time.Second,
			ResponseHeaderTimeout: 2 * time.Minute,
			ExpectContinueTimeout: 1 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
		},
	}

	return &Generator{
		apiKey:       conf.GetAPIKey(),
		baseURL:      conf.GetBaseURL(),
		model:        conf.GetEmbeddingModel(),
		dimensions:   conf.GetEmbeddingDim(),
		maxBatchSize: DefaultMaxBatchSize,
		httpClient:   httpClient,
	}, nil
}

// Model 返回所配置的模型名
func (e *Generator) Model() string {
	return e.model
}

// Dimensions 返回所配置的向量维度
func (e *Generator) Dimensions() int {
	return e.dimensions
}

// GenerateEmbedding 对单个文本生成向量
func (e *Generator) GenerateEmbedding(ctx context.Context, text string) (*Result, error) {
	if text == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "cannot embed empty text")
	}

	batch, err := e.embedOnce(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return &Result{
		Embedding: batch.Embeddings[0],
		Metadata: Metadata{
			Model:      batch.Metadata.Model,
			Dimensions: batch.Metadata.Dimensions,
			TokenCount: batch.Metadata.TotalTokens,
		},
	}, nil
}

// GenerateEmbeddings 批量生成向量
//
// 超过maxBatchSize时透明拆分为子批次并发执行，结果按原始
// 顺序拼接，token用量求和。空输入直接返回空结果，不发起调用。
func (e *Generator) GenerateEmbeddings(ctx context.Context, texts []string) (*BatchResult, error) {
	if len(texts) == 0 {
		return &BatchResult{
			Embeddings: [][]float32{},
			Metadata: BatchMetadata{
				Model:      e.model,
				Dimensions: e.dimensions,
			},
		}, nil
	}

	if len(texts) <= e.maxBatchSize {
		return e.embedOnce(ctx, texts)
	}

	// 拆分子批次
	var batches [][]string
	for start := 0; start < len(texts); start += e.maxBatchSize {
		end := start + e.maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[start:end])
	}

	g.Log().Infof(ctx, "Embedding batch of %d texts split into %d sub-batches", len(texts), len(batches))

	// 并发执行子批次，结果按批次序号落位
	results := make([]*BatchResult, len(batches))
	errs := make([]error, len(batches))
	semaphore := make(chan struct{}, subBatchConcurrency)
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func(idx int, b []string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			results[idx], errs[idx] = e.embedOnce(ctx, b)
		}(i, batch)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// 按原始顺序拼接
	out := &BatchResult{
		Embeddings: make([][]float32, 0, len(texts)),
		Metadata: BatchMetadata{
			Model:      results[0].Metadata.Model,
			Dimensions: results[0].Metadata.Dimensions,
		},
	}
	for _, r := range results {
		out.Embeddings = append(out.Embeddings, r.Embeddings...)
		out.Metadata.TotalTokens += r.Metadata.TotalTokens
	}
	return out, nil
}

// embedOnce 单次HTTP调用，结果显式按index重排后返回
func (e *Generator) embedOnce(ctx context.Context, texts []string) (*BatchResult, error) {
	req := embeddingRequest{
		Input: texts,
		Model: e.model,
	}
	if e.dimensions > 0 {
		req.Dimensions = &e.dimensions
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "failed to marshal request: %v", err)
	}

	url := e.baseURL + "/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return nil, errors.Newf(errors.ErrEmbeddingFailed, "HTTP %d: failed to decode error response: %v", resp.StatusCode, err)
		}
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "API error (HTTP %d): %s", resp.StatusCode, errResp.Error.Message)
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, errors.Newf(errors.ErrEmbeddingFailed, "failed to decode response: %v", err)
	}

	if len(embResp.Data) != len(texts) {
		return nil, errors.Newf(errors.ErrEmbeddingFailed,
			"response data length (%d) doesn't match input length (%d)", len(embResp.Data), len(texts))
	}

	// 接口可能乱序返回，按index重排保证与输入顺序一致
	sort.Slice(embResp.Data, func(i, j int) bool {
		return embResp.Data[i].Index < embResp.Data[j].Index
	})

	embeddings := make([][]float32, len(texts))
	for i, data := range embResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, errors.Newf(errors.ErrEmbeddingFailed, "invalid embedding index: %d", data.Index)
		}
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}

	dims := 0
	if len(embeddings) > 0 {
		dims = len(embeddings[0])
	}

	return &BatchResult{
		Embeddings: embeddings,
		Metadata: BatchMetadata{
			Model:       embResp.Model,
			Dimensions:  dims,
			TotalTokens: embResp.Usage.TotalTokens,
		},
	}, nil
}
