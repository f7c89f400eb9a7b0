package chat

import (
	"context"
	"strings"
	"time"

	"github.com/AlexMendozaPrado/PocBanorte/core/common"
	"github.com/AlexMendozaPrado/PocBanorte/core/embedding"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/core/prompt"
	"github.com/AlexMendozaPrado/PocBanorte/core/retriever"
	"github.com/AlexMendozaPrado/PocBanorte/core/vector_store"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/gogf/gf/v2/frame/g"
)

// QuestionEmbedder 问题向量化端口
type QuestionEmbedder interface {
	GenerateEmbedding(ctx context.Context, text string) (*embedding.Result, error)
}

// VectorSearcher 相似度检索端口
type VectorSearcher interface {
	SearchSimilar(ctx context.Context, queryVector []float32, opts *vector_store.SearchOptions) (*vector_store.SearchResult, error)
}

// RAGChat 有据问答编排器
//
// 单次请求流水线：问题向量化 -> 相似度检索 -> 上下文装配 ->
// Prompt构建 -> 生成。任一步失败则整个请求失败，不返回部分结果。
type RAGChat struct {
	embedder    QuestionEmbedder
	store       VectorSearcher
	chatService Service
	// 检索默认参数，可被单次请求覆盖
	maxChunks     int
	minSimilarity float64
}

// NewRAGChat 创建问答编排器
func NewRAGChat(embedder QuestionEmbedder, store VectorSearcher, chatService Service, maxChunks int, minSimilarity float64) *RAGChat {
	if maxChunks <= 0 {
		maxChunks = retriever.DefaultMaxChunks
	}
	if minSimilarity <= 0 {
		minSimilarity = retriever.DefaultMinSimilarity
	}
	return &RAGChat{
		embedder:      embedder,
		store:         store,
		chatService:   chatService,
		maxChunks:     maxChunks,
		minSimilarity: minSimilarity,
	}
}

// Request 单次问答请求
type Request struct {
	Question         string
	History          []*schema.ChatMessage
	ParentDocumentID string // 限定检索范围，空表示全库

	// 可覆盖的检索与生成参数
	MaxChunks     int
	MinSimilarity *float64
	Model         string
	Temperature   *float32
	MaxTokens     int
}

// Stats 单次问答统计
type Stats struct {
	RelevantChunksCount int     `json:"relevant_chunks_count"`
	AverageSimilarity   float64 `json:"average_similarity"`
	TotalTokens         int     `json:"total_tokens"`
	TimeTakenMs         int64   `json:"time_taken_ms"`
	PreparationTimeMs   int64   `json:"preparation_time_ms"`
}

// Result 非流式问答结果
type Result struct {
	Message          *schema.ChatMessage         `json:"message"`
	ContextDocuments []schema.ContextDocumentRef `json:"context_documents"`
	Stats            Stats                       `json:"stats"`
}

// StreamResult 流式问答结果
// 上下文引用与统计在流开始前即可用，便于边出token边渲染引用
type StreamResult struct {
	Stream           *schema.StreamReader[string]
	ContextDocuments []schema.ContextDocumentRef
	Stats            Stats
}

// Execute 非流式问答
func (r *RAGChat) Execute(ctx context.Context, req *Request) (*Result, error) {
	started := time.Now()

	chatCtx, messages, err := r.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	preparationTime := time.Since(started)

	resp, err := r.chatService.Chat(ctx, messages, r.chatOptions(req))
	if err != nil {
		return nil, err
	}

	stats := r.buildStats(chatCtx, preparationTime, time.Since(started))
	stats.TotalTokens = resp.Usage.TotalTokens

	resp.Message.ContextDocuments = chatCtx.ContextDocuments()

	return &Result{
		Message:          resp.Message,
		ContextDocuments: chatCtx.ContextDocuments(),
		Stats:            stats,
	}, nil
}

// ExecuteStream 流式问答
//
// 检索、装配与Prompt构建在流开始前全部完成（准备阶段单独计时），
// 返回的上下文引用与统计不依赖流的消费进度。
func (r *RAGChat) ExecuteStream(ctx context.Context, req *Request) (*StreamResult, error) {
	started := time.Now()

	chatCtx, messages, err := r.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	preparationTime := time.Since(started)

	stream, err := r.chatService.ChatStream(ctx, messages, r.chatOptions(req))
	if err != nil {
		return nil, err
	}

	return &StreamResult{
		Stream:           stream,
		ContextDocuments: chatCtx.ContextDocuments(),
		Stats:            r.buildStats(chatCtx, preparationTime, preparationTime),
	}, nil
}

// prepare 执行检索与Prompt构建，两种模式共用
func (r *RAGChat) prepare(ctx context.Context, req *Request) (*retriever.ChatContext, []*schema.ChatMessage, error) {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return nil, nil, errors.New(errors.ErrInvalidParameter, "question cannot be empty")
	}

	maxChunks := r.maxChunks
	if req.MaxChunks > 0 {
		maxChunks = req.MaxChunks
	}
	minSimilarity := r.minSimilarity
	if req.MinSimilarity != nil {
		minSimilarity = *req.MinSimilarity
	}

	// 1. 问题向量化
	embedded, err := r.embedder.GenerateEmbedding(ctx, req.Question)
	if err != nil {
		return nil, nil, err
	}

	// 2. 相似度检索
	searchResult, err := r.store.SearchSimilar(ctx, embedded.Embedding, &vector_store.SearchOptions{
		MaxResults:          maxChunks,
		SimilarityThreshold: common.Of(minSimilarity),
		ParentDocumentID:    req.ParentDocumentID,
	})
	if err != nil {
		return nil, nil, err
	}

	// 3. 上下文装配，重叠切分可能召回近重复片段，先去重再装配
	chatCtx := retriever.NewChatContext(&retriever.ContextConfig{
		MaxChunks:     maxChunks,
		MinSimilarity: minSimilarity,
	})
	chatCtx.Messages = req.History
	chatCtx.AssembleContext(retriever.DeduplicateChunks(searchResult.Chunks))

	g.Log().Infof(ctx, "RAG context assembled: %d/%d chunks above threshold %.2f",
		len(chatCtx.RelevantChunks), len(searchResult.Chunks), minSimilarity)

	// 4. Prompt构建；无相关上下文时模板会明确声明未找到文档
	messages := prompt.BuildRAGMessages(req.Question, chatCtx.RelevantChunks, req.History)

	return chatCtx, messages, nil
}

func (r *RAGChat) chatOptions(req *Request) *Options {
	return &Options{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

func (r *RAGChat) buildStats(chatCtx *retriever.ChatContext, preparation, total time.Duration) Stats {
	ctxStats := chatCtx.GetContextStats()
	return Stats{
		RelevantChunksCount: ctxStats.ChunkCount,
		AverageSimilarity:   ctxStats.AverageSimilarity,
		TimeTakenMs:         total.Milliseconds(),
		PreparationTimeMs:   preparation.Milliseconds(),
	}
}
