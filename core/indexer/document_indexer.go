package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlexMendozaPrado/PocBanorte/core/chunker"
	"github.com/AlexMendozaPrado/PocBanorte/core/config"
	"github.com/AlexMendozaPrado/PocBanorte/core/embedding"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/core/file_store"
	gormModel "github.com/AlexMendozaPrado/PocBanorte/internal/model/gorm"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
)

// ChunkEmbedder 批量向量化端口
type ChunkEmbedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) (*embedding.BatchResult, error)
}

// ChunkStore 分片写入/删除端口
type ChunkStore interface {
	StoreChunks(ctx context.Context, chunks []*schema.DocumentChunk) ([]string, error)
	DeleteByParentID(ctx context.Context, parentDocumentId string) (int64, error)
}

// DocumentRepo 文档记录持久化端口
type DocumentRepo interface {
	Insert(ctx context.Context, doc *gormModel.StoredDocuments) error
	GetByID(ctx context.Context, id string) (*gormModel.StoredDocuments, error)
	UpdateChunkCount(ctx context.Context, id string, chunkCount int) error
	Delete(ctx context.Context, id string) (bool, error)
}

// DocumentIndexer 文档入库服务：分片、向量化、写入向量库并留痕
type DocumentIndexer struct {
	chunkerConf *config.ChunkerConfig
	embedder    ChunkEmbedder
	store       ChunkStore
	documents   DocumentRepo
	fileStore   file_store.Storage

	embeddingModel string
	embeddingDim   int
}

// NewDocumentIndexer 创建文档入库服务。fileStore为nil时不留存原文，
// 此时该文档无法重建索引。
func NewDocumentIndexer(
	chunkerConf *config.ChunkerConfig,
	embeddingConf *config.EmbeddingConfig,
	embedder ChunkEmbedder,
	store ChunkStore,
	documents DocumentRepo,
	fileStore file_store.Storage,
) (*DocumentIndexer, error) {
	if embedder == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "embedder is required")
	}
	if store == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "chunk store is required")
	}
	if documents == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "document repo is required")
	}
	if chunkerConf == nil {
		chunkerConf = &config.ChunkerConfig{
			ChunkSize:    chunker.DefaultChunkSize,
			ChunkOverlap: chunker.DefaultChunkOverlap,
		}
	}

	idx := &DocumentIndexer{
		chunkerConf: chunkerConf,
		embedder:    embedder,
		store:       store,
		documents:   documents,
		fileStore:   fileStore,
	}
	if embeddingConf != nil {
		idx.embeddingModel = embeddingConf.Model
		idx.embeddingDim = embeddingConf.EmbeddingDim
	}
	return idx, nil
}

// StoreDocumentInput 入库请求参数
type StoreDocumentInput struct {
	Title    string         // 文档标题，为空时从文件名推导
	Content  string         // 文档全文，必填
	FileName string         // 原始文件名
	FileSize int64          // 原始文件大小（字节）
	MimeType string         // 原始文件MIME类型
	Metadata map[string]any // 附加元数据，复制到每个分片
}

// Stats 入库统计
type Stats struct {
	ChunkCount       int   `json:"chunk_count"`
	AverageChunkSize int   `json:"average_chunk_size"`
	TotalTokens      int   `json:"total_tokens"`
	TimeTakenMs      int64 `json:"time_taken_ms"`
}

// StoreDocumentResult 入库结果
type StoreDocumentResult struct {
	ParentDocumentID string                     `json:"parent_document_id"`
	ChunkIDs         []string                   `json:"chunk_ids"`
	Stats            Stats                      `json:"stats"`
	Document         *gormModel.StoredDocuments `json:"document"`
}

// ingestContext 入库上下文，在pipeline步骤间传递数据
type ingestContext struct {
	ctx              context.Context
	input            *StoreDocumentInput
	parentDocumentId string
	title            string

	chunkResult     *chunker.Result
	chunks          []*schema.DocumentChunk
	totalTokens     int
	chunkIds        []string
	storageType     string
	storageLocation string
	document        *gormModel.StoredDocuments
}

// StoreDocument 完整入库一篇文档：校验 → 分片 → 向量化（单次批量调用）→
// 写入向量库（单次调用）→ 留存原文 → 持久化文档记录。
// 任一步骤失败即中止并返回包装错误，不产生部分可见的文档记录。
func (s *DocumentIndexer) StoreDocument(ctx context.Context, input *StoreDocumentInput) (*StoreDocumentResult, error) {
	startTime := time.Now()

	igCtx := &ingestContext{
		ctx:              ctx,
		input:            input,
		parentDocumentId: uuid.New().String(),
	}

	pipeline := []struct {
		name string
		fn   func(*ingestContext) error
	}{
		{"Validate input", s.stepValidate},
		{"Chunk document", s.stepChunk},
		{"Generate embeddings", s.stepEmbed},
		{"Store chunks", s.stepStoreChunks},
		{"Retain original text", s.stepRetainOriginal},
		{"Persist document record", s.stepPersistRecord},
	}

	for _, step := range pipeline {
		g.Log().Debugf(ctx, "Executing step: %s, parentDocumentId=%s", step.name, igCtx.parentDocumentId)
		if err := step.fn(igCtx); err != nil {
			return nil, fmt.Errorf("%s failed: %w", step.name, err)
		}
	}

	stats := Stats{
		ChunkCount:       igCtx.chunkResult.Metadata.TotalChunks,
		AverageChunkSize: igCtx.chunkResult.Metadata.AverageChunkSize,
		TotalTokens:      igCtx.totalTokens,
		TimeTakenMs:      time.Since(startTime).Milliseconds(),
	}

	g.Log().Infof(ctx, "Document stored, parentDocumentId=%s, chunks=%d, tokens=%d, timeTaken=%dms",
		igCtx.parentDocumentId, stats.ChunkCount, stats.TotalTokens, stats.TimeTakenMs)

	return &StoreDocumentResult{
		ParentDocumentID: igCtx.parentDocumentId,
		ChunkIDs:         igCtx.chunkIds,
		Stats:            stats,
		Document:         igCtx.document,
	}, nil
}

// stepValidate 步骤1：校验请求并确定标题
func (s *DocumentIndexer) stepValidate(igCtx *ingestContext) error {
	if igCtx.input == nil || strings.TrimSpace(igCtx.input.Content) == "" {
		return errors.New(errors.ErrInvalidParameter, "document content cannot be empty")
	}

	title := strings.TrimSpace(igCtx.input.Title)
	if title == "" && igCtx.input.FileName != "" {
		base := filepath.Base(igCtx.input.FileName)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if title == "" {
		title = "Untitled Document"
	}
	igCtx.title = title
	return nil
}

// stepChunk 步骤2：递归分片
func (s *DocumentIndexer) stepChunk(igCtx *ingestContext) error {
	result, err := chunker.Chunk(igCtx.input.Content, &chunker.Options{
		ChunkSize:    s.chunkerConf.ChunkSize,
		ChunkOverlap: s.chunkerConf.ChunkOverlap,
	})
	if err != nil {
		return err
	}
	if len(result.Chunks) == 0 {
		return errors.New(errors.ErrEmptyDocument, "document produced no chunks")
	}

	chunks := make([]*schema.DocumentChunk, len(result.Chunks))
	for i, content := range result.Chunks {
		chunks[i] = &schema.DocumentChunk{
			ID:               uuid.New().String(),
			Title:            fmt.Sprintf("%s - Part %d", igCtx.title, i+1),
			Content:          content,
			ChunkIndex:       i,
			ParentDocumentID: igCtx.parentDocumentId,
			Metadata:         igCtx.input.Metadata,
		}
	}

	igCtx.chunkResult = result
	igCtx.chunks = chunks
	g.Log().Infof(igCtx.ctx, "Document chunked, parentDocumentId=%s, chunks=%d, avgSize=%d",
		igCtx.parentDocumentId, result.Metadata.TotalChunks, result.Metadata.AverageChunkSize)
	return nil
}

// stepEmbed 步骤3：单次批量调用生成全部分片向量，
// 按原始顺序回填，chunks[i] 对应 Embeddings[i]
func (s *DocumentIndexer) stepEmbed(igCtx *ingestContext) error {
	texts := make([]string, len(igCtx.chunks))
	for i, chunk := range igCtx.chunks {
		texts[i] = chunk.Content
	}

	batch, err := s.embedder.GenerateEmbeddings(igCtx.ctx, texts)
	if err != nil {
		return err
	}
	if len(batch.Embeddings) != len(igCtx.chunks) {
		return errors.Newf(errors.ErrEmbeddingFailed,
			"embedding count mismatch: expected %d, got %d", len(igCtx.chunks), len(batch.Embeddings))
	}

	for i, chunk := range igCtx.chunks {
		chunk.Embedding = batch.Embeddings[i]
	}
	igCtx.totalTokens = batch.Metadata.TotalTokens
	return nil
}

// stepStoreChunks 步骤4：单次调用写入向量库
func (s *DocumentIndexer) stepStoreChunks(igCtx *ingestContext) error {
	chunkIds, err := s.store.StoreChunks(igCtx.ctx, igCtx.chunks)
	if err != nil {
		return err
	}
	igCtx.chunkIds = chunkIds
	return nil
}

// stepRetainOriginal 步骤5：留存原文，重建索引时回读
func (s *DocumentIndexer) stepRetainOriginal(igCtx *ingestContext) error {
	if s.fileStore == nil {
		g.Log().Debugf(igCtx.ctx, "File store not configured, skipping original text retention, parentDocumentId=%s",
			igCtx.parentDocumentId)
		return nil
	}

	fileName := igCtx.input.FileName
	if fileName == "" {
		fileName = "document.txt"
	}
	location, err := s.fileStore.SaveText(igCtx.ctx, igCtx.parentDocumentId, fileName, []byte(igCtx.input.Content))
	if err != nil {
		s.cleanupChunks(igCtx)
		return err
	}
	igCtx.storageType = string(s.fileStore.Type())
	igCtx.storageLocation = location
	return nil
}

// stepPersistRecord 步骤6：持久化文档记录
func (s *DocumentIndexer) stepPersistRecord(igCtx *ingestContext) error {
	metadataJSON := ""
	if len(igCtx.input.Metadata) > 0 {
		if data, err := json.Marshal(igCtx.input.Metadata); err == nil {
			metadataJSON = string(data)
		}
	}

	doc := &gormModel.StoredDocuments{
		ID:              igCtx.parentDocumentId,
		Title:           igCtx.title,
		FileName:        igCtx.input.FileName,
		FileSize:        igCtx.input.FileSize,
		MimeType:        igCtx.input.MimeType,
		ChunkCount:      len(igCtx.chunks),
		EmbeddingModel:  s.embeddingModel,
		EmbeddingDim:    s.embeddingDim,
		StorageType:     igCtx.storageType,
		StorageLocation: igCtx.storageLocation,
		Metadata:        metadataJSON,
	}

	if err := s.documents.Insert(igCtx.ctx, doc); err != nil {
		s.cleanupChunks(igCtx)
		return err
	}
	igCtx.document = doc
	return nil
}

// cleanupChunks 入库后半程失败时回收已写入的分片，避免产生
// 向量库有数据而文档记录缺失的孤儿状态
func (s *DocumentIndexer) cleanupChunks(igCtx *ingestContext) {
	if len(igCtx.chunkIds) == 0 {
		return
	}
	if _, err := s.store.DeleteByParentID(igCtx.ctx, igCtx.parentDocumentId); err != nil {
		g.Log().Errorf(igCtx.ctx, "Failed to clean up chunks after ingestion failure, parentDocumentId=%s, err=%v",
			igCtx.parentDocumentId, err)
	}
}
