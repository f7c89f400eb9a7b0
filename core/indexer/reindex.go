package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexMendozaPrado/PocBanorte/core/chunker"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
)

// ReindexDocument 从留存原文重建索引：回读原文，删除旧分片，
// 以当前的分片参数和embedding模型重新分片、向量化并写入。
// 文档ID保持不变。
func (s *DocumentIndexer) ReindexDocument(ctx context.Context, parentDocumentId string) (*StoreDocumentResult, error) {
	startTime := time.Now()

	doc, err := s.documents.GetByID(ctx, parentDocumentId)
	if err != nil {
		return nil, err
	}
	if s.fileStore == nil || doc.StorageLocation == "" {
		return nil, errors.Newf(errors.ErrOperationFailed,
			"original text not retained for document %s, reindex unavailable", parentDocumentId)
	}

	content, err := s.fileStore.ReadText(ctx, doc.StorageLocation)
	if err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteByParentID(ctx, parentDocumentId)
	if err != nil {
		return nil, err
	}
	g.Log().Infof(ctx, "Old chunks removed for reindex, parentDocumentId=%s, deleted=%d", parentDocumentId, deleted)

	chunkResult, err := chunker.Chunk(string(content), &chunker.Options{
		ChunkSize:    s.chunkerConf.ChunkSize,
		ChunkOverlap: s.chunkerConf.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}
	if len(chunkResult.Chunks) == 0 {
		return nil, errors.New(errors.ErrEmptyDocument, "document produced no chunks")
	}

	chunks := make([]*schema.DocumentChunk, len(chunkResult.Chunks))
	texts := make([]string, len(chunkResult.Chunks))
	for i, text := range chunkResult.Chunks {
		chunks[i] = &schema.DocumentChunk{
			ID:               uuid.New().String(),
			Title:            fmt.Sprintf("%s - Part %d", doc.Title, i+1),
			Content:          text,
			ChunkIndex:       i,
			ParentDocumentID: parentDocumentId,
		}
		texts[i] = text
	}

	batch, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(batch.Embeddings) != len(chunks) {
		return nil, errors.Newf(errors.ErrEmbeddingFailed,
			"embedding count mismatch: expected %d, got %d", len(chunks), len(batch.Embeddings))
	}
	for i, chunk := range chunks {
		chunk.Embedding = batch.Embeddings[i]
	}

	chunkIds, err := s.store.StoreChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := s.documents.UpdateChunkCount(ctx, parentDocumentId, len(chunks)); err != nil {
		return nil, err
	}
	doc.ChunkCount = len(chunks)

	stats := Stats{
		ChunkCount:       chunkResult.Metadata.TotalChunks,
		AverageChunkSize: chunkResult.Metadata.AverageChunkSize,
		TotalTokens:      batch.Metadata.TotalTokens,
		TimeTakenMs:      time.Since(startTime).Milliseconds(),
	}

	g.Log().Infof(ctx, "Document reindexed, parentDocumentId=%s, chunks=%d, tokens=%d, timeTaken=%dms",
		parentDocumentId, stats.ChunkCount, stats.TotalTokens, stats.TimeTakenMs)

	return &StoreDocumentResult{
		ParentDocumentID: parentDocumentId,
		ChunkIDs:         chunkIds,
		Stats:            stats,
		Document:         doc,
	}, nil
}

// DeleteDocument 删除文档：清除向量库分片、文档记录和留存原文。
// 返回删除的分片数量。
func (s *DocumentIndexer) DeleteDocument(ctx context.Context, parentDocumentId string) (int64, error) {
	doc, err := s.documents.GetByID(ctx, parentDocumentId)
	if err != nil {
		return 0, err
	}

	deleted, err := s.store.DeleteByParentID(ctx, parentDocumentId)
	if err != nil {
		return 0, err
	}

	if _, err := s.documents.Delete(ctx, parentDocumentId); err != nil {
		return deleted, err
	}

	if s.fileStore != nil && doc.StorageLocation != "" {
		if err := s.fileStore.Delete(ctx, doc.StorageLocation); err != nil {
			// 原文清理失败不影响删除结果，只留痕
			g.Log().Warningf(ctx, "Failed to delete retained original text, parentDocumentId=%s, location=%s, err=%v",
				parentDocumentId, doc.StorageLocation, err)
		}
	}

	g.Log().Infof(ctx, "Document deleted, parentDocumentId=%s, chunksDeleted=%d", parentDocumentId, deleted)
	return deleted, nil
}
