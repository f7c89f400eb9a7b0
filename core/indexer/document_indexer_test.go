package indexer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/AlexMendozaPrado/PocBanorte/core/config"
	"github.com/AlexMendozaPrado/PocBanorte/core/embedding"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/core/file_store"
	gormModel "github.com/AlexMendozaPrado/PocBanorte/internal/model/gorm"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChunkEmbedder struct {
	calls     int
	lastTexts []string
	err       error
	// short 为true时少返回一个向量，模拟上游截断
	short bool
}

func (f *fakeChunkEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) (*embedding.BatchResult, error) {
	f.calls++
	f.lastTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	embeddings := make([][]float32, n)
	for i := range embeddings {
		embeddings[i] = []float32{float32(i)}
	}
	return &embedding.BatchResult{
		Embeddings: embeddings,
		Metadata: embedding.BatchMetadata{
			Model:       "text-embedding-3-small",
			Dimensions:  1,
			TotalTokens: len(texts) * 10,
		},
	}, nil
}

type fakeChunkStore struct {
	stored      []*schema.DocumentChunk
	storeCalls  int
	storeErr    error
	deleteCalls []string
	deleteCount int64
	deleteErr   error
}

func (f *fakeChunkStore) StoreChunks(ctx context.Context, chunks []*schema.DocumentChunk) ([]string, error) {
	f.storeCalls++
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	f.stored = chunks
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids, nil
}

func (f *fakeChunkStore) DeleteByParentID(ctx context.Context, parentDocumentId string) (int64, error) {
	f.deleteCalls = append(f.deleteCalls, parentDocumentId)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.deleteCount, nil
}

type fakeDocumentRepo struct {
	docs      map[string]*gormModel.StoredDocuments
	insertErr error
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[string]*gormModel.StoredDocuments)}
}

func (f *fakeDocumentRepo) Insert(ctx context.Context, doc *gormModel.StoredDocuments) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, id string) (*gormModel.StoredDocuments, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.Newf(errors.ErrDocumentNotFound, "document not found: %s", id)
	}
	return doc, nil
}

func (f *fakeDocumentRepo) UpdateChunkCount(ctx context.Context, id string, chunkCount int) error {
	if doc, ok := f.docs[id]; ok {
		doc.ChunkCount = chunkCount
	}
	return nil
}

func (f *fakeDocumentRepo) Delete(ctx context.Context, id string) (bool, error) {
	_, ok := f.docs[id]
	delete(f.docs, id)
	return ok, nil
}

func newTestIndexer(t *testing.T, embedder ChunkEmbedder, store ChunkStore, repo DocumentRepo, fs file_store.Storage) *DocumentIndexer {
	t.Helper()
	idx, err := NewDocumentIndexer(
		&config.ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 200},
		&config.EmbeddingConfig{Model: "text-embedding-3-small", EmbeddingDim: 1},
		embedder, store, repo, fs,
	)
	require.NoError(t, err)
	return idx
}

func newLocalStorage(t *testing.T) *file_store.LocalStorage {
	t.Helper()
	fs, err := file_store.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestNewDocumentIndexer_Validation(t *testing.T) {
	repo := newFakeDocumentRepo()
	store := &fakeChunkStore{}
	embedder := &fakeChunkEmbedder{}

	_, err := NewDocumentIndexer(nil, nil, nil, store, repo, nil)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))

	_, err = NewDocumentIndexer(nil, nil, embedder, nil, repo, nil)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))

	_, err = NewDocumentIndexer(nil, nil, embedder, store, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))

	// chunker配置缺省时使用默认参数
	idx, err := NewDocumentIndexer(nil, nil, embedder, store, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, 1000, idx.chunkerConf.ChunkSize)
	assert.Equal(t, 200, idx.chunkerConf.ChunkOverlap)
}

func TestStoreDocument_Success(t *testing.T) {
	embedder := &fakeChunkEmbedder{}
	store := &fakeChunkStore{}
	repo := newFakeDocumentRepo()
	fs := newLocalStorage(t)
	idx := newTestIndexer(t, embedder, store, repo, fs)

	content := "El Banco ofrece cuentas de ahorro con tasas preferenciales para clientes nuevos."
	result, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{
		Title:    "Productos de Ahorro",
		Content:  content,
		FileName: "ahorro.txt",
		FileSize: int64(len(content)),
		MimeType: "text/plain",
		Metadata: map[string]any{"category": "productos"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ParentDocumentID)
	require.Len(t, result.ChunkIDs, 1)
	assert.Equal(t, 1, result.Stats.ChunkCount)
	assert.Equal(t, 10, result.Stats.TotalTokens)

	require.Len(t, store.stored, 1)
	chunk := store.stored[0]
	assert.Equal(t, "Productos de Ahorro - Part 1", chunk.Title)
	assert.Equal(t, content, chunk.Content)
	assert.Equal(t, 0, chunk.ChunkIndex)
	assert.Equal(t, result.ParentDocumentID, chunk.ParentDocumentID)
	assert.Equal(t, []float32{0}, chunk.Embedding)
	assert.Equal(t, "productos", chunk.Metadata["category"])

	// 文档记录已持久化
	doc, err := repo.GetByID(context.Background(), result.ParentDocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Productos de Ahorro", doc.Title)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Equal(t, "text-embedding-3-small", doc.EmbeddingModel)
	assert.Equal(t, "local", doc.StorageType)
	assert.Contains(t, doc.Metadata, "productos")

	// 原文已留存且可回读
	retained, err := os.ReadFile(doc.StorageLocation)
	require.NoError(t, err)
	assert.Equal(t, content, string(retained))
}

func TestStoreDocument_EmptyContent(t *testing.T) {
	embedder := &fakeChunkEmbedder{}
	store := &fakeChunkStore{}
	idx := newTestIndexer(t, embedder, store, newFakeDocumentRepo(), nil)

	for _, content := range []string{"", "   ", "\n\t\n"} {
		_, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{Content: content})
		assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter), "content=%q", content)
	}

	_, err := idx.StoreDocument(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))

	assert.Zero(t, embedder.calls)
	assert.Zero(t, store.storeCalls)
}

func TestStoreDocument_TitleFromFileName(t *testing.T) {
	store := &fakeChunkStore{}
	repo := newFakeDocumentRepo()
	idx := newTestIndexer(t, &fakeChunkEmbedder{}, store, repo, nil)

	result, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{
		Content:  "Contenido del documento.",
		FileName: "informe_anual.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "informe_anual", result.Document.Title)
	assert.Equal(t, "informe_anual - Part 1", store.stored[0].Title)

	// 无标题也无文件名时使用兜底标题
	result, err = idx.StoreDocument(context.Background(), &StoreDocumentInput{Content: "Otro contenido."})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Document", result.Document.Title)
}

func TestStoreDocument_MultiChunkOrder(t *testing.T) {
	embedder := &fakeChunkEmbedder{}
	store := &fakeChunkStore{}
	idx := newTestIndexer(t, embedder, store, newFakeDocumentRepo(), nil)

	// 约2500字符，chunkSize=1000时产生多个分片
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString(fmt.Sprintf("Párrafo %d con información relevante del banco.\n\n", i))
	}
	result, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{
		Title:   "Documento Largo",
		Content: sb.String(),
	})
	require.NoError(t, err)
	require.Greater(t, result.Stats.ChunkCount, 1)

	// 向量化仅调用一次，向量按分片原始顺序回填
	assert.Equal(t, 1, embedder.calls)
	assert.Len(t, embedder.lastTexts, len(store.stored))
	for i, chunk := range store.stored {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, fmt.Sprintf("Documento Largo - Part %d", i+1), chunk.Title)
		require.Len(t, chunk.Embedding, 1)
		assert.Equal(t, float32(i), chunk.Embedding[0])
	}
	assert.Equal(t, len(store.stored)*10, result.Stats.TotalTokens)
}

func TestStoreDocument_EmbeddingFailure(t *testing.T) {
	embedder := &fakeChunkEmbedder{err: errors.New(errors.ErrEmbeddingFailed, "provider unavailable")}
	store := &fakeChunkStore{}
	repo := newFakeDocumentRepo()
	idx := newTestIndexer(t, embedder, store, repo, nil)

	_, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{Content: "Texto de prueba."})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrEmbeddingFailed))
	assert.Zero(t, store.storeCalls)
	assert.Empty(t, repo.docs)
}

func TestStoreDocument_EmbeddingCountMismatch(t *testing.T) {
	embedder := &fakeChunkEmbedder{short: true}
	store := &fakeChunkStore{}
	idx := newTestIndexer(t, embedder, store, newFakeDocumentRepo(), nil)

	_, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{Content: "Texto de prueba."})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrEmbeddingFailed))
	assert.Zero(t, store.storeCalls)
}

func TestStoreDocument_PersistFailureCleansUpChunks(t *testing.T) {
	store := &fakeChunkStore{}
	repo := newFakeDocumentRepo()
	repo.insertErr = errors.New(errors.ErrDatabaseInsert, "insert failed")
	idx := newTestIndexer(t, &fakeChunkEmbedder{}, store, repo, nil)

	_, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{Content: "Texto de prueba."})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDatabaseInsert))

	// 已写入的分片被回收，不留下孤儿向量
	require.Len(t, store.deleteCalls, 1)
	assert.Equal(t, store.stored[0].ParentDocumentID, store.deleteCalls[0])
}

func TestReindexDocument(t *testing.T) {
	embedder := &fakeChunkEmbedder{}
	store := &fakeChunkStore{deleteCount: 1}
	repo := newFakeDocumentRepo()
	fs := newLocalStorage(t)
	idx := newTestIndexer(t, embedder, store, repo, fs)

	stored, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{
		Title:    "Guía de Inversión",
		Content:  "Los fondos de inversión permiten diversificar el portafolio.",
		FileName: "inversion.txt",
	})
	require.NoError(t, err)

	result, err := idx.ReindexDocument(context.Background(), stored.ParentDocumentID)
	require.NoError(t, err)

	// 旧分片先删除，文档ID不变
	assert.Contains(t, store.deleteCalls, stored.ParentDocumentID)
	assert.Equal(t, stored.ParentDocumentID, result.ParentDocumentID)
	require.Len(t, result.ChunkIDs, 1)
	assert.NotEqual(t, stored.ChunkIDs[0], result.ChunkIDs[0])
	assert.Equal(t, "Guía de Inversión - Part 1", store.stored[0].Title)

	doc, err := repo.GetByID(context.Background(), stored.ParentDocumentID)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.ChunkCount)
}

func TestReindexDocument_NotFound(t *testing.T) {
	idx := newTestIndexer(t, &fakeChunkEmbedder{}, &fakeChunkStore{}, newFakeDocumentRepo(), newLocalStorage(t))

	_, err := idx.ReindexDocument(context.Background(), "missing-id")
	assert.True(t, errors.IsCode(err, errors.ErrDocumentNotFound))
}

func TestReindexDocument_NoRetainedOriginal(t *testing.T) {
	repo := newFakeDocumentRepo()
	idx := newTestIndexer(t, &fakeChunkEmbedder{}, &fakeChunkStore{}, repo, nil)

	stored, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{Content: "Texto sin retención."})
	require.NoError(t, err)

	_, err = idx.ReindexDocument(context.Background(), stored.ParentDocumentID)
	assert.True(t, errors.IsCode(err, errors.ErrOperationFailed))
}

func TestDeleteDocument(t *testing.T) {
	store := &fakeChunkStore{deleteCount: 3}
	repo := newFakeDocumentRepo()
	fs := newLocalStorage(t)
	idx := newTestIndexer(t, &fakeChunkEmbedder{}, store, repo, fs)

	stored, err := idx.StoreDocument(context.Background(), &StoreDocumentInput{
		Title:    "Para Borrar",
		Content:  "Contenido que será eliminado.",
		FileName: "borrar.txt",
	})
	require.NoError(t, err)
	location := stored.Document.StorageLocation

	deleted, err := idx.DeleteDocument(context.Background(), stored.ParentDocumentID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	// 记录与原文一并清除
	_, err = repo.GetByID(context.Background(), stored.ParentDocumentID)
	assert.True(t, errors.IsCode(err, errors.ErrDocumentNotFound))
	_, err = os.Stat(location)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteDocument_NotFound(t *testing.T) {
	idx := newTestIndexer(t, &fakeChunkEmbedder{}, &fakeChunkStore{}, newFakeDocumentRepo(), nil)

	_, err := idx.DeleteDocument(context.Background(), "missing-id")
	assert.True(t, errors.IsCode(err, errors.ErrDocumentNotFound))
}
