package vector_store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AlexMendozaPrado/PocBanorte/core/common"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	milvusModel "github.com/AlexMendozaPrado/PocBanorte/internal/model/milvus"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// MilvusStore Milvus向量数据库实现
type MilvusStore struct {
	client     *milvusclient.Client
	database   string
	collection string
	dimension  int
}

// InitializeMilvusStore 从配置初始化Milvus向量存储
func InitializeMilvusStore(ctx context.Context) (VectorStore, error) {
	address := g.Cfg().MustGet(ctx, "milvus.address", "").String()
	database := g.Cfg().MustGet(ctx, "milvus.database", "default").String()
	collection := g.Cfg().MustGet(ctx, "milvus.collection", "document_chunks").String()
	dimension := g.Cfg().MustGet(ctx, "embedding.dimensions", 1536).Int()

	if address == "" {
		return nil, fmt.Errorf("milvus.address is required but not found in config file. Please check your config.yaml file and ensure milvus.address is properly set")
	}

	g.Log().Infof(ctx, "Connecting to Milvus at: %s, database: %s, collection: %s", address, database, collection)

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: address,
		DBName:  database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client (address: %s, database: %s): %w", address, database, err)
	}

	config := &VectorStoreConfig{
		Type:       VectorStoreTypeMilvus,
		Client:     client,
		Database:   database,
		Collection: collection,
		Dimension:  dimension,
	}

	milvusStore, err := NewMilvusStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus store: %w", err)
	}

	return milvusStore, nil
}

// NewMilvusStore 创建Milvus向量存储实例
func NewMilvusStore(config *VectorStoreConfig) (VectorStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	client, ok := config.Client.(*milvusclient.Client)
	if !ok {
		return nil, fmt.Errorf("client must be *milvusclient.Client")
	}

	if config.Database == "" {
		return nil, fmt.Errorf("database name cannot be empty")
	}
	if !common.ValidateCollectionName(config.Collection) {
		return nil, fmt.Errorf("invalid collection name: %q", config.Collection)
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", config.Dimension)
	}

	return &MilvusStore{
		client:     client,
		database:   config.Database,
		collection: config.Collection,
		dimension:  config.Dimension,
	}, nil
}

// Dimension 返回所配置的向量维度
func (m *MilvusStore) Dimension() int {
	return m.dimension
}

// EnsureSchema 初始化数据库与集合（幂等）
func (m *MilvusStore) EnsureSchema(ctx context.Context) error {
	if err := m.createDatabaseIfNotExists(ctx); err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, err, "failed to ensure milvus database")
	}

	has, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(m.collection))
	if err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, err, "failed to check milvus collection")
	}
	if has {
		// 已存在的集合重新加载即可
		if _, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection)); err != nil {
			return errors.Wrap(errors.ErrVectorStoreInit, err, "failed to load milvus collection")
		}
		g.Log().Infof(ctx, "Collection '%s' already exists, loaded", m.collection)
		return nil
	}

	collSchema := &entity.Schema{
		CollectionName: m.collection,
		Description:    "存储文档分片及其向量",
		AutoID:         false,
		Fields:         milvusModel.GetStandardCollectionFields(m.dimension),
	}

	// 创建集合并为vector字段建HNSW余弦索引
	err = m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(m.collection, collSchema).WithIndexOptions(
		milvusclient.NewCreateIndexOption(m.collection, common.FieldVector, index.NewHNSWIndex(entity.COSINE, 64, 128))))
	if err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, err, "failed to create milvus collection")
	}

	if _, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection)); err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, err, "failed to load milvus collection")
	}

	g.Log().Infof(ctx, "Collection '%s' created with dimension %d, index built and loaded", m.collection, m.dimension)
	return nil
}

func (m *MilvusStore) createDatabaseIfNotExists(ctx context.Context) error {
	dbNames, err := m.client.ListDatabase(ctx, milvusclient.NewListDatabaseOption())
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	for _, name := range dbNames {
		if strings.EqualFold(name, m.database) {
			return nil
		}
	}

	if err := m.client.CreateDatabase(ctx, milvusclient.NewCreateDatabaseOption(m.database)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	g.Log().Infof(ctx, "Database '%s' created successfully", m.database)
	return nil
}

// StoreChunks 批量写入分片及其向量
func (m *MilvusStore) StoreChunks(ctx context.Context, chunks []*schema.DocumentChunk) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}

	ids := make([]string, len(chunks))
	titles := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	chunkIndexes := make([]int64, len(chunks))
	parentIds := make([]string, len(chunks))
	metadataList := make([][]byte, len(chunks))
	vectors := make([][]float32, len(chunks))

	for idx, chunk := range chunks {
		if len(chunk.Embedding) != m.dimension {
			return nil, errors.Newf(errors.ErrDimensionMismatch,
				"chunk %d embedding dimension %d doesn't match store dimension %d", idx, len(chunk.Embedding), m.dimension)
		}
		if chunk.ParentDocumentID == "" {
			return nil, errors.Newf(errors.ErrInvalidParameter, "chunk %d has no parent document id", idx)
		}

		// 生成chunk ID（如果不存在）
		if len(chunk.ID) == 0 {
			chunk.ID = uuid.New().String()
		}
		ids[idx] = chunk.ID
		titles[idx] = common.TruncateString(chunk.Title, 1024)
		texts[idx] = common.TruncateString(chunk.Content, 65535)
		chunkIndexes[idx] = int64(chunk.ChunkIndex)
		parentIds[idx] = chunk.ParentDocumentID
		vectors[idx] = chunk.Embedding

		metaBytes, err := marshalMetadata(chunk.Metadata)
		if err != nil {
			return nil, errors.Wrap(errors.ErrVectorInsert, err, "failed to marshal metadata")
		}
		metadataList[idx] = metaBytes
	}

	columns := []column.Column{
		column.NewColumnVarChar(common.FieldId, ids),
		column.NewColumnVarChar(common.FieldTitle, titles),
		column.NewColumnVarChar(common.FieldContent, texts),
		column.NewColumnInt64(common.FieldChunkIndex, chunkIndexes),
		column.NewColumnVarChar(common.FieldParentId, parentIds),
		column.NewColumnJSONBytes(common.FieldMetadata, metadataList),
		column.NewColumnFloatVector(common.FieldVector, m.dimension, vectors),
	}

	insertOpt := milvusclient.NewColumnBasedInsertOption(m.collection, columns...)
	result, err := m.client.Insert(ctx, insertOpt)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorInsert, err, "failed to insert vectors")
	}

	g.Log().Infof(ctx, "Successfully inserted %d vectors into collection '%s'", result.InsertCount, m.collection)
	return ids, nil
}

// SearchSimilar 余弦相似度检索
//
// 使用COSINE索引时Milvus返回的score即为余弦相似度，低于阈值的
// 结果在本层过滤后不再返回。
func (m *MilvusStore) SearchSimilar(ctx context.Context, queryVector []float32, opts *SearchOptions) (*SearchResult, error) {
	if len(queryVector) != m.dimension {
		return nil, errors.Newf(errors.ErrDimensionMismatch,
			"query vector dimension %d doesn't match store dimension %d", len(queryVector), m.dimension)
	}

	maxResults, threshold, parentID, filters := normalizeSearchOptions(opts)
	started := time.Now()

	filterExpr, err := m.buildFilterExpr(parentID, filters)
	if err != nil {
		return nil, err
	}

	searchOpt := milvusclient.NewSearchOption(m.collection, maxResults, []entity.Vector{entity.FloatVector(queryVector)}).
		WithANNSField(common.FieldVector).
		WithOutputFields(common.FieldId, common.FieldTitle, common.FieldContent, common.FieldChunkIndex, common.FieldParentId, common.FieldMetadata).
		WithConsistencyLevel(entity.ClBounded)
	if filterExpr != "" {
		searchOpt = searchOpt.WithFilter(filterExpr)
	}

	results, err := m.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorSearch, err, "milvus search failed")
	}

	scored := make([]*schema.ScoredChunk, 0, maxResults)
	if len(results) > 0 {
		chunks, err := m.convertResultColumns(results[0].Fields)
		if err != nil {
			return nil, err
		}
		for i, chunk := range chunks {
			if i >= len(results[0].Scores) {
				break
			}
			similarity := float64(results[0].Scores[i])
			if similarity < threshold {
				g.Log().Debugf(ctx, "score less: %v, chunk: %v", similarity, chunk.ID)
				continue
			}
			scored = append(scored, &schema.ScoredChunk{Chunk: chunk, Similarity: similarity})
		}
	}

	sortScoredChunks(scored)

	return &SearchResult{
		Chunks: scored,
		Metadata: SearchMetadata{
			TotalResults: len(scored),
			TimeTakenMs:  time.Since(started).Milliseconds(),
		},
	}, nil
}

// GetByParentID 返回某文档的全部分片，按chunk_index升序
func (m *MilvusStore) GetByParentID(ctx context.Context, parentDocumentID string) ([]*schema.DocumentChunk, error) {
	if !common.ValidateUUID(parentDocumentID) {
		return nil, errors.Newf(errors.ErrInvalidParameter, "invalid document ID format: %s (must be valid UUID)", parentDocumentID)
	}

	filterExpr := fmt.Sprintf(`%s == "%s"`, common.FieldParentId, common.SanitizeMilvusString(parentDocumentID))
	queryOpt := milvusclient.NewQueryOption(m.collection).
		WithFilter(filterExpr).
		WithOutputFields(common.FieldId, common.FieldTitle, common.FieldContent, common.FieldChunkIndex, common.FieldParentId, common.FieldMetadata).
		WithConsistencyLevel(entity.ClBounded)

	resultSet, err := m.client.Query(ctx, queryOpt)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorSearch, err, "milvus query failed")
	}

	chunks, err := m.convertResultColumns(resultSet.Fields)
	if err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	return chunks, nil
}

// DeleteByParentID 删除某文档的全部分片，返回删除数量
func (m *MilvusStore) DeleteByParentID(ctx context.Context, parentDocumentID string) (int64, error) {
	// 验证格式（防止表达式注入）
	if !common.ValidateUUID(parentDocumentID) {
		return 0, errors.Newf(errors.ErrInvalidParameter, "invalid document ID format: %s (must be valid UUID)", parentDocumentID)
	}

	safeDocID := common.SanitizeMilvusString(parentDocumentID)
	filterExpr := fmt.Sprintf(`%s == "%s"`, common.FieldParentId, safeDocID)

	g.Log().Infof(ctx, "Deleting all chunks of document %s from collection %s", parentDocumentID, m.collection)

	deleteOpt := milvusclient.NewDeleteOption(m.collection).WithExpr(filterExpr)
	result, err := m.client.Delete(ctx, deleteOpt)
	if err != nil {
		return 0, errors.Wrap(errors.ErrVectorDelete, err, fmt.Sprintf("failed to delete document %s", parentDocumentID))
	}

	g.Log().Infof(ctx, "Delete operation completed for document %s, affected rows: %d", parentDocumentID, result.DeleteCount)

	if result.DeleteCount == 0 {
		g.Log().Infof(ctx, "Warning: No chunks were deleted for parent_document_id=%s", parentDocumentID)
	}

	return result.DeleteCount, nil
}

// Close 关闭底层客户端连接
func (m *MilvusStore) Close(ctx context.Context) error {
	return m.client.Close(ctx)
}

// buildFilterExpr 构建检索过滤表达式
func (m *MilvusStore) buildFilterExpr(parentID string, filters map[string]string) (string, error) {
	var parts []string
	if parentID != "" {
		if !common.ValidateUUID(parentID) {
			return "", errors.Newf(errors.ErrInvalidParameter, "invalid document ID format: %s (must be valid UUID)", parentID)
		}
		parts = append(parts, fmt.Sprintf(`%s == "%s"`, common.FieldParentId, common.SanitizeMilvusString(parentID)))
	}

	// metadata过滤按key排序保证表达式稳定
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s["%s"] == "%s"`,
			common.FieldMetadata, common.SanitizeMilvusString(k), common.SanitizeMilvusString(filters[k])))
	}

	return strings.Join(parts, " and "), nil
}

// convertResultColumns 将Milvus列数据转换为分片列表
func (m *MilvusStore) convertResultColumns(columns []column.Column) ([]*schema.DocumentChunk, error) {
	if len(columns) == 0 {
		return []*schema.DocumentChunk{}, nil
	}

	numRows := columns[0].Len()
	result := make([]*schema.DocumentChunk, numRows)
	for i := range result {
		result[i] = &schema.DocumentChunk{Metadata: make(map[string]any)}
	}

	for _, col := range columns {
		switch col.Name() {
		case common.FieldId:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to get id")
				}
				if str, ok := val.(string); ok {
					result[i].ID = str
				}
			}
		case common.FieldTitle:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to get title")
				}
				if str, ok := val.(string); ok {
					result[i].Title = str
				}
			}
		case common.FieldContent:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to get content")
				}
				if str, ok := val.(string); ok {
					result[i].Content = str
				}
			}
		case common.FieldChunkIndex:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to get chunk_index")
				}
				if n, ok := val.(int64); ok {
					result[i].ChunkIndex = int(n)
				}
			}
		case common.FieldParentId:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					continue
				}
				if str, ok := val.(string); ok {
					result[i].ParentDocumentID = str
				}
			}
		case common.FieldMetadata:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil || val == nil {
					continue
				}
				// metadata字段可能返回string或[]byte，统一按JSON解析
				switch v := val.(type) {
				case string:
					var metadata map[string]any
					if err := json.Unmarshal([]byte(v), &metadata); err == nil {
						for k, mv := range metadata {
							result[i].Metadata[k] = mv
						}
					}
				case []byte:
					var metadata map[string]any
					if err := json.Unmarshal(v, &metadata); err == nil {
						for k, mv := range metadata {
							result[i].Metadata[k] = mv
						}
					}
				}
			}
		case common.FieldVector:
			// 向量仅用于相似度计算，不需要回填到结果
		default:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					continue
				}
				result[i].Metadata[col.Name()] = val
			}
		}
	}

	return result, nil
}

// Helper functions

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if len(metadata) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(metadata)
}

// sortScoredChunks 按相似度降序排序，相同分数按chunk_index和ID兜底保证确定性
func sortScoredChunks(scored []*schema.ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		if scored[i].Chunk.ChunkIndex != scored[j].Chunk.ChunkIndex {
			return scored[i].Chunk.ChunkIndex < scored[j].Chunk.ChunkIndex
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
}
