package vector_store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlexMendozaPrado/PocBanorte/core/common"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	pgvectorModel "github.com/AlexMendozaPrado/PocBanorte/internal/model/pgvector"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore PostgreSQL+pgvector向量数据库实现
type PostgresStore struct {
	pool      *pgxpool.Pool
	database  string
	schema    string // 向量数据存储的 schema
	table     string
	dimension int
}

// InitializePostgresStore 从配置初始化PostgreSQL向量存储
func InitializePostgresStore(ctx context.Context) (VectorStore, error) {
	connStr := g.Cfg().MustGet(ctx, "postgres.dsn", "").String()
	database := g.Cfg().MustGet(ctx, "postgres.database", "").String()

	if connStr == "" {
		host := g.Cfg().MustGet(ctx, "postgres.host", "").String()
		port := g.Cfg().MustGet(ctx, "postgres.port", "5432").String()
		user := g.Cfg().MustGet(ctx, "postgres.user", "").String()
		password := g.Cfg().MustGet(ctx, "postgres.password", "").String()
		sslMode := g.Cfg().MustGet(ctx, "postgres.sslmode", "disable").String()

		if host == "" || user == "" || database == "" {
			return nil, fmt.Errorf("postgres configuration is incomplete. Required: dsn, or host, user, database")
		}

		// 构建连接字符串（去掉空密码的 password= 参数）
		if password != "" {
			connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				host, port, user, password, database, sslMode)
		} else {
			connStr = fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
				host, port, user, database, sslMode)
		}
		g.Log().Infof(ctx, "Connecting to PostgreSQL at: %s:%s, database: %s", host, port, database)
	}

	table := g.Cfg().MustGet(ctx, "postgres.table", "document_chunks").String()
	dimension := g.Cfg().MustGet(ctx, "embedding.dimensions", 1536).Int()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	config := &VectorStoreConfig{
		Type:       VectorStoreTypePostgreSQL,
		Client:     pool,
		Database:   database,
		Collection: table,
		Dimension:  dimension,
	}

	postgresStore, err := NewPostgresStore(config)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create postgres store: %w", err)
	}

	return postgresStore, nil
}

// NewPostgresStore 创建PostgreSQL向量存储实例
func NewPostgresStore(config *VectorStoreConfig) (VectorStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	pool, ok := config.Client.(*pgxpool.Pool)
	if !ok {
		return nil, fmt.Errorf("client must be *pgxpool.Pool")
	}

	if !common.ValidateCollectionName(config.Collection) {
		return nil, fmt.Errorf("invalid table name: %q", config.Collection)
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", config.Dimension)
	}

	return &PostgresStore{
		pool:      pool,
		database:  config.Database,
		schema:    "vectors", // 使用独立的 vectors schema
		table:     config.Collection,
		dimension: config.Dimension,
	}, nil
}

// Dimension 返回所配置的向量维度
func (p *PostgresStore) Dimension() int {
	return p.dimension
}

func (p *PostgresStore) fullTableName() string {
	return fmt.Sprintf("%s.%s", p.schema, p.table)
}

// EnsureSchema 初始化扩展、schema、表与索引（幂等）
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	// 1. 检查 pgvector 扩展是否已安装
	var extensionExists bool
	err := p.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&extensionExists)
	if err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, err, "failed to check pgvector extension")
	}

	if !extensionExists {
		g.Log().Infof(ctx, "pgvector extension not found, attempting to create...")
		if _, err = p.pool.Exec(ctx, "CREATE EXTENSION vector"); err != nil {
			return errors.Wrap(errors.ErrVectorStoreInit, err,
				"failed to create pgvector extension. Please ensure pgvector is installed for your PostgreSQL version")
		}
		g.Log().Infof(ctx, "pgvector extension created successfully")
	}

	// 2. 创建独立的 vectors schema
	if _, err = p.pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", p.schema)); err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, err, "failed to create vectors schema")
	}

	// 3. 建表与索引
	tableSchema := pgvectorModel.TableSchema{}
	createTableSQL := tableSchema.GenerateCreateTableSQL(p.schema, p.table, p.dimension)
	if _, err = p.pool.Exec(ctx, createTableSQL); err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, err, fmt.Sprintf("failed to create table %s", p.fullTableName()))
	}

	for _, indexSQL := range tableSchema.GenerateCreateIndexSQL(p.schema, p.table) {
		if _, err = p.pool.Exec(ctx, indexSQL); err != nil {
			return errors.Wrap(errors.ErrVectorStoreInit, err, fmt.Sprintf("failed to create index on table %s", p.fullTableName()))
		}
	}

	g.Log().Infof(ctx, "Table '%s' ready with dimension %d and indexes", p.fullTableName(), p.dimension)
	return nil
}

// StoreChunks 批量写入分片及其向量（单事务）
func (p *PostgresStore) StoreChunks(ctx context.Context, chunks []*schema.DocumentChunk) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}

	ids := make([]string, len(chunks))

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorInsert, err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	insertSQL := fmt.Sprintf(`
		INSERT INTO %s (id, title, text, chunk_index, parent_document_id, metadata, vector)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.fullTableName())

	for idx, chunk := range chunks {
		if len(chunk.Embedding) != p.dimension {
			return nil, errors.Newf(errors.ErrDimensionMismatch,
				"chunk %d embedding dimension %d doesn't match store dimension %d", idx, len(chunk.Embedding), p.dimension)
		}
		if chunk.ParentDocumentID == "" {
			return nil, errors.Newf(errors.ErrInvalidParameter, "chunk %d has no parent document id", idx)
		}

		// 生成chunk ID（如果不存在）
		if len(chunk.ID) == 0 {
			chunk.ID = uuid.New().String()
		}
		ids[idx] = chunk.ID

		metaBytes, err := marshalMetadata(chunk.Metadata)
		if err != nil {
			return nil, errors.Wrap(errors.ErrVectorInsert, err, "failed to marshal metadata")
		}

		_, err = tx.Exec(ctx, insertSQL,
			chunk.ID,
			common.TruncateString(chunk.Title, 1024),
			common.TruncateString(chunk.Content, 65535),
			chunk.ChunkIndex,
			chunk.ParentDocumentID,
			metaBytes,
			pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrVectorInsert, err, fmt.Sprintf("failed to insert vector for chunk %s", chunk.ID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrVectorInsert, err, "failed to commit transaction")
	}

	g.Log().Infof(ctx, "Successfully inserted %d vectors into table '%s'", len(chunks), p.fullTableName())
	return ids, nil
}

// SearchSimilar 余弦相似度检索
//
// 相似度计算为 1 - (vector <=> query)，阈值在SQL层过滤，
// 避免把低分行传回应用层。
func (p *PostgresStore) SearchSimilar(ctx context.Context, queryVector []float32, opts *SearchOptions) (*SearchResult, error) {
	if len(queryVector) != p.dimension {
		return nil, errors.Newf(errors.ErrDimensionMismatch,
			"query vector dimension %d doesn't match store dimension %d", len(queryVector), p.dimension)
	}

	maxResults, threshold, parentID, filters := normalizeSearchOptions(opts)
	started := time.Now()

	args := []any{pgvector.NewVector(queryVector), threshold}
	where := "1 - (vector <=> $1) >= $2"

	if parentID != "" {
		if !common.ValidateUUID(parentID) {
			return nil, errors.Newf(errors.ErrInvalidParameter, "invalid document ID format: %s (must be valid UUID)", parentID)
		}
		args = append(args, parentID)
		where += fmt.Sprintf(" AND parent_document_id = $%d", len(args))
	}

	if len(filters) > 0 {
		// metadata过滤使用JSONB包含语义
		filterMap := make(map[string]any, len(filters))
		for k, v := range filters {
			filterMap[k] = v
		}
		filterBytes, err := json.Marshal(filterMap)
		if err != nil {
			return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to marshal metadata filters")
		}
		args = append(args, filterBytes)
		where += fmt.Sprintf(" AND metadata @> $%d::jsonb", len(args))
	}

	args = append(args, maxResults)
	searchSQL := fmt.Sprintf(`
		SELECT id, title, text, chunk_index, parent_document_id, metadata,
		       1 - (vector <=> $1) AS similarity_score
		FROM %s
		WHERE %s
		ORDER BY similarity_score DESC, chunk_index ASC, id ASC
		LIMIT $%d
	`, p.fullTableName(), where, len(args))

	rows, err := p.pool.Query(ctx, searchSQL, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to execute vector search")
	}
	defer rows.Close()

	var scored []*schema.ScoredChunk
	for rows.Next() {
		var (
			chunk         = &schema.DocumentChunk{Metadata: make(map[string]any)}
			metadataBytes []byte
			similarity    float64
		)
		if err := rows.Scan(&chunk.ID, &chunk.Title, &chunk.Content, &chunk.ChunkIndex, &chunk.ParentDocumentID, &metadataBytes, &similarity); err != nil {
			return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to scan row")
		}
		if len(metadataBytes) > 0 {
			_ = json.Unmarshal(metadataBytes, &chunk.Metadata)
		}
		scored = append(scored, &schema.ScoredChunk{Chunk: chunk, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrVectorSearch, err, "error iterating over rows")
	}

	return &SearchResult{
		Chunks: scored,
		Metadata: SearchMetadata{
			TotalResults: len(scored),
			TimeTakenMs:  time.Since(started).Milliseconds(),
		},
	}, nil
}

// GetByParentID 返回某文档的全部分片，按chunk_index升序
func (p *PostgresStore) GetByParentID(ctx context.Context, parentDocumentID string) ([]*schema.DocumentChunk, error) {
	if !common.ValidateUUID(parentDocumentID) {
		return nil, errors.Newf(errors.ErrInvalidParameter, "invalid document ID format: %s (must be valid UUID)", parentDocumentID)
	}

	querySQL := fmt.Sprintf(`
		SELECT id, title, text, chunk_index, parent_document_id, metadata
		FROM %s
		WHERE parent_document_id = $1
		ORDER BY chunk_index ASC
	`, p.fullTableName())

	rows, err := p.pool.Query(ctx, querySQL, parentDocumentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to query chunks by parent document")
	}
	defer rows.Close()

	chunks := make([]*schema.DocumentChunk, 0)
	for rows.Next() {
		var (
			chunk         = &schema.DocumentChunk{Metadata: make(map[string]any)}
			metadataBytes []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.Title, &chunk.Content, &chunk.ChunkIndex, &chunk.ParentDocumentID, &metadataBytes); err != nil {
			return nil, errors.Wrap(errors.ErrVectorSearch, err, "failed to scan row")
		}
		if len(metadataBytes) > 0 {
			_ = json.Unmarshal(metadataBytes, &chunk.Metadata)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrVectorSearch, err, "error iterating over rows")
	}

	return chunks, nil
}

// DeleteByParentID 删除某文档的全部分片，返回删除数量
func (p *PostgresStore) DeleteByParentID(ctx context.Context, parentDocumentID string) (int64, error) {
	if !common.ValidateUUID(parentDocumentID) {
		return 0, errors.Newf(errors.ErrInvalidParameter, "invalid document ID format: %s (must be valid UUID)", parentDocumentID)
	}

	g.Log().Infof(ctx, "Deleting all chunks of document %s from table %s", parentDocumentID, p.fullTableName())

	result, err := p.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE parent_document_id = $1", p.fullTableName()),
		parentDocumentID,
	)
	if err != nil {
		return 0, errors.Wrap(errors.ErrVectorDelete, err, fmt.Sprintf("failed to delete document %s", parentDocumentID))
	}

	rowsAffected := result.RowsAffected()
	g.Log().Infof(ctx, "Delete operation completed for document %s, affected rows: %d", parentDocumentID, rowsAffected)

	if rowsAffected == 0 {
		g.Log().Infof(ctx, "Warning: No chunks were deleted for parent_document_id=%s", parentDocumentID)
	}

	return rowsAffected, nil
}

// Close 关闭连接池
func (p *PostgresStore) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}
