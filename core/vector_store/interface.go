package vector_store

import (
	"context"

	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
)

// VectorStoreType 向量数据库类型
type VectorStoreType string

const (
	VectorStoreTypeMilvus     VectorStoreType = "milvus"
	VectorStoreTypePostgreSQL VectorStoreType = "pgvector"
	// 未来可以扩展其他类型
	// VectorStoreTypeChroma VectorStoreType = "chroma"
	// VectorStoreTypeWeaviate VectorStoreType = "weaviate"
)

// 检索默认参数
const (
	DefaultMaxResults          = 5
	DefaultSimilarityThreshold = 0.7
)

// VectorStoreConfig 向量数据库配置
type VectorStoreConfig struct {
	Type       VectorStoreType // 向量数据库类型
	Client     interface{}     // 客户端实例
	Database   string          // 数据库名称
	Collection string          // 集合/表名
	Dimension  int             // 向量维度
}

// SearchOptions 相似度检索选项
type SearchOptions struct {
	MaxResults          int               // 返回结果上限，<=0 时取 DefaultMaxResults
	SimilarityThreshold *float64          // 相似度下限，nil 时取 DefaultSimilarityThreshold
	ParentDocumentID    string            // 限定所属文档，空表示全库检索
	Filters             map[string]string // metadata 精确匹配过滤
}

// SearchMetadata 检索结果元数据
type SearchMetadata struct {
	TotalResults int   `json:"total_results"`
	TimeTakenMs  int64 `json:"time_taken_ms"`
}

// SearchResult 检索结果，Chunks 按相似度降序排列
type SearchResult struct {
	Chunks   []*schema.ScoredChunk `json:"chunks"`
	Metadata SearchMetadata        `json:"metadata"`
}

// VectorStore 向量数据库接口
type VectorStore interface {
	// EnsureSchema 初始化存储结构（集合/表、索引），幂等
	EnsureSchema(ctx context.Context) error

	// StoreChunks 批量写入分片及其向量，返回写入的分片ID
	StoreChunks(ctx context.Context, chunks []*schema.DocumentChunk) ([]string, error)

	// SearchSimilar 按余弦相似度检索，低于阈值的结果不返回
	SearchSimilar(ctx context.Context, queryVector []float32, opts *SearchOptions) (*SearchResult, error)

	// GetByParentID 返回某文档的全部分片，按chunk_index升序
	GetByParentID(ctx context.Context, parentDocumentID string) ([]*schema.DocumentChunk, error)

	// DeleteByParentID 删除某文档的全部分片，返回删除数量
	DeleteByParentID(ctx context.Context, parentDocumentID string) (int64, error)

	// Dimension 返回所配置的向量维度
	Dimension() int

	// Close 释放底层连接
	Close(ctx context.Context) error
}

// normalizeSearchOptions 补全检索选项的默认值
func normalizeSearchOptions(opts *SearchOptions) (maxResults int, threshold float64, parentID string, filters map[string]string) {
	maxResults = DefaultMaxResults
	threshold = DefaultSimilarityThreshold
	if opts == nil {
		return
	}
	if opts.MaxResults > 0 {
		maxResults = opts.MaxResults
	}
	if opts.SimilarityThreshold != nil {
		threshold = *opts.SimilarityThreshold
	}
	parentID = opts.ParentDocumentID
	filters = opts.Filters
	return
}
