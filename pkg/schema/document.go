package schema

import "time"

// DocumentChunk 文档分片，嵌入和检索的基本单元
type DocumentChunk struct {
	// ID 分片唯一标识（UUID，调用方不解析其内容）
	ID string `json:"id,omitempty"`
	// Title 分片标题（通常为"文档标题 - Part N"）
	Title string `json:"title"`
	// Content 分片文本内容，创建后不可变
	Content string `json:"content"`
	// Embedding 向量，维度等于所配置embedding模型的输出维度
	Embedding []float32 `json:"embedding,omitempty"`
	// ChunkIndex 分片在父文档内的序号，同一父文档内从0开始连续
	ChunkIndex int `json:"chunk_index"`
	// ParentDocumentID 父文档ID，同一次入库的所有分片共享
	ParentDocumentID string `json:"parent_document_id,omitempty"`
	// Metadata 分片元数据
	Metadata map[string]any `json:"metadata,omitempty"`

	CreateTime time.Time `json:"create_time,omitempty"`
	UpdateTime time.Time `json:"update_time,omitempty"`
}

// ScoredChunk 带相似度分数的检索结果
type ScoredChunk struct {
	Chunk *DocumentChunk `json:"chunk"`
	// Similarity 余弦相似度，习惯上按[0,1]解读（负值合法但少见）
	Similarity float64 `json:"similarity"`
}

// ContextDocumentRef 上下文引用，只携带id/title/similarity，不含正文
type ContextDocumentRef struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}
