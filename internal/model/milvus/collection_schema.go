package milvus

import (
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"
)

// CollectionSchema 文档分片集合的标准schema
// 用于存储文档分片及其向量
type CollectionSchema struct {
	// Id 分片唯一标识（主键）
	Id string `milvus:"id,varchar,256,primary_key"`

	// Title 所属文档标题
	Title string `milvus:"title,varchar,1024"`

	// Text 分片文本内容
	Text string `milvus:"text,varchar,65535"`

	// ChunkIndex 分片在文档内的序号
	ChunkIndex int64 `milvus:"chunk_index,int64"`

	// ParentDocumentId 所属文档ID
	ParentDocumentId string `milvus:"parent_document_id,varchar,256"`

	// Metadata 附加信息（JSON）
	Metadata string `milvus:"metadata,json"`

	// Vector 分片向量
	Vector []float32 `milvus:"vector,float_vector"`
}

// GetFields 返回集合字段定义，dim为向量维度
func (CollectionSchema) GetFields(dim int) []*entity.Field {
	return []*entity.Field{
		{
			Name:        "id",
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "256"},
			PrimaryKey:  true,
			AutoID:      false,
			Description: "Chunk unique ID (primary key)",
		},
		{
			Name:        "title",
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "1024"},
			Description: "Source document title",
		},
		{
			Name:        "text",
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "65535"},
			Description: "Document chunk content",
		},
		{
			Name:        "chunk_index",
			DataType:    entity.FieldTypeInt64,
			Description: "Chunk position within the source document",
		},
		{
			Name:        "parent_document_id",
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "256"},
			Description: "Source document ID",
		},
		{
			Name:        "metadata",
			DataType:    entity.FieldTypeJSON,
			Description: "Additional metadata (JSON)",
		},
		{
			Name:        "vector",
			DataType:    entity.FieldTypeFloatVector,
			TypeParams:  map[string]string{"dim": fmt.Sprintf("%d", dim)},
			Description: "Document chunk embedding vector",
		},
	}
}

// GetStandardCollectionFields 返回标准集合字段定义
func GetStandardCollectionFields(dim int) []*entity.Field {
	return CollectionSchema{}.GetFields(dim)
}
