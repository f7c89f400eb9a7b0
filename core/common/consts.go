package common

// 向量集合字段名
const (
	FieldId         = "id"
	FieldTitle      = "title"
	FieldContent    = "text"
	FieldVector     = "vector"
	FieldChunkIndex = "chunk_index"
	FieldMetadata   = "metadata"
	FieldParentId   = "parent_document_id"
)
