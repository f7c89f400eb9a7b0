package pgvector

import (
	"fmt"
)

// TableSchema 文档分片表的标准schema
// 用于存储文档分片及其向量
type TableSchema struct {
	// Id 分片唯一标识（主键）
	Id string `pg:"id,varchar(255),primary_key"`

	// Title 所属文档标题
	Title string `pg:"title,text"`

	// Text 分片文本内容
	Text string `pg:"text,text"`

	// ChunkIndex 分片在文档内的序号
	ChunkIndex int64 `pg:"chunk_index,integer"`

	// ParentDocumentId 所属文档ID
	ParentDocumentId string `pg:"parent_document_id,varchar(255)"`

	// Metadata 附加信息（JSONB）
	Metadata string `pg:"metadata,jsonb"`

	// Vector 分片向量
	Vector []float32 `pg:"vector,vector"`

	// CreatedAt 创建时间
	CreatedAt string `pg:"created_at,timestamp"`
}

// FieldDefinition PostgreSQL字段定义
type FieldDefinition struct {
	Name        string
	Type        string
	Nullable    bool
	Default     string
	PrimaryKey  bool
	Description string
}

// IndexDefinition PostgreSQL索引定义
type IndexDefinition struct {
	Name        string
	Fields      []string
	IndexType   string // btree / hnsw
	IndexOps    string // 如 vector_cosine_ops，btree留空
	Description string
}

// GetFields 返回字段定义，dim为向量维度
func (TableSchema) GetFields(dim int) []FieldDefinition {
	return []FieldDefinition{
		{
			Name:        "id",
			Type:        "VARCHAR(255)",
			Nullable:    false,
			PrimaryKey:  true,
			Description: "Chunk unique ID (primary key)",
		},
		{
			Name:        "title",
			Type:        "TEXT",
			Nullable:    false,
			Default:     "''",
			Description: "Source document title",
		},
		{
			Name:        "text",
			Type:        "TEXT",
			Nullable:    false,
			Description: "Document chunk content",
		},
		{
			Name:        "chunk_index",
			Type:        "INTEGER",
			Nullable:    false,
			Default:     "0",
			Description: "Chunk position within the source document",
		},
		{
			Name:        "parent_document_id",
			Type:        "VARCHAR(255)",
			Nullable:    false,
			Description: "Source document ID",
		},
		{
			Name:        "metadata",
			Type:        "JSONB",
			Nullable:    false,
			Default:     "'{}'::jsonb",
			Description: "Additional metadata (JSONB)",
		},
		{
			Name:        "vector",
			Type:        fmt.Sprintf("vector(%d)", dim),
			Nullable:    false,
			Description: "Document chunk embedding vector",
		},
		{
			Name:        "created_at",
			Type:        "TIMESTAMP",
			Nullable:    false,
			Default:     "NOW()",
			Description: "Creation timestamp",
		},
	}
}

// GetIndexes 返回索引定义
func (TableSchema) GetIndexes(tableName string) []IndexDefinition {
	return []IndexDefinition{
		{
			Name:        fmt.Sprintf("%s_vector_idx", tableName),
			Fields:      []string{"vector"},
			IndexType:   "hnsw",
			IndexOps:    "vector_cosine_ops",
			Description: "HNSW index for fast vector similarity search using cosine distance",
		},
		{
			Name:        fmt.Sprintf("%s_parent_document_id_idx", tableName),
			Fields:      []string{"parent_document_id"},
			IndexType:   "btree",
			IndexOps:    "",
			Description: "B-tree index for fast parent document lookups",
		},
	}
}

// GenerateCreateTableSQL 生成建表SQL
func (t TableSchema) GenerateCreateTableSQL(schemaName, tableName string, dim int) string {
	fields := t.GetFields(dim)
	fullTableName := fmt.Sprintf("%s.%s", schemaName, tableName)

	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n", fullTableName)
	for i, field := range fields {
		sql += fmt.Sprintf("    %s %s", field.Name, field.Type)

		if field.PrimaryKey {
			sql += " PRIMARY KEY"
		} else if !field.Nullable {
			sql += " NOT NULL"
		}

		if field.Default != "" && !field.PrimaryKey {
			sql += fmt.Sprintf(" DEFAULT %s", field.Default)
		}

		if i < len(fields)-1 {
			sql += ","
		}
		sql += "\n"
	}
	sql += ")"
	return sql
}

// GenerateCreateIndexSQL 生成建索引SQL
func (t TableSchema) GenerateCreateIndexSQL(schemaName, tableName string) []string {
	indexes := t.GetIndexes(tableName)
	fullTableName := fmt.Sprintf("%s.%s", schemaName, tableName)

	sqls := make([]string, len(indexes))
	for i, idx := range indexes {
		if idx.IndexType == "hnsw" && idx.IndexOps != "" {
			sqls[i] = fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s USING %s (%s %s)",
				idx.Name, fullTableName, idx.IndexType, idx.Fields[0], idx.IndexOps,
			)
		} else {
			sqls[i] = fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				idx.Name, fullTableName, idx.Fields[0],
			)
		}
	}
	return sqls
}
