package gorm

import (
	"time"
)

// StoredDocuments 已入库文档记录，与向量库中的分片一一对应
type StoredDocuments struct {
	// ID 即向量库中分片的 parent_document_id
	ID             string `gorm:"primaryKey;column:id;type:varchar(255)" json:"id"`
	Title          string `gorm:"column:title;type:varchar(512);not null" json:"title"`
	FileName       string `gorm:"column:file_name;type:varchar(255)" json:"file_name"`
	FileSize       int64  `gorm:"column:file_size;type:bigint" json:"file_size"`
	MimeType       string `gorm:"column:mime_type;type:varchar(128)" json:"mime_type"`
	ChunkCount     int    `gorm:"column:chunk_count;type:int;not null;default:0" json:"chunk_count"`
	EmbeddingModel string `gorm:"column:embedding_model;type:varchar(128)" json:"embedding_model"`
	EmbeddingDim   int    `gorm:"column:embedding_dim;type:int" json:"embedding_dim"`
	// StorageType 原始文本的存放方式：local 或 minio
	StorageType string `gorm:"column:storage_type;type:varchar(32)" json:"storage_type"`
	// StorageLocation 原始文本在文件存储中的位置，重建索引时回读
	StorageLocation string     `gorm:"column:storage_location;type:varchar(512)" json:"storage_location"`
	Metadata        string     `gorm:"column:metadata;type:text" json:"metadata,omitempty"`
	CreateTime      *time.Time `gorm:"column:create_time;type:timestamp;autoCreateTime" json:"create_time"`
	UpdateTime      *time.Time `gorm:"column:update_time;type:timestamp;autoUpdateTime" json:"update_time"`
}

// TableName 设置表名
func (StoredDocuments) TableName() string {
	return "stored_documents"
}
