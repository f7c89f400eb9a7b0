package schema

import (
	"time"

	"github.com/google/uuid"
)

// RoleType 消息角色类型
type RoleType string

const (
	System    RoleType = "system"
	User      RoleType = "user"
	Assistant RoleType = "assistant"
)

// ChatMessage 表示对话消息，创建后作为日志条目不再修改
type ChatMessage struct {
	// ID 消息唯一标识
	ID string `json:"id,omitempty"`
	// Role 消息角色：system, user, assistant
	Role RoleType `json:"role"`
	// Content 文本内容
	Content string `json:"content"`

	// ContextDocuments 该消息引用的上下文分片（仅user/assistant消息使用）
	ContextDocuments []ContextDocumentRef `json:"context_documents,omitempty"`

	// Metadata 扩展字段，用于存储模型名、token数等额外信息
	Metadata map[string]any `json:"metadata,omitempty"`

	CreateTime time.Time `json:"create_time,omitempty"`
}

// NewChatMessage 创建消息并分配ID与创建时间
func NewChatMessage(role RoleType, content string) *ChatMessage {
	return &ChatMessage{
		ID:         uuid.NewString(),
		Role:       role,
		Content:    content,
		CreateTime: time.Now(),
	}
}
