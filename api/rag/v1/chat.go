package v1

import (
	"github.com/AlexMendozaPrado/PocBanorte/core/chat"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/gogf/gf/v2/frame/g"
)

// HistoryMessage 对话历史中的一条消息
type HistoryMessage struct {
	Role    string `json:"role" p:"role" v:"required|in:system,user,assistant"`
	Content string `json:"content" p:"content" v:"required"`
}

type ChatReq struct {
	g.Meta           `path:"/v1/chat" method:"post" tags:"chat" summary:"Answer a question grounded on stored documents"`
	Question         string           `p:"question" dc:"用户问题" v:"required"`
	History          []HistoryMessage `p:"history" dc:"对话历史，时间升序"`
	ParentDocumentId string           `p:"parent_document_id" dc:"限定检索范围的文档ID，空表示全库"`
	MaxChunks        int              `p:"max_chunks" dc:"检索分片数上限" v:"max:50"`
	MinSimilarity    *float64         `p:"min_similarity" dc:"相似度阈值覆盖"`
	Model            string           `p:"model" dc:"对话模型覆盖"`
	Temperature      *float32         `p:"temperature" dc:"采样温度覆盖"`
	MaxTokens        int              `p:"max_tokens" dc:"生成token上限"`
}

type ChatRes struct {
	g.Meta           `mime:"application/json"`
	MessageId        string                      `json:"message_id"`
	Answer           string                      `json:"answer"`
	ContextDocuments []schema.ContextDocumentRef `json:"context_documents"`
	Stats            chat.Stats                  `json:"stats"`
}

type ChatStreamReq struct {
	g.Meta           `path:"/v1/chat/stream" method:"post" tags:"chat" summary:"Streamed chat answer over SSE"`
	Question         string           `p:"question" dc:"用户问题" v:"required"`
	History          []HistoryMessage `p:"history" dc:"对话历史，时间升序"`
	ParentDocumentId string           `p:"parent_document_id" dc:"限定检索范围的文档ID，空表示全库"`
	MaxChunks        int              `p:"max_chunks" dc:"检索分片数上限" v:"max:50"`
	MinSimilarity    *float64         `p:"min_similarity" dc:"相似度阈值覆盖"`
	Model            string           `p:"model" dc:"对话模型覆盖"`
	Temperature      *float32         `p:"temperature" dc:"采样温度覆盖"`
	MaxTokens        int              `p:"max_tokens" dc:"生成token上限"`
}

type ChatStreamRes struct {
	g.Meta `mime:"text/event-stream"`
}
