package rag

import (
	"context"

	v1 "github.com/AlexMendozaPrado/PocBanorte/api/rag/v1"
	"github.com/AlexMendozaPrado/PocBanorte/core/chat"
	"github.com/AlexMendozaPrado/PocBanorte/internal/logic/rag"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
)

func (c *ControllerV1) Chat(ctx context.Context, req *v1.ChatReq) (res *v1.ChatRes, err error) {
	result, err := rag.GetRAGChat().Execute(ctx, &chat.Request{
		Question:         req.Question,
		History:          toHistory(req.History),
		ParentDocumentID: req.ParentDocumentId,
		MaxChunks:        req.MaxChunks,
		MinSimilarity:    req.MinSimilarity,
		Model:            req.Model,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
	})
	if err != nil {
		return
	}

	res = &v1.ChatRes{
		MessageId:        result.Message.ID,
		Answer:           result.Message.Content,
		ContextDocuments: result.ContextDocuments,
		Stats:            result.Stats,
	}

	return
}

// toHistory 将请求中的历史消息转为内部消息格式
func toHistory(history []v1.HistoryMessage) []*schema.ChatMessage {
	if len(history) == 0 {
		return nil
	}
	messages := make([]*schema.ChatMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, &schema.ChatMessage{
			Role:    schema.RoleType(m.Role),
			Content: m.Content,
		})
	}
	return messages
}
