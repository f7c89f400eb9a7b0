package rag

import (
	"context"

	v1 "github.com/AlexMendozaPrado/PocBanorte/api/rag/v1"
	"github.com/AlexMendozaPrado/PocBanorte/core/chat"
	"github.com/AlexMendozaPrado/PocBanorte/core/common"
	"github.com/AlexMendozaPrado/PocBanorte/internal/logic/rag"
	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/net/ghttp"
)

func (c *ControllerV1) ChatStream(ctx context.Context, req *v1.ChatStreamReq) (res *v1.ChatStreamRes, err error) {
	result, err := rag.GetRAGChat().ExecuteStream(ctx, &chat.Request{
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
		return nil, err
	}

	// 上下文引用在流开始前已确定，先写入sidecar头再推流
	if httpReq := ghttp.RequestFromCtx(ctx); httpReq != nil && len(result.ContextDocuments) > 0 {
		if refs, merr := sonic.Marshal(result.ContextDocuments); merr == nil {
			httpReq.Response.Header().Set("X-Context-Documents", string(refs))
		}
	}

	err = common.StreamResponse(ctx, result.Stream, result.ContextDocuments)
	return nil, err
}
