package rag

import (
	"context"

	v1 "github.com/AlexMendozaPrado/PocBanorte/api/rag/v1"
	"github.com/AlexMendozaPrado/PocBanorte/internal/logic/rag"
)

func (c *ControllerV1) ChunksList(ctx context.Context, req *v1.ChunksListReq) (res *v1.ChunksListRes, err error) {
	chunks, err := rag.GetVectorStore().GetByParentID(ctx, req.DocumentId)
	if err != nil {
		return
	}

	// 列表接口不返回向量本身
	for _, chunk := range chunks {
		chunk.Embedding = nil
	}

	res = &v1.ChunksListRes{
		Data:  chunks,
		Total: len(chunks),
	}

	return
}
