package rag

import (
	"context"

	v1 "github.com/AlexMendozaPrado/PocBanorte/api/rag/v1"
	"github.com/AlexMendozaPrado/PocBanorte/internal/logic/rag"
)

func (c *ControllerV1) DocumentsReindex(ctx context.Context, req *v1.DocumentsReindexReq) (res *v1.DocumentsReindexRes, err error) {
	result, err := rag.GetIndexer().ReindexDocument(ctx, req.DocumentId)
	if err != nil {
		return
	}

	res = &v1.DocumentsReindexRes{
		ParentDocumentID: result.ParentDocumentID,
		ChunkIDs:         result.ChunkIDs,
		Stats:            result.Stats,
	}

	return
}
