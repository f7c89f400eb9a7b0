package rag

import (
	"context"

	v1 "github.com/AlexMendozaPrado/PocBanorte/api/rag/v1"
	"github.com/AlexMendozaPrado/PocBanorte/internal/logic/rag"
)

func (c *ControllerV1) DocumentsDelete(ctx context.Context, req *v1.DocumentsDeleteReq) (res *v1.DocumentsDeleteRes, err error) {
	deleted, err := rag.GetIndexer().DeleteDocument(ctx, req.DocumentId)
	if err != nil {
		return
	}

	res = &v1.DocumentsDeleteRes{
		ChunksDeleted: deleted,
	}

	return
}
