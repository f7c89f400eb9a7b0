package rag

import (
	"context"
	"strings"

	v1 "github.com/AlexMendozaPrado/PocBanorte/api/rag/v1"
	"github.com/AlexMendozaPrado/PocBanorte/core/analyzer"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/core/file_store"
	"github.com/AlexMendozaPrado/PocBanorte/internal/dao"
	"github.com/AlexMendozaPrado/PocBanorte/internal/logic/rag"
)

func (c *ControllerV1) DocumentsAnalyze(ctx context.Context, req *v1.DocumentsAnalyzeReq) (res *v1.DocumentsAnalyzeRes, err error) {
	text := req.FullText
	if strings.TrimSpace(text) == "" {
		if req.DocumentId == "" {
			return nil, errors.New(errors.ErrInvalidParameter, "either document_id or full_text is required")
		}
		text, err = readRetainedText(ctx, req.DocumentId)
		if err != nil {
			return nil, err
		}
	}

	keywords, err := rag.GetKeywordExtractor().Extract(ctx, text, &analyzer.Options{
		Mode:   analyzer.Mode(req.Mode),
		Locale: req.Locale,
	})
	if err != nil {
		return nil, err
	}

	return &v1.DocumentsAnalyzeRes{
		DocumentId: req.DocumentId,
		Keywords:   keywords,
	}, nil
}

// readRetainedText 回读已入库文档的留存原文
func readRetainedText(ctx context.Context, documentId string) (string, error) {
	doc, err := dao.Documents.GetByID(ctx, documentId)
	if err != nil {
		return "", err
	}

	store := file_store.GetStorage()
	if store == nil || doc.StorageLocation == "" {
		return "", errors.Newf(errors.ErrOperationFailed,
			"original text not retained for document %s, analysis requires full_text", documentId)
	}

	content, err := store.ReadText(ctx, doc.StorageLocation)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
