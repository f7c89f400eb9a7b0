package rag

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"strings"

	v1 "github.com/AlexMendozaPrado/PocBanorte/api/rag/v1"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/core/indexer"
	"github.com/AlexMendozaPrado/PocBanorte/internal/logic/rag"
)

// supportedMimeTypes 上传文件只接受纯文本类mime，
// 正文提取不在服务范围内
var supportedMimeTypes = map[string]bool{
	"text/plain":    true,
	"text/markdown": true,
	"text/csv":      true,
}

func (c *ControllerV1) DocumentsStore(ctx context.Context, req *v1.DocumentsStoreReq) (res *v1.DocumentsStoreRes, err error) {
	storeInput := &indexer.StoreDocumentInput{
		Title:   req.Title,
		Content: req.FullText,
	}

	if req.File != nil {
		contentType := req.File.Header.Get("Content-Type")
		if err := validateMimeType(contentType); err != nil {
			return nil, err
		}

		f, err := req.File.Open()
		if err != nil {
			return nil, errors.Wrap(errors.ErrFileStoreFailed, err, "failed to open uploaded file")
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrFileStoreFailed, err, "failed to read uploaded file")
		}

		storeInput.Content = string(content)
		storeInput.FileName = req.File.Filename
		storeInput.FileSize = req.File.Size
		storeInput.MimeType = contentType
	}

	if strings.TrimSpace(storeInput.Content) == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "either file or full_text is required")
	}

	if req.Metadata != "" {
		var metadata map[string]any
		if err := json.Unmarshal([]byte(req.Metadata), &metadata); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidParameter, err, "metadata must be a JSON object")
		}
		storeInput.Metadata = metadata
	}

	result, err := rag.GetIndexer().StoreDocument(ctx, storeInput)
	if err != nil {
		return nil, err
	}

	return &v1.DocumentsStoreRes{
		ParentDocumentID: result.ParentDocumentID,
		ChunkIDs:         result.ChunkIDs,
		Stats:            result.Stats,
	}, nil
}

// validateMimeType 拒绝非纯文本类型的上传
func validateMimeType(contentType string) error {
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return errors.Newf(errors.ErrUnsupportedFormat, "invalid content type: %s", contentType)
	}
	if !supportedMimeTypes[mediaType] {
		return errors.Newf(errors.ErrUnsupportedFormat, "unsupported document format: %s", mediaType)
	}
	return nil
}
