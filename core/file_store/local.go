package file_store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/gogf/gf/v2/frame/g"
)

// LocalStorage 本地磁盘存储，原文保存为 baseDir/文档id/文件名
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage 创建本地存储并确保根目录存在
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "local storage baseDir is required")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, wrapStoreErr(err, "failed to create storage directory "+baseDir)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// SaveText 保存原始文本到本地磁盘
func (s *LocalStorage) SaveText(ctx context.Context, documentId, fileName string, content []byte) (string, error) {
	targetDir := filepath.Join(s.baseDir, documentId)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		g.Log().Errorf(ctx, "Failed to create directory %s: %v", targetDir, err)
		return "", wrapStoreErr(err, "failed to create directory "+targetDir)
	}

	finalPath := filepath.Join(targetDir, sanitizeFileName(fileName))
	if err := os.WriteFile(finalPath, content, 0644); err != nil {
		g.Log().Errorf(ctx, "Failed to write file %s: %v", finalPath, err)
		_ = os.Remove(finalPath)
		return "", wrapStoreErr(err, "failed to write file "+finalPath)
	}

	g.Log().Infof(ctx, "Document text saved to local storage: %s", finalPath)
	return finalPath, nil
}

// ReadText 按location回读原始文本
func (s *LocalStorage) ReadText(ctx context.Context, location string) ([]byte, error) {
	content, err := os.ReadFile(location)
	if err != nil {
		g.Log().Errorf(ctx, "Failed to read file %s: %v", location, err)
		return nil, wrapStoreErr(err, "failed to read file "+location)
	}
	return content, nil
}

// Delete 删除已留存的原始文本
func (s *LocalStorage) Delete(ctx context.Context, location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		g.Log().Errorf(ctx, "Failed to delete file %s: %v", location, err)
		return wrapStoreErr(err, "failed to delete file "+location)
	}
	return nil
}

// Type 返回存储类型标识
func (s *LocalStorage) Type() StorageType {
	return StorageTypeLocal
}

// sanitizeFileName 去除路径分隔符，防止越出存储目录
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "document.txt"
	}
	return name
}
