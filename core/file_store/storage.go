package file_store

import (
	"context"

	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gctx"
)

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeMinio StorageType = "minio"
)

// Storage 原始文档文本的留存层。
// 入库时写入原文，重建索引时按location回读，无需重新上传。
type Storage interface {
	// SaveText 保存原始文本，返回可用于回读的location
	SaveText(ctx context.Context, documentId, fileName string, content []byte) (location string, err error)
	// ReadText 按location回读原始文本
	ReadText(ctx context.Context, location string) ([]byte, error)
	// Delete 删除已留存的原始文本
	Delete(ctx context.Context, location string) error
	// Type 返回存储类型标识
	Type() StorageType
}

var defaultStorage Storage

// InitStorage 按配置初始化存储系统
func InitStorage() error {
	ctx := gctx.New()

	storageTypeStr := g.Cfg().MustGet(ctx, "storage.type", "local").String()

	switch StorageType(storageTypeStr) {
	case StorageTypeMinio:
		endpoint := g.Cfg().MustGet(ctx, "storage.minio.endpoint", "").String()
		if endpoint == "" {
			// minio未配置时退回本地存储
			g.Log().Infof(ctx, "Minio storage not configured, falling back to local storage")
			break
		}
		accessKey := g.Cfg().MustGet(ctx, "storage.minio.accessKey").String()
		secretKey := g.Cfg().MustGet(ctx, "storage.minio.secretKey").String()
		bucketName := g.Cfg().MustGet(ctx, "storage.minio.bucketName", "documents").String()
		ssl := g.Cfg().MustGet(ctx, "storage.minio.ssl", false).Bool()

		store, err := NewMinioStorage(ctx, endpoint, accessKey, secretKey, bucketName, ssl)
		if err != nil {
			return err
		}
		defaultStorage = store
		g.Log().Infof(ctx, "Using minio storage, endpoint=%s, bucket=%s", endpoint, bucketName)
		return nil
	case StorageTypeLocal:
	default:
		g.Log().Infof(ctx, "Unknown storage type %q, using local storage", storageTypeStr)
	}

	baseDir := g.Cfg().MustGet(ctx, "storage.local.baseDir", "upload/documents").String()
	store, err := NewLocalStorage(baseDir)
	if err != nil {
		return err
	}
	defaultStorage = store
	g.Log().Infof(ctx, "Using local storage, baseDir=%s", baseDir)
	return nil
}

// GetStorage 获取已初始化的存储实例
func GetStorage() Storage {
	if defaultStorage == nil {
		g.Log().Fatal(gctx.New(), "file storage not initialized")
	}
	return defaultStorage
}

// SetStorage 注入存储实例，测试用
func SetStorage(s Storage) {
	defaultStorage = s
}

func wrapStoreErr(err error, message string) error {
	return errors.Wrap(errors.ErrFileStoreFailed, err, message)
}
