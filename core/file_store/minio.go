package file_store

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage S3兼容对象存储，原文保存为 bucket/documents/文档id/文件名
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// NewMinioStorage 创建对象存储客户端，bucket不存在时自动创建
func NewMinioStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, ssl bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: ssl,
	})
	if err != nil {
		return nil, wrapStoreErr(err, "failed to create minio client")
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to check if bucket exists")
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: ""}); err != nil {
			return nil, wrapStoreErr(err, "failed to create bucket")
		}
		g.Log().Infof(ctx, "Created bucket '%s'", bucketName)
	}

	return &MinioStorage{client: client, bucketName: bucketName}, nil
}

// SaveText 上传原始文本到对象存储
func (s *MinioStorage) SaveText(ctx context.Context, documentId, fileName string, content []byte) (string, error) {
	objectKey := path.Join("documents", documentId, sanitizeFileName(fileName))

	_, err := s.client.PutObject(ctx, s.bucketName, objectKey,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		g.Log().Errorf(ctx, "Failed to upload document text, bucket=%s, key=%s, err=%v", s.bucketName, objectKey, err)
		return "", wrapStoreErr(err, "failed to upload document text")
	}

	g.Log().Infof(ctx, "Document text uploaded: bucket=%s, key=%s", s.bucketName, objectKey)
	return objectKey, nil
}

// ReadText 按对象key回读原始文本
func (s *MinioStorage) ReadText(ctx context.Context, location string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, location, minio.GetObjectOptions{})
	if err != nil {
		g.Log().Errorf(ctx, "Failed to get object, bucket=%s, key=%s, err=%v", s.bucketName, location, err)
		return nil, wrapStoreErr(err, "failed to get object "+location)
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		g.Log().Errorf(ctx, "Failed to read object, bucket=%s, key=%s, err=%v", s.bucketName, location, err)
		return nil, wrapStoreErr(err, "failed to read object "+location)
	}
	return content, nil
}

// Delete 删除已留存的原始文本
func (s *MinioStorage) Delete(ctx context.Context, location string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, location, minio.RemoveObjectOptions{})
	if err != nil {
		g.Log().Errorf(ctx, "Failed to delete object, bucket=%s, key=%s, err=%v", s.bucketName, location, err)
		return wrapStoreErr(err, "failed to delete object "+location)
	}
	g.Log().Infof(ctx, "Deleted object '%s' from bucket '%s'", location, s.bucketName)
	return nil
}

// Type 返回存储类型标识
func (s *MinioStorage) Type() StorageType {
	return StorageTypeMinio
}
