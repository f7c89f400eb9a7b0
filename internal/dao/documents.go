package dao

import (
	"context"

	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	gormModel "github.com/AlexMendozaPrado/PocBanorte/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
	"gorm.io/gorm"
)

// DocumentsDAO 文档记录数据访问对象
type DocumentsDAO struct{}

var Documents = &DocumentsDAO{}

// Insert 新增文档记录
func (d *DocumentsDAO) Insert(ctx context.Context, doc *gormModel.StoredDocuments) error {
	if err := GetDB().WithContext(ctx).Create(doc).Error; err != nil {
		g.Log().Errorf(ctx, "Failed to insert document record, id=%s, err=%v", doc.ID, err)
		return errors.Wrap(errors.ErrDatabaseInsert, err, "failed to insert document record")
	}
	return nil
}

// GetByID 按ID查询文档记录，不存在时返回 ErrDocumentNotFound
func (d *DocumentsDAO) GetByID(ctx context.Context, id string) (*gormModel.StoredDocuments, error) {
	var doc gormModel.StoredDocuments
	err := GetDB().WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.Newf(errors.ErrDocumentNotFound, "document not found: %s", id)
		}
		g.Log().Errorf(ctx, "Failed to query document record, id=%s, err=%v", id, err)
		return nil, errors.Wrap(errors.ErrDatabaseQuery, err, "failed to query document record")
	}
	return &doc, nil
}

// List 分页查询文档记录，按创建时间倒序
func (d *DocumentsDAO) List(ctx context.Context, page, pageSize int) ([]gormModel.StoredDocuments, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var total int64
	if err := GetDB().WithContext(ctx).Model(&gormModel.StoredDocuments{}).Count(&total).Error; err != nil {
		g.Log().Errorf(ctx, "Failed to count document records: %v", err)
		return nil, 0, errors.Wrap(errors.ErrDatabaseQuery, err, "failed to count document records")
	}

	var docs []gormModel.StoredDocuments
	err := GetDB().WithContext(ctx).
		Order("create_time DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&docs).Error
	if err != nil {
		g.Log().Errorf(ctx, "Failed to list document records: %v", err)
		return nil, 0, errors.Wrap(errors.ErrDatabaseQuery, err, "failed to list document records")
	}

	return docs, total, nil
}

// UpdateChunkCount 重建索引后更新分片数量
func (d *DocumentsDAO) UpdateChunkCount(ctx context.Context, id string, chunkCount int) error {
	err := GetDB().WithContext(ctx).
		Model(&gormModel.StoredDocuments{}).
		Where("id = ?", id).
		Update("chunk_count", chunkCount).Error
	if err != nil {
		g.Log().Errorf(ctx, "Failed to update chunk count, id=%s, err=%v", id, err)
		return errors.Wrap(errors.ErrDatabaseQuery, err, "failed to update chunk count")
	}
	return nil
}

// Delete 删除文档记录，返回是否存在
func (d *DocumentsDAO) Delete(ctx context.Context, id string) (bool, error) {
	result := GetDB().WithContext(ctx).Where("id = ?", id).Delete(&gormModel.StoredDocuments{})
	if result.Error != nil {
		g.Log().Errorf(ctx, "Failed to delete document record, id=%s, err=%v", id, result.Error)
		return false, errors.Wrap(errors.ErrDatabaseDelete, result.Error, "failed to delete document record")
	}
	return result.RowsAffected > 0, nil
}
