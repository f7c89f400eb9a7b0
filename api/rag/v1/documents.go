package v1

import (
	"github.com/AlexMendozaPrado/PocBanorte/core/indexer"
	gormModel "github.com/AlexMendozaPrado/PocBanorte/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
)

type DocumentsStoreReq struct {
	g.Meta   `path:"/v1/documents" method:"post" tags:"documents" summary:"Store a document into the knowledge base"`
	File     *ghttp.UploadFile `p:"file" type:"file" dc:"纯文本文件，与full_text二选一"`
	FullText string            `p:"full_text" dc:"文档全文，与file二选一"`
	Title    string            `p:"title" dc:"文档标题，为空时从文件名推导"`
	Metadata string            `p:"metadata" dc:"JSON对象，附加到每个分片的元数据"`
}

type DocumentsStoreRes struct {
	g.Meta           `mime:"application/json"`
	ParentDocumentID string        `json:"parent_document_id"`
	ChunkIDs         []string      `json:"chunk_ids"`
	Stats            indexer.Stats `json:"stats"`
}

type DocumentsListReq struct {
	g.Meta `path:"/v1/documents" method:"get" tags:"documents" summary:"List stored documents"`
	Page   int `p:"page" dc:"page" v:"min:1" d:"1"`
	Size   int `p:"size" dc:"size" v:"min:1|max:100" d:"20"`
}

type DocumentsListRes struct {
	g.Meta `mime:"application/json"`
	Data   []gormModel.StoredDocuments `json:"data"`
	Total  int64                       `json:"total"`
	Page   int                         `json:"page"`
	Size   int                         `json:"size"`
}

type DocumentsDeleteReq struct {
	g.Meta     `path:"/v1/documents" method:"delete" tags:"documents" summary:"Delete a document and its chunks"`
	DocumentId string `p:"document_id" dc:"document_id" v:"required"`
}

type DocumentsDeleteRes struct {
	g.Meta        `mime:"application/json"`
	ChunksDeleted int64 `json:"chunks_deleted"`
}

type DocumentsReindexReq struct {
	g.Meta     `path:"/v1/documents/reindex" method:"post" tags:"documents" summary:"Rebuild chunks and embeddings from the retained original text"`
	DocumentId string `p:"document_id" dc:"document_id" v:"required"`
}

type DocumentsReindexRes struct {
	g.Meta           `mime:"application/json"`
	ParentDocumentID string        `json:"parent_document_id"`
	ChunkIDs         []string      `json:"chunk_ids"`
	Stats            indexer.Stats `json:"stats"`
}
