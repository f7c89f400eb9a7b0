package v1

import (
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/gogf/gf/v2/frame/g"
)

type ChunksListReq struct {
	g.Meta     `path:"/v1/chunks" method:"get" tags:"chunks" summary:"List chunks of a document in chunk index order"`
	DocumentId string `p:"document_id" dc:"parent document id" v:"required"`
}

type ChunksListRes struct {
	g.Meta `mime:"application/json"`
	Data   []*schema.DocumentChunk `json:"data"`
	Total  int                     `json:"total"`
}
