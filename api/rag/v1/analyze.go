package v1

import (
	"github.com/AlexMendozaPrado/PocBanorte/core/analyzer"
	"github.com/gogf/gf/v2/frame/g"
)

type DocumentsAnalyzeReq struct {
	g.Meta     `path:"/v1/documents/analyze" method:"post" tags:"documents" summary:"Extract classified keywords from a document"`
	DocumentId string `p:"document_id" dc:"已入库文档id，与full_text二选一"`
	FullText   string `p:"full_text" dc:"待分析全文，与document_id二选一"`
	Mode       string `p:"mode" dc:"提取模式" v:"in:generic,legal,academic,finance" d:"generic"`
	Locale     string `p:"locale" dc:"输出语言" v:"in:es,en" d:"es"`
}

type DocumentsAnalyzeRes struct {
	g.Meta     `mime:"application/json"`
	DocumentId string             `json:"document_id,omitempty"`
	Keywords   []analyzer.Keyword `json:"keywords"`
}
