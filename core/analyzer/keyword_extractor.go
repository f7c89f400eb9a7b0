package analyzer

import (
	"context"
	"strings"

	"github.com/AlexMendozaPrado/PocBanorte/core/chat"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"
)

// extractMaxTokens 关键词数组很短，限制生成长度即可
const extractMaxTokens = 1000

// Keyword 从文档中提取出的关键词及其分类
type Keyword struct {
	Phrase string `json:"phrase"`
	Kind   string `json:"kind"`
}

// KeywordExtractor 基于对话模型的文档关键词提取器。
// 温度固定为0，保证同一文本的提取结果可复现。
type KeywordExtractor struct {
	chatService chat.Service
}

// NewKeywordExtractor 创建关键词提取器
func NewKeywordExtractor(chatService chat.Service) (*KeywordExtractor, error) {
	if chatService == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "chat service is required")
	}
	return &KeywordExtractor{chatService: chatService}, nil
}

// Extract 从文本中提取关键词。
//
// 模型被要求只返回JSON数组，但生成内容不总是守约：响应中找不到
// 数组或数组解析失败时记告警并返回空结果，不报错。
func (e *KeywordExtractor) Extract(ctx context.Context, text string, opts *Options) ([]Keyword, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "text to analyze is empty")
	}
	if opts == nil {
		opts = &Options{}
	}
	opts.normalize()

	messages := []*schema.ChatMessage{
		schema.NewChatMessage(schema.System, buildSystemPrompt(opts)),
		schema.NewChatMessage(schema.User, buildUserPrompt(text)),
	}

	var temperature float32
	resp, err := e.chatService.Chat(ctx, messages, &chat.Options{
		Temperature: &temperature,
		MaxTokens:   extractMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw := extractJSONArray(resp.Message.Content)
	if raw == "" {
		g.Log().Warningf(ctx, "no JSON array found in keyword extraction response")
		return []Keyword{}, nil
	}

	var keywords []Keyword
	if err := sonic.Unmarshal([]byte(raw), &keywords); err != nil {
		g.Log().Warningf(ctx, "failed to parse keyword extraction response: %v", err)
		return []Keyword{}, nil
	}

	return sanitizeKeywords(keywords), nil
}

// extractJSONArray 截取响应中首个[...]片段，容忍数组前后的多余文本
func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	if start < 0 {
		return ""
	}
	end := strings.Index(content[start:], "]")
	if end < 0 {
		return ""
	}
	return content[start : start+end+1]
}

// sanitizeKeywords 去掉空词条，缺失分类归入other
func sanitizeKeywords(keywords []Keyword) []Keyword {
	out := make([]Keyword, 0, len(keywords))
	for _, kw := range keywords {
		kw.Phrase = strings.TrimSpace(kw.Phrase)
		if kw.Phrase == "" {
			continue
		}
		if strings.TrimSpace(kw.Kind) == "" {
			kw.Kind = "other"
		}
		out = append(out, kw)
	}
	return out
}
