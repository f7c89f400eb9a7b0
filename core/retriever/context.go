package retriever

import (
	"sort"
	"strings"

	"github.com/AlexMendozaPrado/PocBanorte/core/common"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
)

// 上下文组装默认参数
const (
	DefaultMaxMessages   = 10
	DefaultMaxChunks     = 5
	DefaultMinSimilarity = 0.7

	// dedupPrefixLen 去重指纹取归一化后内容的前N个字符
	dedupPrefixLen = 100
)

// ContextConfig 上下文组装配置
type ContextConfig struct {
	MaxMessages   int     // 保留的历史消息上限
	MaxChunks     int     // 注入上下文的分片上限
	MinSimilarity float64 // 相似度下限
}

// ChatContext 单次对话请求的临时上下文聚合
// 每轮对话重新构建，不做持久化
type ChatContext struct {
	Messages       []*schema.ChatMessage
	RelevantChunks []*schema.ScoredChunk
	Config         ContextConfig
}

// NewChatContext 创建上下文，缺省参数补默认值
func NewChatContext(cfg *ContextConfig) *ChatContext {
	normalized := ContextConfig{
		MaxMessages:   DefaultMaxMessages,
		MaxChunks:     DefaultMaxChunks,
		MinSimilarity: DefaultMinSimilarity,
	}
	if cfg != nil {
		if cfg.MaxMessages > 0 {
			normalized.MaxMessages = cfg.MaxMessages
		}
		if cfg.MaxChunks > 0 {
			normalized.MaxChunks = cfg.MaxChunks
		}
		if cfg.MinSimilarity > 0 {
			normalized.MinSimilarity = cfg.MinSimilarity
		}
	}
	return &ChatContext{
		Messages:       []*schema.ChatMessage{},
		RelevantChunks: []*schema.ScoredChunk{},
		Config:         normalized,
	}
}

// AssembleContext 将检索结果装配进上下文
//
// 依次执行：相似度阈值过滤、按相似度降序排序、截断到MaxChunks。
// 装配后 RelevantChunks 满足不变量：降序、长度<=MaxChunks、
// 每项 similarity >= MinSimilarity。空输入不报错。
func (c *ChatContext) AssembleContext(searchResults []*schema.ScoredChunk) *ChatContext {
	filtered := make([]*schema.ScoredChunk, 0, len(searchResults))
	for _, sc := range searchResults {
		if sc == nil || sc.Chunk == nil {
			continue
		}
		if sc.Similarity < c.Config.MinSimilarity {
			continue
		}
		filtered = append(filtered, sc)
	}

	sortBySimilarity(filtered)

	if len(filtered) > c.Config.MaxChunks {
		filtered = filtered[:c.Config.MaxChunks]
	}

	c.RelevantChunks = filtered
	return c
}

// GetMostRelevantChunks 按相似度降序返回前limit个分片
// limit<=0 时使用配置里的MaxChunks
func (c *ChatContext) GetMostRelevantChunks(limit int) []*schema.ScoredChunk {
	if limit <= 0 {
		limit = c.Config.MaxChunks
	}

	sorted := make([]*schema.ScoredChunk, len(c.RelevantChunks))
	copy(sorted, c.RelevantChunks)
	sortBySimilarity(sorted)

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// DeduplicateChunks 按内容前缀指纹折叠近重复分片
//
// 重叠切分可能导致同一段落被检索到两次，取归一化后内容的
// 前100个字符作为去重键，保留相似度排序中先出现的那个。
func DeduplicateChunks(chunks []*schema.ScoredChunk) []*schema.ScoredChunk {
	return common.RemoveDuplicates(chunks, func(sc *schema.ScoredChunk) string {
		if sc == nil || sc.Chunk == nil {
			return ""
		}
		return contentFingerprint(sc.Chunk.Content)
	})
}

// ContextStats 上下文统计信息
type ContextStats struct {
	ChunkCount         int     `json:"chunk_count"`
	AverageSimilarity  float64 `json:"average_similarity"`
	MinSimilarity      float64 `json:"min_similarity"`
	MaxSimilarity      float64 `json:"max_similarity"`
	TotalContentLength int     `json:"total_content_length"`
}

// GetContextStats 返回上下文统计，空上下文全部置零
func (c *ChatContext) GetContextStats() ContextStats {
	stats := ContextStats{}
	if len(c.RelevantChunks) == 0 {
		return stats
	}

	stats.ChunkCount = len(c.RelevantChunks)
	stats.MinSimilarity = c.RelevantChunks[0].Similarity
	stats.MaxSimilarity = c.RelevantChunks[0].Similarity

	var sum float64
	for _, sc := range c.RelevantChunks {
		sum += sc.Similarity
		if sc.Similarity < stats.MinSimilarity {
			stats.MinSimilarity = sc.Similarity
		}
		if sc.Similarity > stats.MaxSimilarity {
			stats.MaxSimilarity = sc.Similarity
		}
		stats.TotalContentLength += len([]rune(sc.Chunk.Content))
	}
	stats.AverageSimilarity = sum / float64(stats.ChunkCount)

	return stats
}

// HasSufficientContext 是否有足够上下文支撑有据回答
// Prompt构建以此决定使用有据模板还是"未找到相关文档"模板
func (c *ChatContext) HasSufficientContext() bool {
	return len(c.RelevantChunks) > 0
}

// ContextDocuments 返回上下文引用的文档摘要（仅id/标题/相似度）
func (c *ChatContext) ContextDocuments() []schema.ContextDocumentRef {
	refs := make([]schema.ContextDocumentRef, 0, len(c.RelevantChunks))
	for _, sc := range c.RelevantChunks {
		refs = append(refs, schema.ContextDocumentRef{
			ID:         sc.Chunk.ID,
			Title:      sc.Chunk.Title,
			Similarity: sc.Similarity,
		})
	}
	return refs
}

// sortBySimilarity 按相似度降序，多相同分数按chunk_index和ID兜底
func sortBySimilarity(chunks []*schema.ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Similarity != chunks[j].Similarity {
			return chunks[i].Similarity > chunks[j].Similarity
		}
		if chunks[i].Chunk.ChunkIndex != chunks[j].Chunk.ChunkIndex {
			return chunks[i].Chunk.ChunkIndex < chunks[j].Chunk.ChunkIndex
		}
		return chunks[i].Chunk.ID < chunks[j].Chunk.ID
	})
}

// contentFingerprint 归一化内容并取前缀作为去重键
// 归一化：小写化、压缩连续空白为单个空格
func contentFingerprint(content string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	runes := []rune(normalized)
	if len(runes) > dedupPrefixLen {
		runes = runes[:dedupPrefixLen]
	}
	return string(runes)
}
