package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogf/gf/v2/frame/g"
)

// ValidateConfiguration validates all required configuration items
func ValidateConfiguration(ctx context.Context) error {
	var missingConfigs []string
	var warnings []string

	// 验证向量库配置
	storeType := g.Cfg().MustGet(ctx, "vectorStore.type", "milvus").String()
	switch storeType {
	case "milvus":
		if g.Cfg().MustGet(ctx, "milvus.address", "").String() == "" {
			missingConfigs = append(missingConfigs, "milvus.address")
		}
	case "pgvector":
		dsn := g.Cfg().MustGet(ctx, "postgres.dsn", "").String()
		pgHost := g.Cfg().MustGet(ctx, "postgres.host", "").String()
		pgUser := g.Cfg().MustGet(ctx, "postgres.user", "").String()
		pgDatabase := g.Cfg().MustGet(ctx, "postgres.database", "").String()
		if dsn == "" && (pgHost == "" || pgUser == "" || pgDatabase == "") {
			missingConfigs = append(missingConfigs, "postgres.dsn (or postgres.host/user/database)")
		}
	default:
		missingConfigs = append(missingConfigs, fmt.Sprintf("vectorStore.type (unknown value %q)", storeType))
	}

	// 验证 Embedding 配置
	embeddingAPIKey := g.Cfg().MustGet(ctx, "embedding.apiKey", "").String()
	embeddingBaseURL := g.Cfg().MustGet(ctx, "embedding.baseURL", "").String()
	embeddingModel := g.Cfg().MustGet(ctx, "embedding.model", "").String()

	if embeddingAPIKey == "" {
		missingConfigs = append(missingConfigs, "embedding.apiKey")
	}
	if embeddingBaseURL == "" {
		missingConfigs = append(missingConfigs, "embedding.baseURL")
	}
	if embeddingModel == "" {
		missingConfigs = append(missingConfigs, "embedding.model")
	}

	// 验证 Chat 配置
	chatAPIKey := g.Cfg().MustGet(ctx, "chat.apiKey", "").String()
	chatBaseURL := g.Cfg().MustGet(ctx, "chat.baseURL", "").String()
	chatModel := g.Cfg().MustGet(ctx, "chat.model", "").String()

	if chatAPIKey == "" {
		warnings = append(warnings, "chat.apiKey is not set")
	}
	if chatBaseURL == "" {
		warnings = append(warnings, "chat.baseURL is not set")
	}
	if chatModel == "" {
		warnings = append(warnings, "chat.model is not set")
	}

	// 验证数据库配置
	dbHost := g.Cfg().MustGet(ctx, "database.default.host", "").String()
	dbPort := g.Cfg().MustGet(ctx, "database.default.port", "").String()
	dbUser := g.Cfg().MustGet(ctx, "database.default.user", "").String()
	dbName := g.Cfg().MustGet(ctx, "database.default.name", "").String()

	if dbHost == "" {
		missingConfigs = append(missingConfigs, "database.default.host")
	}
	if dbPort == "" {
		missingConfigs = append(missingConfigs, "database.default.port")
	}
	if dbUser == "" {
		missingConfigs = append(missingConfigs, "database.default.user")
	}
	if dbName == "" {
		missingConfigs = append(missingConfigs, "database.default.name")
	}

	// 输出警告信息
	if len(warnings) > 0 {
		g.Log().Warningf(ctx, "Configuration warnings:\n- %s", strings.Join(warnings, "\n- "))
	}

	// 检查是否有缺失的必需配置
	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configuration items:\n- %s\n\nPlease check your config.yaml file and ensure all required settings are properly configured", strings.Join(missingConfigs, "\n- "))
	}

	// 输出成功信息
	g.Log().Info(ctx, "✓ All required configuration items are present")

	return nil
}

// EmbeddingConfig embedding服务连接配置
type EmbeddingConfig struct {
	APIKey       string // API密钥
	BaseURL      string // API基础URL
	Model        string // Embedding模型名称
	EmbeddingDim int    // 向量维度
}

// ChatConfig 对话模型连接配置
type ChatConfig struct {
	APIKey      string  // API密钥
	BaseURL     string  // API基础URL
	Model       string  // 对话模型名称
	Temperature float32 // 采样温度
}

// ChunkerConfig 切分参数
type ChunkerConfig struct {
	ChunkSize    int // 单块最大字符数（默认 1000）
	ChunkOverlap int // 相邻块重叠字符数（默认 200）
}

// RetrieverConfig 检索策略参数
type RetrieverConfig struct {
	MaxChunks     int     // 默认返回结果数量（默认 5）
	MinSimilarity float64 // 默认相似度阈值（默认 0.7）
}

// EmbeddingConfig 实现 embedding config 接口
func (c *EmbeddingConfig) GetAPIKey() string         { return c.APIKey }
func (c *EmbeddingConfig) GetBaseURL() string        { return c.BaseURL }
func (c *EmbeddingConfig) GetEmbeddingModel() string { return c.Model }
func (c *EmbeddingConfig) GetEmbeddingDim() int      { return c.EmbeddingDim }

// LoadEmbeddingConfig 从配置文件加载embedding配置
func LoadEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	return &EmbeddingConfig{
		APIKey:       g.Cfg().MustGet(ctx, "embedding.apiKey", "").String(),
		BaseURL:      g.Cfg().MustGet(ctx, "embedding.baseURL", "").String(),
		Model:        g.Cfg().MustGet(ctx, "embedding.model", "").String(),
		EmbeddingDim: g.Cfg().MustGet(ctx, "embedding.dimensions", 1536).Int(),
	}
}

// LoadChatConfig 从配置文件加载对话模型配置
func LoadChatConfig(ctx context.Context) *ChatConfig {
	return &ChatConfig{
		APIKey:      g.Cfg().MustGet(ctx, "chat.apiKey", "").String(),
		BaseURL:     g.Cfg().MustGet(ctx, "chat.baseURL", "").String(),
		Model:       g.Cfg().MustGet(ctx, "chat.model", "").String(),
		Temperature: float32(g.Cfg().MustGet(ctx, "chat.temperature", 0.2).Float64()),
	}
}

// LoadChunkerConfig 从配置文件加载切分参数
func LoadChunkerConfig(ctx context.Context) *ChunkerConfig {
	return &ChunkerConfig{
		ChunkSize:    g.Cfg().MustGet(ctx, "chunker.chunkSize", 1000).Int(),
		ChunkOverlap: g.Cfg().MustGet(ctx, "chunker.chunkOverlap", 200).Int(),
	}
}

// LoadRetrieverConfig 从配置文件加载检索参数
func LoadRetrieverConfig(ctx context.Context) *RetrieverConfig {
	return &RetrieverConfig{
		MaxChunks:     g.Cfg().MustGet(ctx, "rag.maxChunks", 5).Int(),
		MinSimilarity: g.Cfg().MustGet(ctx, "rag.minSimilarity", 0.7).Float64(),
	}
}
