package rag

import (
	"github.com/AlexMendozaPrado/PocBanorte/core/analyzer"
	"github.com/AlexMendozaPrado/PocBanorte/core/chat"
	"github.com/AlexMendozaPrado/PocBanorte/core/config"
	"github.com/AlexMendozaPrado/PocBanorte/core/embedding"
	"github.com/AlexMendozaPrado/PocBanorte/core/file_store"
	"github.com/AlexMendozaPrado/PocBanorte/core/indexer"
	"github.com/AlexMendozaPrado/PocBanorte/core/vector_store"
	"github.com/AlexMendozaPrado/PocBanorte/internal/dao"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gctx"
)

var (
	docIndexSvr *indexer.DocumentIndexer
	ragChatSvr  *chat.RAGChat
	keywordSvr  *analyzer.KeywordExtractor
	vectorStore vector_store.VectorStore
)

// InitComponents 组装RAG管线：embedding生成器、向量库、对话服务、
// 关键词提取、入库服务。任一组件初始化失败即终止启动。
func InitComponents() {
	ctx := gctx.New()

	store, err := vector_store.GetVectorStore()
	if err != nil {
		g.Log().Fatalf(ctx, "Failed to get vector store: %v", err)
		return
	}
	if err = store.EnsureSchema(ctx); err != nil {
		g.Log().Fatalf(ctx, "Failed to ensure vector store schema: %v", err)
		return
	}
	vectorStore = store

	embeddingConf := config.LoadEmbeddingConfig(ctx)
	generator, err := embedding.NewGenerator(embeddingConf)
	if err != nil {
		g.Log().Fatalf(ctx, "Failed to create embedding generator: %v", err)
		return
	}

	chatService, err := chat.NewChatService(config.LoadChatConfig(ctx))
	if err != nil {
		g.Log().Fatalf(ctx, "Failed to create chat service: %v", err)
		return
	}

	keywordSvr, err = analyzer.NewKeywordExtractor(chatService)
	if err != nil {
		g.Log().Fatalf(ctx, "Failed to create keyword extractor: %v", err)
		return
	}

	retrieverConf := config.LoadRetrieverConfig(ctx)
	ragChatSvr = chat.NewRAGChat(generator, store, chatService, retrieverConf.MaxChunks, retrieverConf.MinSimilarity)

	docIndexSvr, err = indexer.NewDocumentIndexer(
		config.LoadChunkerConfig(ctx),
		embeddingConf,
		generator,
		store,
		dao.Documents,
		file_store.GetStorage(),
	)
	if err != nil {
		g.Log().Fatalf(ctx, "Failed to create document indexer: %v", err)
		return
	}

	g.Log().Info(ctx, "RAG components initialized successfully")
}

// GetIndexer 获取文档入库服务
func GetIndexer() *indexer.DocumentIndexer {
	return docIndexSvr
}

// GetRAGChat 获取问答服务
func GetRAGChat() *chat.RAGChat {
	return ragChatSvr
}

// GetKeywordExtractor 获取关键词提取服务
func GetKeywordExtractor() *analyzer.KeywordExtractor {
	return keywordSvr
}

// GetVectorStore 获取向量库实例
func GetVectorStore() vector_store.VectorStore {
	return vectorStore
}
