package retriever

import (
	"testing"

	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredChunk(id, content string, index int, similarity float64) *schema.ScoredChunk {
	return &schema.ScoredChunk{
		Chunk:      &schema.DocumentChunk{ID: id, Content: content, ChunkIndex: index},
		Similarity: similarity,
	}
}

func TestNewChatContextDefaults(t *testing.T) {
	c := NewChatContext(nil)
	assert.Equal(t, DefaultMaxMessages, c.Config.MaxMessages)
	assert.Equal(t, DefaultMaxChunks, c.Config.MaxChunks)
	assert.Equal(t, DefaultMinSimilarity, c.Config.MinSimilarity)

	c = NewChatContext(&ContextConfig{MaxChunks: 3, MinSimilarity: 0.5})
	assert.Equal(t, 3, c.Config.MaxChunks)
	assert.Equal(t, 0.5, c.Config.MinSimilarity)
	assert.Equal(t, DefaultMaxMessages, c.Config.MaxMessages)
}

func TestAssembleContextFilterSortTruncate(t *testing.T) {
	c := NewChatContext(&ContextConfig{MaxChunks: 2, MinSimilarity: 0.7})
	c.AssembleContext([]*schema.ScoredChunk{
		scoredChunk("a", "texto a", 0, 0.72),
		scoredChunk("b", "texto b", 1, 0.95),
		scoredChunk("c", "texto c", 2, 0.40), // 低于阈值
		scoredChunk("d", "texto d", 3, 0.80),
	})

	require.Len(t, c.RelevantChunks, 2)
	assert.Equal(t, "b", c.RelevantChunks[0].Chunk.ID)
	assert.Equal(t, "d", c.RelevantChunks[1].Chunk.ID)
	for _, sc := range c.RelevantChunks {
		assert.GreaterOrEqual(t, sc.Similarity, 0.7)
	}
}

func TestAssembleContextEmptyInput(t *testing.T) {
	c := NewChatContext(nil)
	c.AssembleContext(nil)
	assert.Empty(t, c.RelevantChunks)
	assert.False(t, c.HasSufficientContext())
}

func TestGetMostRelevantChunks(t *testing.T) {
	c := NewChatContext(&ContextConfig{MaxChunks: 5, MinSimilarity: 0.1})
	c.AssembleContext([]*schema.ScoredChunk{
		scoredChunk("a", "a", 0, 0.5),
		scoredChunk("b", "b", 1, 0.9),
		scoredChunk("c", "c", 2, 0.7),
	})

	top := c.GetMostRelevantChunks(2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Chunk.ID)
	assert.Equal(t, "c", top[1].Chunk.ID)

	// limit<=0 回落到MaxChunks
	assert.Len(t, c.GetMostRelevantChunks(0), 3)
}

func TestDeduplicateChunks(t *testing.T) {
	// 前100个归一化字符相同的分片只保留先出现的
	shared := "El  Banco   ofrece productos de ahorro e inversión para clientes personales y empresariales en México desde hace décadas"
	chunks := []*schema.ScoredChunk{
		scoredChunk("a", shared+" con beneficios adicionales", 0, 0.9),
		scoredChunk("b", "EL BANCO OFRECE productos de ahorro e inversión para clientes personales y empresariales en México desde hace décadas y otra cola distinta", 1, 0.8),
		scoredChunk("c", "Contenido completamente distinto", 2, 0.7),
	}

	out := DeduplicateChunks(chunks)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Chunk.ID)
	assert.Equal(t, "c", out[1].Chunk.ID)
}

func TestGetContextStats(t *testing.T) {
	c := NewChatContext(nil)

	// 空上下文全零，不报错
	stats := c.GetContextStats()
	assert.Equal(t, ContextStats{}, stats)

	c.AssembleContext([]*schema.ScoredChunk{
		scoredChunk("a", "hola", 0, 0.9),
		scoredChunk("b", "mundo!", 1, 0.7),
	})
	stats = c.GetContextStats()
	assert.Equal(t, 2, stats.ChunkCount)
	assert.InDelta(t, 0.8, stats.AverageSimilarity, 1e-9)
	assert.Equal(t, 0.7, stats.MinSimilarity)
	assert.Equal(t, 0.9, stats.MaxSimilarity)
	assert.Equal(t, 10, stats.TotalContentLength)
}

func TestContextDocuments(t *testing.T) {
	c := NewChatContext(nil)
	c.RelevantChunks = []*schema.ScoredChunk{
		{Chunk: &schema.DocumentChunk{ID: "c1", Title: "Informe Anual"}, Similarity: 0.88},
	}

	refs := c.ContextDocuments()
	require.Len(t, refs, 1)
	assert.Equal(t, schema.ContextDocumentRef{ID: "c1", Title: "Informe Anual", Similarity: 0.88}, refs[0])
}
