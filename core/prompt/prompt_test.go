package prompt

import (
	"strings"
	"testing"

	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRAGMessagesWithContext(t *testing.T) {
	chunks := []*schema.ScoredChunk{
		{Chunk: &schema.DocumentChunk{ID: "c1", Title: "Informe Anual", Content: "Los ingresos crecieron 12%."}, Similarity: 0.92},
		{Chunk: &schema.DocumentChunk{ID: "c2", Title: "Informe Anual", Content: "La cartera de crédito se expandió."}, Similarity: 0.85},
	}

	messages := BuildRAGMessages("¿Cómo crecieron los ingresos?", chunks, nil)
	require.Len(t, messages, 2)

	assert.Equal(t, schema.System, messages[0].Role)
	assert.Contains(t, messages[0].Content, "ÚNICAMENTE en el contexto proporcionado")

	user := messages[1]
	assert.Equal(t, schema.User, user.Role)
	assert.Contains(t, user.Content, "[Documento 1] (Relevancia: 92%)")
	assert.Contains(t, user.Content, "[Documento 2] (Relevancia: 85%)")
	assert.Contains(t, user.Content, "Título: Informe Anual")
	assert.Contains(t, user.Content, "Los ingresos crecieron 12%.")
	assert.Contains(t, user.Content, "Pregunta del usuario: ¿Cómo crecieron los ingresos?")
	// 分片之间使用固定分隔符
	assert.Equal(t, 1, strings.Count(user.Content, "La cartera"))
	assert.Contains(t, user.Content, "\n\n---\n\n")

	require.Len(t, user.ContextDocuments, 2)
	assert.Equal(t, "c1", user.ContextDocuments[0].ID)
	assert.Equal(t, 0.92, user.ContextDocuments[0].Similarity)
}

func TestBuildRAGMessagesEmptyContext(t *testing.T) {
	messages := BuildRAGMessages("¿Qué dice el documento?", nil, nil)
	require.Len(t, messages, 2)

	user := messages[1]
	assert.Contains(t, user.Content, "No se encontraron documentos relevantes")
	assert.Empty(t, user.ContextDocuments)
}

func TestBuildRAGMessagesFiltersSystemHistory(t *testing.T) {
	history := []*schema.ChatMessage{
		schema.NewChatMessage(schema.System, "instrucción duplicada"),
		schema.NewChatMessage(schema.User, "hola"),
		schema.NewChatMessage(schema.Assistant, "¿en qué puedo ayudarte?"),
	}

	messages := BuildRAGMessages("pregunta", nil, history)
	require.Len(t, messages, 4)
	assert.Equal(t, schema.System, messages[0].Role)
	assert.Equal(t, "hola", messages[1].Content)
	assert.Equal(t, schema.Assistant, messages[2].Role)
	assert.Equal(t, schema.User, messages[3].Role)

	// 历史里的system消息被过滤，整个序列只保留首条系统提示词
	for _, msg := range messages[1:] {
		assert.NotEqual(t, schema.System, msg.Role)
	}
}

func TestBuildSimpleChatMessages(t *testing.T) {
	history := []*schema.ChatMessage{
		schema.NewChatMessage(schema.User, "hola"),
	}
	messages := BuildSimpleChatMessages("¿qué hora es?", history)
	require.Len(t, messages, 3)
	assert.Equal(t, schema.System, messages[0].Role)
	assert.NotContains(t, messages[0].Content, "contexto")
	assert.Equal(t, "¿qué hora es?", messages[2].Content)
}
