package prompt

import (
	"fmt"
	"math"
	"strings"

	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
)

// ragSystemPrompt 有据问答的系统提示词
// 约束模型只依据注入的上下文作答，信息不足时明确说明
const ragSystemPrompt = `Eres un asistente virtual inteligente especializado en analizar y responder preguntas sobre documentos.

Tu trabajo es:
1. Responder preguntas basándote ÚNICAMENTE en el contexto proporcionado
2. Si la información no está en el contexto, di claramente que no tienes esa información
3. Citar las secciones relevantes del contexto cuando sea apropiado
4. Ser preciso, claro y conciso en tus respuestas
5. Mantener un tono profesional y amigable

IMPORTANTE:
- NO inventes información que no esté en el contexto
- Si no estás seguro, dilo claramente
- Puedes hacer inferencias razonables basadas en el contexto proporcionado`

// simpleSystemPrompt 无检索场景的系统提示词
const simpleSystemPrompt = `Eres un asistente virtual inteligente y servicial. Responde de manera clara, precisa y amigable.`

// chunkDelimiter 上下文分片之间的分隔符
const chunkDelimiter = "\n\n---\n\n"

// BuildRAGMessages 构建有据问答的消息序列
//
// 固定顺序：系统提示词、过滤掉system角色的历史消息、携带上下文
// 的用户消息。relevantChunks为空时用户消息显式声明未找到相关文
// 档，而不是省略上下文框架。
func BuildRAGMessages(question string, relevantChunks []*schema.ScoredChunk, history []*schema.ChatMessage) []*schema.ChatMessage {
	messages := make([]*schema.ChatMessage, 0, len(history)+2)

	messages = append(messages, schema.NewChatMessage(schema.System, ragSystemPrompt))
	messages = append(messages, filterNonSystem(history)...)

	userMsg := schema.NewChatMessage(schema.User, buildUserPromptWithContext(question, relevantChunks))
	userMsg.ContextDocuments = contextRefs(relevantChunks)
	messages = append(messages, userMsg)

	return messages
}

// BuildSimpleChatMessages 构建无检索上下文的消息序列
func BuildSimpleChatMessages(question string, history []*schema.ChatMessage) []*schema.ChatMessage {
	messages := make([]*schema.ChatMessage, 0, len(history)+2)

	messages = append(messages, schema.NewChatMessage(schema.System, simpleSystemPrompt))
	messages = append(messages, filterNonSystem(history)...)
	messages = append(messages, schema.NewChatMessage(schema.User, question))

	return messages
}

// buildUserPromptWithContext 将问题与检索到的上下文渲染为用户消息
func buildUserPromptWithContext(question string, relevantChunks []*schema.ScoredChunk) string {
	if len(relevantChunks) == 0 {
		return fmt.Sprintf(`Pregunta: %s

Contexto: No se encontraron documentos relevantes para responder esta pregunta.`, question)
	}

	sections := make([]string, 0, len(relevantChunks))
	for i, sc := range relevantChunks {
		sections = append(sections, fmt.Sprintf(`[Documento %d] (Relevancia: %d%%)
Título: %s
Contenido:
%s`, i+1, int(math.Round(sc.Similarity*100)), sc.Chunk.Title, sc.Chunk.Content))
	}

	return fmt.Sprintf(`Contexto relevante de los documentos:

%s

---

Pregunta del usuario: %s

Por favor, responde la pregunta basándote únicamente en el contexto proporcionado arriba.`,
		strings.Join(sections, chunkDelimiter), question)
}

// filterNonSystem 过滤历史中的system消息，避免与系统提示词重复
func filterNonSystem(history []*schema.ChatMessage) []*schema.ChatMessage {
	filtered := make([]*schema.ChatMessage, 0, len(history))
	for _, msg := range history {
		if msg == nil || msg.Role == schema.System {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}

// contextRefs 提取分片引用摘要（仅id/标题/相似度）
func contextRefs(relevantChunks []*schema.ScoredChunk) []schema.ContextDocumentRef {
	refs := make([]schema.ContextDocumentRef, 0, len(relevantChunks))
	for _, sc := range relevantChunks {
		refs = append(refs, schema.ContextDocumentRef{
			ID:         sc.Chunk.ID,
			Title:      sc.Chunk.Title,
			Similarity: sc.Similarity,
		})
	}
	return refs
}
