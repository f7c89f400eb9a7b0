package analyzer

import (
	"context"
	"testing"

	"github.com/AlexMendozaPrado/PocBanorte/core/chat"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatService struct {
	content      string
	err          error
	lastMessages []*schema.ChatMessage
	lastOpts     *chat.Options
}

func (f *fakeChatService) Chat(ctx context.Context, messages []*schema.ChatMessage, opts *chat.Options) (*chat.Response, error) {
	f.lastMessages = messages
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &chat.Response{
		Message: schema.NewChatMessage(schema.Assistant, f.content),
		Usage:   chat.Usage{TotalTokens: 50},
	}, nil
}

func (f *fakeChatService) ChatStream(ctx context.Context, messages []*schema.ChatMessage, opts *chat.Options) (*schema.StreamReader[string], error) {
	reader, writer := schema.Pipe[string](1)
	writer.Close()
	return reader, nil
}

func TestNewKeywordExtractorRequiresChatService(t *testing.T) {
	_, err := NewKeywordExtractor(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))
}

func TestExtractParsesKeywordArray(t *testing.T) {
	svc := &fakeChatService{
		content: `[{"phrase": "Banco de México", "kind": "organization"}, {"phrase": "15 de marzo de 2024", "kind": "date"}]`,
	}
	extractor, err := NewKeywordExtractor(svc)
	require.NoError(t, err)

	keywords, err := extractor.Extract(context.Background(), "El Banco de México publicó el informe el 15 de marzo de 2024.", nil)
	require.NoError(t, err)
	require.Len(t, keywords, 2)
	assert.Equal(t, Keyword{Phrase: "Banco de México", Kind: "organization"}, keywords[0])
	assert.Equal(t, Keyword{Phrase: "15 de marzo de 2024", Kind: "date"}, keywords[1])

	// 温度固定为0，限制生成长度
	require.NotNil(t, svc.lastOpts)
	require.NotNil(t, svc.lastOpts.Temperature)
	assert.Equal(t, float32(0), *svc.lastOpts.Temperature)
	assert.Equal(t, extractMaxTokens, svc.lastOpts.MaxTokens)
}

func TestExtractToleratesSurroundingText(t *testing.T) {
	svc := &fakeChatService{
		content: "Aquí están las palabras clave:\n[{\"phrase\": \"contrato\", \"kind\": \"topic\"}]\nEspero que sea útil.",
	}
	extractor, err := NewKeywordExtractor(svc)
	require.NoError(t, err)

	keywords, err := extractor.Extract(context.Background(), "texto del contrato", nil)
	require.NoError(t, err)
	require.Len(t, keywords, 1)
	assert.Equal(t, "contrato", keywords[0].Phrase)
}

func TestExtractEmptyWhenNoArrayInResponse(t *testing.T) {
	svc := &fakeChatService{content: "No puedo extraer palabras clave de este texto."}
	extractor, err := NewKeywordExtractor(svc)
	require.NoError(t, err)

	keywords, err := extractor.Extract(context.Background(), "algún texto", nil)
	require.NoError(t, err)
	assert.Empty(t, keywords)
}

func TestExtractEmptyWhenArrayMalformed(t *testing.T) {
	svc := &fakeChatService{content: `[{"phrase": "roto"`}
	extractor, err := NewKeywordExtractor(svc)
	require.NoError(t, err)

	keywords, err := extractor.Extract(context.Background(), "algún texto", nil)
	require.NoError(t, err)
	assert.Empty(t, keywords)
}

func TestExtractRejectsBlankText(t *testing.T) {
	extractor, err := NewKeywordExtractor(&fakeChatService{})
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), "   \n\t  ", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))
}

func TestExtractPropagatesChatError(t *testing.T) {
	svc := &fakeChatService{err: errors.New(errors.ErrChatFailed, "upstream unavailable")}
	extractor, err := NewKeywordExtractor(svc)
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), "algún texto", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrChatFailed))
}

func TestExtractSanitizesEntries(t *testing.T) {
	svc := &fakeChatService{
		content: `[{"phrase": "  demanda  ", "kind": ""}, {"phrase": "   ", "kind": "topic"}, {"phrase": "juez", "kind": "person"}]`,
	}
	extractor, err := NewKeywordExtractor(svc)
	require.NoError(t, err)

	keywords, err := extractor.Extract(context.Background(), "texto legal", nil)
	require.NoError(t, err)
	require.Len(t, keywords, 2)
	assert.Equal(t, Keyword{Phrase: "demanda", Kind: "other"}, keywords[0])
	assert.Equal(t, Keyword{Phrase: "juez", Kind: "person"}, keywords[1])
}

func TestExtractModeShapesSystemPrompt(t *testing.T) {
	svc := &fakeChatService{content: `[]`}
	extractor, err := NewKeywordExtractor(svc)
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), "texto legal", &Options{Mode: ModeLegal})
	require.NoError(t, err)

	require.Len(t, svc.lastMessages, 2)
	system := svc.lastMessages[0]
	assert.Equal(t, schema.System, system.Role)
	assert.Contains(t, system.Content, "términos legales")
	assert.Contains(t, system.Content, "entre 8 y 20 palabras clave")
	assert.Contains(t, system.Content, "Responde en español")

	user := svc.lastMessages[1]
	assert.Equal(t, schema.User, user.Role)
	assert.Contains(t, user.Content, "texto legal")
}

func TestOptionsNormalizeDefaults(t *testing.T) {
	opts := &Options{Mode: "unknown", Locale: "fr", MaxItems: 3}
	opts.normalize()

	assert.Equal(t, ModeGeneric, opts.Mode)
	assert.Equal(t, "es", opts.Locale)
	assert.Equal(t, defaultMinItems, opts.MinItems)
	assert.Equal(t, defaultMaxItems, opts.MaxItems)
	assert.Equal(t, defaultCategories, opts.Categories)
}
