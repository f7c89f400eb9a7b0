package chat

import (
	"context"
	"io"

	"github.com/AlexMendozaPrado/PocBanorte/core/client"
	"github.com/AlexMendozaPrado/PocBanorte/core/config"
	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/sashabaranov/go-openai"
)

// streamBufferSize 流式输出的背压缓冲
const streamBufferSize = 64

// Options 单次生成的可覆盖参数，零值字段取服务默认值
type Options struct {
	Model       string
	Temperature *float32
	MaxTokens   int
}

// Usage token用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 非流式生成结果
type Response struct {
	Message *schema.ChatMessage `json:"message"`
	Usage   Usage               `json:"usage"`
}

// Service 对话生成端口
// 重试与退避策略属于实现方，编排层不做隐式重试
type Service interface {
	Chat(ctx context.Context, messages []*schema.ChatMessage, opts *Options) (*Response, error)
	ChatStream(ctx context.Context, messages []*schema.ChatMessage, opts *Options) (*schema.StreamReader[string], error)
}

// OpenAIChatService 基于OpenAI兼容接口的对话服务
type OpenAIChatService struct {
	client             *client.OpenAIClient
	defaultModel       string
	defaultTemperature float32
}

// NewChatService 创建对话服务
func NewChatService(conf *config.ChatConfig) (*OpenAIChatService, error) {
	if conf == nil || conf.APIKey == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "chat apiKey is required")
	}
	if conf.Model == "" {
		return nil, errors.New(errors.ErrModelNotConfigured, "chat model is not configured")
	}

	return &OpenAIChatService{
		client:             client.NewOpenAIClient(conf.APIKey, conf.BaseURL),
		defaultModel:       conf.Model,
		defaultTemperature: conf.Temperature,
	}, nil
}

// Chat 非流式生成
func (s *OpenAIChatService) Chat(ctx context.Context, messages []*schema.ChatMessage, opts *Options) (*Response, error) {
	resp, err := s.client.ChatCompletion(ctx, s.buildRequest(messages, opts))
	if err != nil {
		return nil, errors.Wrap(errors.ErrChatFailed, err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.ErrChatFailed, "chat completion returned no choices")
	}

	msg := schema.NewChatMessage(schema.Assistant, resp.Choices[0].Message.Content)
	msg.Metadata = map[string]any{
		"model":        resp.Model,
		"total_tokens": resp.Usage.TotalTokens,
	}

	return &Response{
		Message: msg,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ChatStream 流式生成，返回增量文本流
//
// 消费端关闭Reader即视为放弃，生产协程随之退出并关闭上游流。
func (s *OpenAIChatService) ChatStream(ctx context.Context, messages []*schema.ChatMessage, opts *Options) (*schema.StreamReader[string], error) {
	stream, err := s.client.ChatCompletionStream(ctx, s.buildRequest(messages, opts))
	if err != nil {
		return nil, errors.Wrap(errors.ErrStreamingFailed, err, "failed to open chat completion stream")
	}

	reader, writer := schema.Pipe[string](streamBufferSize)

	go func() {
		defer writer.Close()
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				writer.Send("", errors.Wrap(errors.ErrStreamingFailed, err, "chat stream receive failed"))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if abandoned := writer.Send(delta, nil); abandoned {
				g.Log().Debugf(ctx, "chat stream consumer gone, stopping producer")
				return
			}
		}
	}()

	return reader, nil
}

// buildRequest 合并默认参数与覆盖参数
func (s *OpenAIChatService) buildRequest(messages []*schema.ChatMessage, opts *Options) client.ChatCompletionRequest {
	req := client.ChatCompletionRequest{
		Model:       s.defaultModel,
		Temperature: s.defaultTemperature,
		Messages:    toOpenAIMessages(messages),
	}
	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		if opts.Temperature != nil {
			req.Temperature = *opts.Temperature
		}
		if opts.MaxTokens > 0 {
			req.MaxCompletionTokens = opts.MaxTokens
		}
	}
	return req
}

func toOpenAIMessages(messages []*schema.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return out
}
