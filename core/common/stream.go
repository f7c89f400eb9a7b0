package common

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/AlexMendozaPrado/PocBanorte/pkg/schema"
	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
	"github.com/gogf/gf/v2/os/gctx"
	"github.com/google/uuid"
)

// GenerateMessageID 生成消息ID
func GenerateMessageID() string {
	return uuid.NewString()
}

type StreamData struct {
	Id        string                      `json:"id"`      // 同一条消息内所有事件共享
	Created   int64                       `json:"created"` // 消息初始生成时间
	Content   string                      `json:"content"` // 增量token内容
	Documents []schema.ContextDocumentRef `json:"documents,omitempty"`
}

// StreamResponse 将token流作为SSE写给客户端。
// 流结束后追加一条documents:事件，携带本次回答实际使用的上下文引用，
// 最后发送[DONE]结束事件。
func StreamResponse(ctx context.Context, streamReader *schema.StreamReader[string], docs []schema.ContextDocumentRef) error {
	httpReq := ghttp.RequestFromCtx(ctx)
	httpResp := httpReq.Response

	httpResp.Header().Set("Content-Type", "text/event-stream")
	httpResp.Header().Set("Cache-Control", "no-cache")
	httpResp.Header().Set("Connection", "keep-alive")
	httpResp.Header().Set("X-Accel-Buffering", "no") // 禁用Nginx缓冲
	httpResp.Header().Set("Access-Control-Allow-Origin", "*")

	sd := &StreamData{
		Id:      uuid.NewString(),
		Created: time.Now().Unix(),
	}

	for {
		token, err := streamReader.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeSSEError(httpResp, err)
			break
		}
		if len(token) == 0 {
			continue
		}

		sd.Content = token
		marshal, _ := sonic.Marshal(sd)
		writeSSEData(httpResp, string(marshal))
	}

	// 流结束后补发上下文引用
	if len(docs) > 0 {
		sd.Documents = docs
		sd.Content = ""
		marshal, _ := sonic.Marshal(sd)
		writeSSEDocuments(httpResp, string(marshal))
	}

	writeSSEDone(httpResp)
	return nil
}

// writeSSEData 写入SSE数据事件
func writeSSEData(resp *ghttp.Response, data string) {
	if len(data) == 0 {
		return
	}
	resp.Writeln(fmt.Sprintf("data:%s\n", data))
	resp.Flush()
}

func writeSSEDone(resp *ghttp.Response) {
	resp.Writeln(fmt.Sprintf("data:%s\n", "[DONE]"))
	resp.Flush()
}

func writeSSEDocuments(resp *ghttp.Response, data string) {
	resp.Writeln(fmt.Sprintf("documents:%s\n", data))
	resp.Flush()
}

// writeSSEError 写入SSE错误事件
func writeSSEError(resp *ghttp.Response, err error) {
	g.Log().Error(gctx.New(), err)
	resp.Writeln(fmt.Sprintf("event: error\ndata: %s\n\n", err.Error()))
	resp.Flush()
}
