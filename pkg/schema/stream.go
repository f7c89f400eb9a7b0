package schema

import (
	"io"
	"sync"
)

// StreamReader 流式数据读取器，消费端通过Recv拉取增量
type StreamReader[T any] struct {
	ch   chan streamItem[T]
	done chan struct{}
	once sync.Once
}

// StreamWriter 流式数据写入器
type StreamWriter[T any] struct {
	ch   chan streamItem[T]
	done chan struct{}
	once sync.Once
}

type streamItem[T any] struct {
	value T
	err   error
}

// Pipe 创建一个流式管道，返回 Reader 和 Writer
// 写入端受bufferSize背压限制，消费端停止拉取即视为放弃
func Pipe[T any](bufferSize int) (*StreamReader[T], *StreamWriter[T]) {
	ch := make(chan streamItem[T], bufferSize)
	done := make(chan struct{})
	return &StreamReader[T]{ch: ch, done: done}, &StreamWriter[T]{ch: ch, done: done}
}

// Recv 从流中读取下一个元素，流结束时返回 io.EOF
func (r *StreamReader[T]) Recv() (T, error) {
	item, ok := <-r.ch
	if !ok {
		var zero T
		return zero, io.EOF
	}
	return item.value, item.err
}

// Close 关闭读取器，通知写入端不再有消费者
func (r *StreamReader[T]) Close() error {
	r.once.Do(func() {
		close(r.done)
	})
	return nil
}

// Send 向流中发送一个元素，返回 true 表示消费端已放弃，写入端应停止生产
func (w *StreamWriter[T]) Send(value T, err error) bool {
	select {
	case <-w.done:
		return true
	case w.ch <- streamItem[T]{value: value, err: err}:
		return false
	}
}

// Close 关闭写入器，读取端随后收到 io.EOF
func (w *StreamWriter[T]) Close() error {
	w.once.Do(func() {
		close(w.ch)
	})
	return nil
}
