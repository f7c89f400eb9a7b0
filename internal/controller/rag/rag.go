package rag

// ControllerV1 RAG服务v1接口控制器
type ControllerV1 struct{}

func NewV1() *ControllerV1 {
	return &ControllerV1{}
}
