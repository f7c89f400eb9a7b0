package errors

// ErrCode 业务错误码类型
type ErrCode int

const (
	// 通用错误 1000-1999
	ErrInvalidParameter ErrCode = 1001 // 参数错误（空文本、非法选项值等，调用方错误，不重试）
	ErrInternalError    ErrCode = 1002 // 内部错误
	ErrNotFound         ErrCode = 1003 // 资源未找到
	ErrOperationFailed  ErrCode = 1004 // 操作失败

	// 模型相关 2000-2999
	ErrEmbeddingFailed    ErrCode = 2001 // Embedding服务调用失败
	ErrChatFailed         ErrCode = 2002 // Chat/LLM调用失败
	ErrStreamingFailed    ErrCode = 2003 // 流式响应失败
	ErrDimensionMismatch  ErrCode = 2004 // 向量维度不匹配（配置错误，不可重试）
	ErrModelNotConfigured ErrCode = 2005 // 模型未配置

	// 文档相关 4000-4999
	ErrDocumentNotFound  ErrCode = 4001 // 文档未找到
	ErrEmptyDocument     ErrCode = 4002 // 文档分片结果为空，入库中止
	ErrUnsupportedFormat ErrCode = 4003 // 不支持的文档格式
	ErrFileSizeExceeded  ErrCode = 4004 // 文件大小超限
	ErrFileStoreFailed   ErrCode = 4005 // 原始文件存取失败
	ErrIndexingFailed    ErrCode = 4006 // 入库失败

	// 向量数据库 5000-5999
	ErrVectorStoreInit        ErrCode = 5001 // 向量库初始化失败
	ErrVectorStoreUnavailable ErrCode = 5002 // 向量库连接失败
	ErrVectorSearch           ErrCode = 5003 // 向量搜索失败
	ErrVectorInsert           ErrCode = 5004 // 向量插入失败
	ErrVectorDelete           ErrCode = 5005 // 向量删除失败

	// 数据库相关 6000-6999
	ErrDatabaseQuery  ErrCode = 6001 // 数据库查询失败
	ErrDatabaseInsert ErrCode = 6002 // 数据库插入失败
	ErrDatabaseDelete ErrCode = 6003 // 数据库删除失败
	ErrDatabaseInit   ErrCode = 6004 // 数据库初始化失败

	// 对话相关 7000-7999
	ErrRetrievalFailed ErrCode = 7001 // 检索失败
)

// HTTPStatusCode 返回错误码对应的HTTP状态码
func (e ErrCode) HTTPStatusCode() int {
	switch e {
	case ErrInvalidParameter, ErrEmptyDocument:
		return 400
	case ErrNotFound, ErrDocumentNotFound:
		return 404
	case ErrFileSizeExceeded:
		return 413
	case ErrUnsupportedFormat:
		return 415
	case ErrVectorStoreUnavailable, ErrEmbeddingFailed, ErrChatFailed:
		return 502
	default:
		return 500
	}
}
