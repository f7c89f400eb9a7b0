package common

import (
	"regexp"
	"strings"
)

var (
	uuidWithHyphen    = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
	uuidWithoutHyphen = regexp.MustCompile(`^[a-f0-9]{32}$`)
	collectionName    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// SanitizeMilvusString 转义 Milvus 表达式中的特殊字符
// 防止通过特殊字符进行表达式注入
func SanitizeMilvusString(s string) string {
	// 转义反斜杠（必须先转义）
	s = strings.ReplaceAll(s, `\`, `\\`)
	// 转义双引号
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// ValidateUUID 验证 UUID 格式（支持有连字符和无连字符两种格式）
func ValidateUUID(uuid string) bool {
	lower := strings.ToLower(uuid)
	return uuidWithHyphen.MatchString(lower) || uuidWithoutHyphen.MatchString(lower)
}

// ValidateCollectionName 验证集合/表名称
// 规范: 1-255 字符，字母开头，只能包含字母、数字、下划线
func ValidateCollectionName(name string) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	return collectionName.MatchString(name)
}
