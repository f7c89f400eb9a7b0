package common

import "unicode/utf8"

// Of 返回值的指针
func Of[T any](v T) *T {
	return &v
}

// RemoveDuplicates 按key去重，保留首次出现的元素
func RemoveDuplicates[T any, K comparable](slice []T, keyFunc func(T) K) []T {
	seen := make(map[K]struct{}, len(slice))
	result := make([]T, 0, len(slice))
	for _, item := range slice {
		key := keyFunc(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// TruncateString 按字节上限截断字符串，回退到rune边界避免截出半个字符
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 0 {
		maxLen = 0
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
