package chunker

import (
	"strings"

	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
)

// 默认分片参数
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators 默认分隔符，按优先级从粗到细
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", ". ", " ", ""}
}

// Options 分片选项
type Options struct {
	// ChunkSize 单个分片的最大长度（按rune计）
	ChunkSize int
	// ChunkOverlap 相邻分片之间复制的尾部上下文长度
	ChunkOverlap int
	// Separators 分隔符优先级列表，空串表示按长度硬切
	Separators []string
}

// Metadata 分片统计信息
type Metadata struct {
	TotalChunks      int `json:"total_chunks"`
	AverageChunkSize int `json:"average_chunk_size"`
	OriginalLength   int `json:"original_length"`
}

// Result 分片结果
type Result struct {
	Chunks   []string `json:"chunks"`
	Metadata Metadata `json:"metadata"`
}

// Chunk 将原始文本递归分割为带重叠的分片
//
// 算法：按分隔符优先级递归切分，直到每个片段不超过ChunkSize；
// 无分隔符可用时按ChunkSize硬切。相邻片段贪心合并后，把前一个
// 分片的尾部ChunkOverlap个字符复制到下一个分片开头，保证检索连续性。
// 相同输入和选项产生完全相同的分片边界。
func Chunk(text string, opts *Options) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "cannot chunk empty text")
	}

	chunkSize := DefaultChunkSize
	chunkOverlap := DefaultChunkOverlap
	separators := DefaultSeparators()

	if opts != nil {
		if opts.ChunkSize != 0 {
			chunkSize = opts.ChunkSize
		}
		if opts.ChunkOverlap != 0 {
			chunkOverlap = opts.ChunkOverlap
		}
		if opts.Separators != nil {
			separators = opts.Separators
		}
	}

	if chunkSize <= 0 {
		return nil, errors.Newf(errors.ErrInvalidParameter, "chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, errors.Newf(errors.ErrInvalidParameter, "chunk overlap must be in [0, chunkSize), got %d", chunkOverlap)
	}

	pieces := splitRecursive(text, separators, chunkSize)
	cores := mergePieces(pieces, chunkSize, chunkOverlap)
	chunks := applyOverlap(cores, chunkSize, chunkOverlap)

	totalLen := 0
	for _, c := range chunks {
		totalLen += runeLen(c)
	}
	avg := 0
	if len(chunks) > 0 {
		avg = (totalLen + len(chunks)/2) / len(chunks)
	}

	return &Result{
		Chunks: chunks,
		Metadata: Metadata{
			TotalChunks:      len(chunks),
			AverageChunkSize: avg,
			OriginalLength:   runeLen(text),
		},
	}, nil
}

// splitRecursive 按分隔符优先级递归切分，返回的片段拼接后等于原文
func splitRecursive(text string, separators []string, chunkSize int) []string {
	if runeLen(text) <= chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		// 分隔符用尽且无空分隔符兜底：不可再分的片段原样输出
		return []string{text}
	}

	sep := separators[0]
	rest := separators[1:]
	if sep == "" {
		return hardCut(text, chunkSize)
	}

	parts := splitKeepSeparator(text, sep)
	if len(parts) == 1 {
		// 当前分隔符未命中，降级到下一级
		return splitRecursive(text, rest, chunkSize)
	}

	var pieces []string
	for _, p := range parts {
		if runeLen(p) <= chunkSize {
			pieces = append(pieces, p)
		} else {
			pieces = append(pieces, splitRecursive(p, rest, chunkSize)...)
		}
	}
	return pieces
}

// splitKeepSeparator 按sep切分并把分隔符保留在前一个片段末尾，
// 保证所有片段拼接后与原文逐字符一致
func splitKeepSeparator(text, sep string) []string {
	raw := strings.Split(text, sep)
	parts := make([]string, 0, len(raw))
	for i, r := range raw {
		if i < len(raw)-1 {
			r += sep
		}
		if r != "" {
			parts = append(parts, r)
		}
	}
	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// hardCut 无分隔符可用时按长度硬切
func hardCut(text string, chunkSize int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// mergePieces 将细粒度片段贪心合并为分片主体。
// 首个分片上限为chunkSize，后续分片需为overlap前缀留出空间。
// 单个不可再分的片段超限时按原样独立成片。
func mergePieces(pieces []string, chunkSize, chunkOverlap int) []string {
	var cores []string
	var current strings.Builder
	currentLen := 0

	limit := func() int {
		if len(cores) == 0 {
			return chunkSize
		}
		return chunkSize - chunkOverlap
	}

	flush := func() {
		if currentLen > 0 {
			cores = append(cores, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, p := range pieces {
		pLen := runeLen(p)
		if currentLen > 0 && currentLen+pLen > limit() {
			flush()
		}
		if pLen > limit() && currentLen == 0 {
			// 不可再分的超长片段，原样输出
			cores = append(cores, p)
			continue
		}
		current.WriteString(p)
		currentLen += pLen
	}
	flush()
	return cores
}

// applyOverlap 将前一个分片的尾部字符复制到后一个分片开头。
// 当主体本身接近上限时收缩重叠量，保证分片不超过chunkSize。
func applyOverlap(cores []string, chunkSize, chunkOverlap int) []string {
	if chunkOverlap == 0 || len(cores) < 2 {
		return cores
	}

	chunks := make([]string, len(cores))
	chunks[0] = cores[0]
	for i := 1; i < len(cores); i++ {
		take := chunkOverlap
		if room := chunkSize - runeLen(cores[i]); room < take {
			take = room
		}
		if take < 0 {
			take = 0
		}
		prev := []rune(chunks[i-1])
		if take > len(prev) {
			take = len(prev)
		}
		chunks[i] = string(prev[len(prev)-take:]) + cores[i]
	}
	return chunks
}

func runeLen(s string) int {
	return len([]rune(s))
}
