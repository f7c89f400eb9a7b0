package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/AlexMendozaPrado/PocBanorte/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildText 生成由唯一单词组成的确定性文本
func buildText(length int) string {
	var b strings.Builder
	i := 0
	for b.Len() < length {
		fmt.Fprintf(&b, "w%05d ", i)
		i++
	}
	return b.String()[:length]
}

func TestChunkEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t\n"} {
		_, err := Chunk(text, nil)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))
	}
}

func TestChunkInvalidOptions(t *testing.T) {
	_, err := Chunk("hello world", &Options{ChunkSize: 10, ChunkOverlap: 10})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidParameter))

	_, err = Chunk("hello world", &Options{ChunkSize: -5})
	require.Error(t, err)
}

func TestChunkShortText(t *testing.T) {
	res, err := Chunk("short text", nil)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "short text", res.Chunks[0])
	assert.Equal(t, 1, res.Metadata.TotalChunks)
	assert.Equal(t, 10, res.Metadata.OriginalLength)
}

// TestChunkSizeBound 所有分片不超过ChunkSize
func TestChunkSizeBound(t *testing.T) {
	text := buildText(5000)
	res, err := Chunk(text, &Options{ChunkSize: 300, ChunkOverlap: 50})
	require.NoError(t, err)
	for i, c := range res.Chunks {
		assert.LessOrEqual(t, len([]rune(c)), 300, "chunk %d exceeds size bound", i)
	}
}

// TestChunkScenario2500 2500字符、size=1000、overlap=200的标准场景
func TestChunkScenario2500(t *testing.T) {
	text := buildText(2500)
	res, err := Chunk(text, &Options{ChunkSize: 1000, ChunkOverlap: 200})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Metadata.TotalChunks)
	require.Len(t, res.Chunks, 3)

	for i, c := range res.Chunks {
		assert.LessOrEqual(t, len([]rune(c)), 1000, "chunk %d too large", i)
	}

	// 相邻分片共享至少200个重叠字符
	for i := 1; i < len(res.Chunks); i++ {
		prev := []rune(res.Chunks[i-1])
		overlap := string(prev[len(prev)-200:])
		assert.True(t, strings.HasPrefix(res.Chunks[i], overlap),
			"chunk %d does not start with the previous chunk's tail", i)
	}
}

// TestChunkCoverage 去掉重叠后拼接可完整还原原文
func TestChunkCoverage(t *testing.T) {
	for _, length := range []int{500, 1234, 2500, 7000} {
		text := buildText(length)
		res, err := Chunk(text, &Options{ChunkSize: 1000, ChunkOverlap: 200})
		require.NoError(t, err)

		var b strings.Builder
		b.WriteString(res.Chunks[0])
		for i := 1; i < len(res.Chunks); i++ {
			runes := []rune(res.Chunks[i])
			b.WriteString(string(runes[200:]))
		}
		assert.Equal(t, text, b.String(), "length=%d", length)
	}
}

// TestChunkDeterministic 相同输入产生完全相同的分片边界
func TestChunkDeterministic(t *testing.T) {
	text := buildText(3000)
	opts := &Options{ChunkSize: 400, ChunkOverlap: 80}

	first, err := Chunk(text, opts)
	require.NoError(t, err)
	second, err := Chunk(text, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Chunks, second.Chunks)
	assert.Equal(t, first.Metadata, second.Metadata)
}

// TestChunkSeparatorPriority 优先在段落边界切分
func TestChunkSeparatorPriority(t *testing.T) {
	para1 := strings.Repeat("a", 400)
	para2 := strings.Repeat("b", 400)
	text := para1 + "\n\n" + para2

	res, err := Chunk(text, &Options{ChunkSize: 500, ChunkOverlap: 50})
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, para1+"\n\n", res.Chunks[0])
	assert.True(t, strings.HasSuffix(res.Chunks[1], para2))
}

// TestChunkIndivisibleToken 无分隔符时按长度硬切
func TestChunkIndivisibleToken(t *testing.T) {
	text := strings.Repeat("x", 2500)
	res, err := Chunk(text, &Options{ChunkSize: 1000, ChunkOverlap: 200})
	require.NoError(t, err)
	for i, c := range res.Chunks {
		assert.LessOrEqual(t, len([]rune(c)), 1000, "chunk %d too large", i)
	}
}

// TestChunkIndivisibleTokenEmittedAsIs 自定义分隔符未命中且无空分隔符时，超长片段原样输出
func TestChunkIndivisibleTokenEmittedAsIs(t *testing.T) {
	token := strings.Repeat("x", 150)
	text := "short|" + token + "|tail"
	res, err := Chunk(text, &Options{ChunkSize: 100, ChunkOverlap: 10, Separators: []string{"|"}})
	require.NoError(t, err)

	found := false
	for _, c := range res.Chunks {
		if strings.Contains(c, token) {
			found = true
		}
	}
	assert.True(t, found, "oversize indivisible token should be emitted as-is")
}

func TestChunkMetadata(t *testing.T) {
	text := buildText(2500)
	res, err := Chunk(text, &Options{ChunkSize: 1000, ChunkOverlap: 200})
	require.NoError(t, err)

	assert.Equal(t, 2500, res.Metadata.OriginalLength)
	assert.Equal(t, len(res.Chunks), res.Metadata.TotalChunks)

	total := 0
	for _, c := range res.Chunks {
		total += len([]rune(c))
	}
	assert.InDelta(t, total/len(res.Chunks), res.Metadata.AverageChunkSize, 1)
}
