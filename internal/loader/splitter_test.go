package loader

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)

	chunks := s.Split("a short paragraph")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short paragraph", chunks[0])
}

func TestSplitBlankText(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(100, 20)

	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("sentence number goes right here and keeps going. ")
	}

	chunks := s.Split(b.String())
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqualf(t, utf8.RuneCountInString(c), 100, "chunk %d 超出大小限制", i)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	s := NewSplitter(80, 16)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 30)

	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(60, 0)

	text := "first paragraph stays whole.\n\nsecond paragraph stays whole too."
	chunks := s.Split(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, "first paragraph stays whole.", chunks[0])
	assert.Equal(t, "second paragraph stays whole too.", chunks[1])
}

func TestSplitOverlapCarriesTail(t *testing.T) {
	s := NewSplitter(40, 20)

	words := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		words = append(words, "word")
	}
	chunks := s.Split(strings.Join(words, " "))
	require.Greater(t, len(chunks), 1)

	// 相邻分块应共享尾部内容
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-4:]
		assert.Contains(t, chunks[i], prevTail)
	}
}

func TestSplitNoSeparatorFallsBackToWindow(t *testing.T) {
	s := NewSplitter(50, 10)

	text := strings.Repeat("x", 130)
	chunks := s.Split(text)

	require.Greater(t, len(chunks), 2)
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[0]))
	// 重叠窗口：下一个分块以上一个分块的尾部开头
	assert.Equal(t, chunks[0][40:], chunks[1][:10])
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	s := NewSplitter(10, 0)

	// 30 个中文字符，UTF-8 下每个 3 字节
	text := strings.Repeat("数", 30)
	chunks := s.Split(text)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, 10, utf8.RuneCountInString(c))
	}
}

func TestNewSplitterClampsInvalidOverlap(t *testing.T) {
	s := NewSplitter(100, 100)
	assert.Equal(t, 0, s.chunkOverlap)

	s = NewSplitter(100, -1)
	assert.Equal(t, 0, s.chunkOverlap)
}
