package loader

import (
	"strings"
	"unicode/utf8"

	"mentor-go/pkg/log"
)

// 默认分块参数与分隔符优先级：段落 -> 换行 -> 空格 -> 逐字符。
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter 将长文本递归切分为带重叠的定长分块。
// 对同一输入与参数，切分结果是确定性的。
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter 创建一个切分器。overlap 不小于 size 时退化为不重叠切分。
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		log.Warnf("分块重叠参数无效 (size=%d, overlap=%d), 重叠已置为 0", chunkSize, chunkOverlap)
		chunkOverlap = 0
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split 切分文本。空白文本返回 nil。
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.splitRecursive(text, s.separators)
}

func (s *Splitter) splitRecursive(text string, separators []string) []string {
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}

	// 选择文本中出现的优先级最高的分隔符，剩余的留给递归。
	sep := ""
	var remaining []string
	for i, sp := range separators {
		if sp == "" {
			break
		}
		if strings.Contains(text, sp) {
			sep = sp
			remaining = separators[i+1:]
			break
		}
	}
	if sep == "" {
		return s.windowSplit(text)
	}

	parts := strings.Split(text, sep)
	var chunks []string
	var pending []string
	for _, part := range parts {
		if runeLen(part) > s.chunkSize {
			chunks = append(chunks, s.merge(pending, sep)...)
			pending = nil
			chunks = append(chunks, s.splitRecursive(part, remaining)...)
			continue
		}
		pending = append(pending, part)
	}
	return append(chunks, s.merge(pending, sep)...)
}

// merge 将若干小片段合并为不超过 chunkSize 的分块，
// 相邻分块之间保留不超过 chunkOverlap 的尾部片段作为重叠。
func (s *Splitter) merge(parts []string, sep string) []string {
	sepLen := runeLen(sep)
	var chunks []string
	var current []string
	total := 0

	for _, part := range parts {
		pLen := runeLen(part)
		add := pLen
		if len(current) > 0 {
			add += sepLen
		}
		if total+add > s.chunkSize && len(current) > 0 {
			if c := joinChunk(current, sep); c != "" {
				chunks = append(chunks, c)
			}
			// 从头部弹出片段直到满足重叠上限并能容纳新片段
			for len(current) > 0 && (total > s.chunkOverlap || total+pLen+sepLen > s.chunkSize) {
				dec := runeLen(current[0])
				if len(current) > 1 {
					dec += sepLen
				}
				total -= dec
				current = current[1:]
			}
		}
		current = append(current, part)
		if len(current) > 1 {
			total += sepLen
		}
		total += pLen
	}

	if c := joinChunk(current, sep); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

// windowSplit 在没有可用分隔符时按定长窗口逐字符切分（保留重叠）。
func (s *Splitter) windowSplit(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}
	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func joinChunk(parts []string, sep string) string {
	return strings.TrimSpace(strings.Join(parts, sep))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
