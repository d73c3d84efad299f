package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-go/internal/model"
	"mentor-go/internal/vectorstore/local"
)

// embedVocab 是 fakeEmbedder 的固定词表，每个词对应一个向量维度。
var embedVocab = []string{
	"fundraising", "plan", "plans", "raise", "meeting",
	"investor", "product-market", "fit", "email",
	"demo", "day", "calendar", "rehearsal",
	"engineering", "sync", "onboarding",
	"runway", "board", "update", "months",
}

// fakeEmbedder 用固定词表的词袋生成确定性向量，同词汇的文本向量更相似。
type fakeEmbedder struct {
	name string
	err  error
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vec := make([]float32, len(embedVocab)+1)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?$:")
		idx := len(embedVocab)
		for i, v := range embedVocab {
			if v == word {
				idx = i
				break
			}
		}
		if idx < len(embedVocab) {
			vec[idx]++
		}
	}
	// 最后一维恒为 1，避免零向量
	vec[len(embedVocab)] = 1
	return vec, nil
}

func (f *fakeEmbedder) Probe(ctx context.Context) error {
	_, err := f.CreateEmbedding(ctx, "test")
	return err
}

func (f *fakeEmbedder) ModelName() string {
	if f.name != "" {
		return f.name
	}
	return "fake-embed"
}

func startupDocs() []model.Document {
	return []model.Document{
		model.NewDocument("The startup had a meeting about fundraising. They plan to raise $2M.", "meeting_2024-01.txt"),
		model.NewDocument("Email from investor: interested in the product-market fit.", "email_investor.txt"),
		model.NewDocument("Calendar: demo day rehearsal scheduled for next Friday.", "calendar.txt"),
		model.NewDocument("Weekly engineering sync covered the new onboarding flow.", "eng_sync.txt"),
	}
}

func TestCreateIndexEmptyDocuments(t *testing.T) {
	svc := NewIndexService(&fakeEmbedder{}, local.New(t.TempDir()))

	err := svc.CreateIndex(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.False(t, svc.Ready())
}

func TestCreateIndexAndSearch(t *testing.T) {
	svc := NewIndexService(&fakeEmbedder{}, local.New(t.TempDir()))
	ctx := context.Background()

	require.NoError(t, svc.CreateIndex(ctx, startupDocs()))
	assert.True(t, svc.Ready())
	assert.True(t, svc.Exists(ctx))

	results, err := svc.Search(ctx, "What are the fundraising plans?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "meeting_2024-01.txt", results[0].Document.Source())
}

func TestSearchBeforeIndexReady(t *testing.T) {
	svc := NewIndexService(&fakeEmbedder{}, local.New(t.TempDir()))

	_, err := svc.Search(context.Background(), "anything", 4)
	assert.ErrorIs(t, err, ErrIndexNotReady)
}

func TestCreateIndexEmbeddingFailure(t *testing.T) {
	svc := NewIndexService(&fakeEmbedder{err: errors.New("provider down")}, local.New(t.TempDir()))

	err := svc.CreateIndex(context.Background(), startupDocs())
	assert.Error(t, err)
	assert.False(t, svc.Ready())
}

func TestLoadIndexValidatesModel(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	creator := NewIndexService(&fakeEmbedder{name: "model-a"}, local.New(dir))
	require.NoError(t, creator.CreateIndex(ctx, startupDocs()))

	// 同一模型可以加载
	same := NewIndexService(&fakeEmbedder{name: "model-a"}, local.New(dir))
	require.NoError(t, same.LoadIndex(ctx))
	assert.True(t, same.Ready())

	// 换了 embedding 模型的实例拒绝加载旧索引
	other := NewIndexService(&fakeEmbedder{name: "model-b"}, local.New(dir))
	err := other.LoadIndex(ctx)
	assert.Error(t, err)
	assert.False(t, other.Ready())
}

func TestAddDocumentsRequiresReadyIndex(t *testing.T) {
	svc := NewIndexService(&fakeEmbedder{}, local.New(t.TempDir()))
	ctx := context.Background()

	err := svc.AddDocuments(ctx, startupDocs())
	assert.ErrorIs(t, err, ErrIndexNotReady)

	require.NoError(t, svc.CreateIndex(ctx, startupDocs()))
	require.NoError(t, svc.AddDocuments(ctx, []model.Document{
		model.NewDocument("Board update: runway extended to 18 months.", "board.txt"),
	}))

	results, err := svc.Search(ctx, "How long is the runway according to the board update?", 6)
	require.NoError(t, err)
	sources := make([]string, 0, len(results))
	for _, r := range results {
		sources = append(sources, r.Document.Source())
	}
	assert.Contains(t, sources, "board.txt")
}
