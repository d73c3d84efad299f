package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-go/internal/model"
	"mentor-go/internal/repository"
	"mentor-go/internal/vectorstore/local"
)

// fakeDocLoader 返回脚本化的分块，并记录被调用的次数。
type fakeDocLoader struct {
	chunks []model.Document
	calls  int
}

func (f *fakeDocLoader) LoadAndSplit(_ context.Context) []model.Document {
	f.calls++
	return f.chunks
}

func newMentorParts(t *testing.T, dir string) (IndexService, ChatService, *fakeLLM) {
	t.Helper()
	generator := &fakeLLM{}
	index := NewIndexService(&fakeEmbedder{}, local.New(dir))
	chat := NewChatService(index, generator, repository.NewMemoryConversationRepository(), nil)
	return index, chat, generator
}

func TestMentorBootstrapFromLoader(t *testing.T) {
	index, chat, _ := newMentorParts(t, t.TempDir())
	docLoader := &fakeDocLoader{chunks: startupDocs()}

	mentor, err := NewMentorService(context.Background(), docLoader, index, chat, false)
	require.NoError(t, err)
	assert.Equal(t, 1, docLoader.calls)

	health := mentor.Health()
	assert.True(t, health.Ready)
	assert.Equal(t, "Ollama (fake)", health.Model)
	assert.True(t, health.IsOllama)
	assert.False(t, health.IsOpenAI)
}

func TestMentorBootstrapWithoutLoaderUsesPlaceholder(t *testing.T) {
	index, chat, _ := newMentorParts(t, t.TempDir())

	mentor, err := NewMentorService(context.Background(), nil, index, chat, false)
	require.NoError(t, err)
	assert.True(t, mentor.Health().Ready)

	// 占位文档可被检索到
	results, err := index.Search(context.Background(), "anything at all", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "No documents loaded yet.", results[0].Document.Content)
	assert.Equal(t, "system", results[0].Document.Source())
}

func TestMentorBootstrapLoadsExistingIndex(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	// 先建一份持久化索引
	creator := NewIndexService(&fakeEmbedder{}, local.New(dir))
	require.NoError(t, creator.CreateIndex(ctx, startupDocs()))

	// 第二次启动直接加载，不触碰文档源
	index, chat, _ := newMentorParts(t, dir)
	docLoader := &fakeDocLoader{chunks: startupDocs()}
	_, err := NewMentorService(ctx, docLoader, index, chat, false)
	require.NoError(t, err)
	assert.Equal(t, 0, docLoader.calls)
	assert.True(t, index.Ready())
}

func TestMentorForceReloadRebuilds(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	creator := NewIndexService(&fakeEmbedder{}, local.New(dir))
	require.NoError(t, creator.CreateIndex(ctx, startupDocs()))

	index, chat, _ := newMentorParts(t, dir)
	docLoader := &fakeDocLoader{chunks: startupDocs()}
	_, err := NewMentorService(ctx, docLoader, index, chat, true)
	require.NoError(t, err)
	assert.Equal(t, 1, docLoader.calls)
}

func TestMentorReload(t *testing.T) {
	index, chat, _ := newMentorParts(t, t.TempDir())
	docLoader := &fakeDocLoader{chunks: startupDocs()}
	ctx := context.Background()

	mentor, err := NewMentorService(ctx, docLoader, index, chat, false)
	require.NoError(t, err)

	require.NoError(t, mentor.Reload(ctx))
	assert.Equal(t, 2, docLoader.calls)
}

func TestMentorReloadEmptySourceKeepsIndex(t *testing.T) {
	index, chat, _ := newMentorParts(t, t.TempDir())
	docLoader := &fakeDocLoader{chunks: startupDocs()}
	ctx := context.Background()

	mentor, err := NewMentorService(ctx, docLoader, index, chat, false)
	require.NoError(t, err)

	// 文档源变空时保持现有索引不变
	docLoader.chunks = nil
	require.NoError(t, mentor.Reload(ctx))
	assert.True(t, index.Ready())

	results, err := mentor.Ask(ctx, "What are the fundraising plans?", "")
	require.NoError(t, err)
	assert.NotEmpty(t, results.Sources)
}

func TestMentorAskDelegates(t *testing.T) {
	index, chat, generator := newMentorParts(t, t.TempDir())
	generator.answer = "raise $2M this quarter"

	mentor, err := NewMentorService(context.Background(), &fakeDocLoader{chunks: startupDocs()}, index, chat, false)
	require.NoError(t, err)

	answer, err := mentor.Ask(context.Background(), "What are the fundraising plans?", "")
	require.NoError(t, err)
	assert.Equal(t, "raise $2M this quarter", answer.Answer)

	require.NoError(t, mentor.ClearHistory(context.Background(), answer.ConversationID))
}
