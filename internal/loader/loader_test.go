package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-go/internal/model"
)

// fakeObjectStore 用内存 map 模拟对象存储。
type fakeObjectStore struct {
	objects map[string][]byte
	listErr error
}

func (f *fakeObjectStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeObjectStore) Fetch(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func TestLoadDocumentsSetsSourceMetadata(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"notes/meeting_2024-01.txt": []byte("The startup had a meeting about fundraising."),
	}}
	l := NewS3DocumentLoader(store, "notes/")

	docs := l.LoadDocuments(context.Background())
	require.Len(t, docs, 1)
	assert.Equal(t, "The startup had a meeting about fundraising.", docs[0].Content)
	assert.Equal(t, "notes/meeting_2024-01.txt", docs[0].Source())
}

func TestLoadDocumentsSkipsUnsupportedTypes(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"a.txt":  []byte("plain text"),
		"b.md":   []byte("# markdown"),
		"c.pdf":  []byte("%PDF-1.4"),
		"d.png":  {0x89, 0x50, 0x4e, 0x47},
		"dir/":   nil,
		"e.text": []byte("more text"),
	}}
	l := NewS3DocumentLoader(store, "")

	docs := l.LoadDocuments(context.Background())
	assert.Len(t, docs, 3)
	for _, d := range docs {
		assert.NotEqual(t, "c.pdf", d.Source())
		assert.NotEqual(t, "d.png", d.Source())
	}
}

func TestLoadDocumentsListFailureReturnsEmpty(t *testing.T) {
	store := &fakeObjectStore{listErr: errors.New("connection refused")}
	l := NewS3DocumentLoader(store, "")

	docs := l.LoadDocuments(context.Background())
	assert.Empty(t, docs)
}

func TestLoadDocumentsReadsDocx(t *testing.T) {
	data := buildDocx(t, docxXMLHeader+`
<w:body><w:p><w:r><w:t>Quarterly investor update</w:t></w:r></w:p></w:body>
</w:document>`)
	store := &fakeObjectStore{objects: map[string][]byte{
		"update.docx": data,
	}}
	l := NewS3DocumentLoader(store, "")

	docs := l.LoadDocuments(context.Background())
	require.Len(t, docs, 1)
	assert.Equal(t, "Quarterly investor update", docs[0].Content)
}

func TestSplitDocumentsChunksInheritMetadata(t *testing.T) {
	l := NewS3DocumentLoader(&fakeObjectStore{}, "")
	l.splitter = NewSplitter(50, 10)

	long := ""
	for i := 0; i < 40; i++ {
		long += "fundraising plan details keep accumulating here. "
	}
	docs := []model.Document{model.NewDocument(long, "plan.txt")}

	chunks := l.SplitDocuments(docs)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.Equal(t, "plan.txt", c.Source())
	}
}

func TestLoadAndSplitEmptyDocxProducesNoChunks(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"broken.docx": []byte("definitely not a zip"),
	}}
	l := NewS3DocumentLoader(store, "")

	chunks := l.LoadAndSplit(context.Background())
	assert.Empty(t, chunks)
}
