// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package locate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vericite/pkg/types"
)

// fakeDocument serves canned page text and outline entries.
type fakeDocument struct {
	pages   []string
	outline []types.OutlineEntry
	errs    map[int]error
	reads   []int
}

func (f *fakeDocument) Path() string   { return "fake.pdf" }
func (f *fakeDocument) PageCount() int { return len(f.pages) }
func (f *fakeDocument) Close() error   { return nil }

func (f *fakeDocument) PageText(i int) (string, error) {
	f.reads = append(f.reads, i)
	if err, ok := f.errs[i]; ok {
		return "", err
	}
	return f.pages[i], nil
}

func (f *fakeDocument) PageImage(int, int) ([]byte, error) { return nil, errors.New("no images") }

func (f *fakeDocument) Outline() []types.OutlineEntry { return f.outline }

func blankPages(n int) []string {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = "Body text of the paper.\nMore body text."
	}
	return pages
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"References", true},
		{"REFERENCES", true},
		{"  references  ", true},
		{"12. References", true},
		{"12 References", true},
		{"4.1 Bibliography", true},
		{"VII. References", true},
		{"Works Cited", true},
		{"LITERATURE CITED", true},
		{"参考文献", true},
		{"Références", true},
		{"Literaturverzeichnis", true},
		{"Reference List", true},
		{"See the references for details", false},
		{"References to prior work are given below.", false},
		{"Introduction", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeading(tt.line))
		})
	}
}

func TestLocate_OutlineEntry(t *testing.T) {
	doc := &fakeDocument{
		pages: blankPages(12),
		outline: []types.OutlineEntry{
			{Level: 1, Title: "Introduction", TargetPage: 1},
			{Level: 1, Title: "References", TargetPage: 7},
		},
	}

	res, err := New(nil).LocateDetailed(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Page)
	assert.Equal(t, StageOutline, res.Stage)
	assert.Empty(t, doc.reads, "outline hit must not read page text")
}

func TestLocate_OutlineTargetClamped(t *testing.T) {
	doc := &fakeDocument{
		pages:   blankPages(3),
		outline: []types.OutlineEntry{{Level: 1, Title: "Bibliography", TargetPage: 0}},
	}
	page, err := New(nil).Locate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 0, page)
}

func TestLocate_OutlineTargetBeyondDocumentIgnored(t *testing.T) {
	pages := blankPages(5)
	pages[4] = "References\n[1] A. Author. A title. 2020."
	doc := &fakeDocument{
		pages:   pages,
		outline: []types.OutlineEntry{{Level: 1, Title: "References", TargetPage: 40}},
	}
	res, err := New(nil).LocateDetailed(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Page)
	assert.Equal(t, StageTail, res.Stage)
}

func TestLocate_TailHeuristic(t *testing.T) {
	pages := blankPages(10)
	pages[9] = "References\nVaswani, A., et al. (2017). Attention is all you need."
	doc := &fakeDocument{pages: pages}

	res, err := New(nil).LocateDetailed(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 9, res.Page)
	assert.Equal(t, StageTail, res.Stage)
	assert.Equal(t, []int{8, 9}, doc.reads, "tail scan starts at floor(0.8*n)")
}

func TestLocate_FullScanFallback(t *testing.T) {
	pages := blankPages(10)
	pages[3] = "5. Bibliography\nSome entry here, 2019."
	pages[8] = "Appendix A\nExtra material."
	doc := &fakeDocument{pages: pages}

	res, err := New(nil).LocateDetailed(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page)
	assert.Equal(t, StageFull, res.Stage)
}

func TestLocate_MidSentenceMentionIgnored(t *testing.T) {
	pages := blankPages(5)
	pages[4] = "As discussed in the references below, the method is sound."
	doc := &fakeDocument{pages: pages}

	page, err := New(nil).Locate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, NotFound, page)
}

func TestLocate_NotFound(t *testing.T) {
	doc := &fakeDocument{pages: blankPages(4)}

	res, err := New(nil).LocateDetailed(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Page)
	assert.Equal(t, StageNone, res.Stage)
	assert.False(t, res.Found())
}

func TestLocate_UnreadablePageSkipped(t *testing.T) {
	pages := blankPages(5)
	pages[4] = "References"
	doc := &fakeDocument{pages: pages, errs: map[int]error{4: errors.New("broken content stream")}}
	pages[2] = "Works Cited"

	page, err := New(nil).Locate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, page)
}

func TestLocate_Idempotent(t *testing.T) {
	pages := blankPages(10)
	pages[9] = "References"
	doc := &fakeDocument{pages: pages}
	l := New(nil)

	first, err := l.Locate(context.Background(), doc)
	require.NoError(t, err)
	second, err := l.Locate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLocate_Cancelled(t *testing.T) {
	doc := &fakeDocument{pages: blankPages(10)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page, err := New(nil).Locate(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, NotFound, page)
}
