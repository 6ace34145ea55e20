// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vericite/internal/locate"
	"github.com/pdiddy/vericite/internal/pipeline"
	"github.com/pdiddy/vericite/internal/store"
	"github.com/pdiddy/vericite/pkg/types"
)

func sampleReport() *pipeline.Report {
	verdicts := []types.ValidationVerdict{
		{CitationText: "Vaswani A. et al. Attention is all you need. NeurIPS 2017.", IsVerified: true,
			Reason: types.ReasonVerified, ConfidenceScore: 92.3, MatchedDOI: "10.48550/arXiv.1706.03762", OriginPage: 9},
		{CitationText: "Quibble Z. Hyperdimensional citation engines. 2031.", Reason: types.ReasonNoMatch, OriginPage: 9},
		{CitationText: "Slow S. Timed out reference.", Reason: types.ReasonNetworkError, Detail: "context deadline exceeded", OriginPage: 10},
	}
	return &pipeline.Report{
		Source:         "paper.pdf",
		ReferencesPage: 9,
		LocateStage:    locate.StageTail,
		StartPage:      9,
		Strategy:       "local",
		Candidates:     make([]types.CitationCandidate, 3),
		Verdicts:       verdicts,
		Summary:        types.Summarize(3, verdicts),
	}
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, []*pipeline.Report{sampleReport()}))
	out := buf.String()

	assert.Contains(t, out, "paper.pdf")
	assert.Contains(t, out, "references: page 10 (tail)")
	assert.Contains(t, out, "10.48550/arXiv.1706.03762")
	assert.Contains(t, out, "context deadline exceeded")
	assert.Contains(t, out, "1 verified, 2 unverified of 3 candidates (network_error: 1, no_match: 1)")
}

func TestWrite_TextNotFound(t *testing.T) {
	r := &pipeline.Report{Source: "scan.pdf", ReferencesPage: locate.NotFound, LocateStage: locate.StageNone, FellBack: true}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "", []*pipeline.Report{r}))

	assert.Contains(t, buf.String(), "references: not found, scanned from page 1")
	assert.Contains(t, buf.String(), "No citations checked (0 candidates).")
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, []*pipeline.Report{sampleReport()}))

	var got []pipeline.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].ReferencesPage)
	assert.Equal(t, types.ReasonNoMatch, got[0].Verdicts[1].Reason)
	assert.Equal(t, 2, got[0].Summary.Unverified)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, []*pipeline.Report{sampleReport()}))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "paper.pdf", got[0]["source"])
	assert.Equal(t, "tail", got[0]["locate_stage"])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "csv", nil)
	assert.ErrorContains(t, err, "unknown format")
}

func TestSummaryLine_AllVerified(t *testing.T) {
	s := types.Summarize(2, []types.ValidationVerdict{
		{IsVerified: true, Reason: types.ReasonVerified},
		{IsVerified: true, Reason: types.ReasonVerified},
	})
	assert.Equal(t, "2 verified, 0 unverified of 2 candidates", SummaryLine(s))
}

func TestWriteRuns(t *testing.T) {
	var buf bytes.Buffer
	WriteRuns(&buf, nil)
	assert.Equal(t, "No runs recorded.\n", buf.String())

	buf.Reset()
	WriteRuns(&buf, []store.Run{{ID: 7, Source: "a.pdf", StartedAt: time.Now(), Stage: "outline", Strategy: "local", Verified: 3, Unverified: 1}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "a.pdf")
	assert.Contains(t, lines[2], "outline")
}

func TestWriteHits(t *testing.T) {
	var buf bytes.Buffer
	WriteHits(&buf, []store.VerdictHit{{RunID: 2, Source: "b.pdf",
		ValidationVerdict: types.ValidationVerdict{CitationText: "Some cited work", Reason: types.ReasonLowConfidence}}})
	assert.Contains(t, buf.String(), "[run 2] low_confidence  b.pdf  Some cited work")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "参考文...", truncate("参考文献参考文献", 6))
}
