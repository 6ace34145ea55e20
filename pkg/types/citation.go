// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the vericite pipeline:
// outline entries supplied by documents, citation candidates produced by
// extraction, and verdicts produced by validation.
package types

// ExtractionMethod records how a citation candidate was obtained.
type ExtractionMethod string

const (
	MethodTextLayer ExtractionMethod = "text_layer"
	MethodOCR       ExtractionMethod = "ocr"
	MethodRemote    ExtractionMethod = "remote"
)

// CitationCandidate is a raw line hypothesized to be a bibliographic
// reference. Text is trimmed and longer than the configured minimum line
// length; OriginPage is 0-based.
type CitationCandidate struct {
	Text       string           `json:"text" yaml:"text"`
	OriginPage int              `json:"origin_page" yaml:"origin_page"`
	Method     ExtractionMethod `json:"method" yaml:"method"`
}

// ReasonCode classifies the outcome of validating one candidate.
type ReasonCode string

const (
	ReasonVerified      ReasonCode = "verified"
	ReasonLowConfidence ReasonCode = "low_confidence"
	ReasonNoMatch       ReasonCode = "no_match"
	ReasonAPIError      ReasonCode = "api_error"
	ReasonNetworkError  ReasonCode = "network_error"
)

// Definitive reports whether the reason reflects an answer from the search
// service rather than a failure to obtain one. Only definitive verdicts are
// cached.
func (r ReasonCode) Definitive() bool {
	switch r {
	case ReasonVerified, ReasonLowConfidence, ReasonNoMatch:
		return true
	default:
		return false
	}
}

// ValidationVerdict is the immutable result of checking one candidate
// against a bibliographic search service. IsVerified is true exactly when
// Reason is ReasonVerified.
type ValidationVerdict struct {
	CitationText    string           `json:"citation_text" yaml:"citation_text"`
	IsVerified      bool             `json:"is_verified" yaml:"is_verified"`
	MatchedDOI      string           `json:"matched_doi,omitempty" yaml:"matched_doi,omitempty"`
	MatchedTitle    string           `json:"matched_title,omitempty" yaml:"matched_title,omitempty"`
	ConfidenceScore float64          `json:"confidence_score" yaml:"confidence_score"`
	Reason          ReasonCode       `json:"reason" yaml:"reason"`
	Detail          string           `json:"detail,omitempty" yaml:"detail,omitempty"`
	OriginPage      int              `json:"origin_page" yaml:"origin_page"`
	Method          ExtractionMethod `json:"method" yaml:"method"`
	Backend         string           `json:"backend" yaml:"backend"`
	Cached          bool             `json:"cached,omitempty" yaml:"cached,omitempty"`
}

// Summary holds the counts presented alongside a verdict list.
type Summary struct {
	Candidates int                `json:"candidates" yaml:"candidates"`
	Verdicts   int                `json:"verdicts" yaml:"verdicts"`
	Verified   int                `json:"verified" yaml:"verified"`
	Unverified int                `json:"unverified" yaml:"unverified"`
	ByReason   map[ReasonCode]int `json:"by_reason" yaml:"by_reason"`
}

// Summarize counts verdicts by outcome.
func Summarize(candidates int, verdicts []ValidationVerdict) Summary {
	s := Summary{
		Candidates: candidates,
		Verdicts:   len(verdicts),
		ByReason:   make(map[ReasonCode]int),
	}
	for _, v := range verdicts {
		if v.IsVerified {
			s.Verified++
		} else {
			s.Unverified++
		}
		s.ByReason[v.Reason]++
	}
	return s
}

// HasUnverified reports whether any verdict failed verification.
func (s Summary) HasUnverified() bool {
	return s.Unverified > 0
}
