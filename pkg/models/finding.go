package models

import "time"

// FindingKind classifies the kind of evidence a Finding represents.
type FindingKind string

const (
	KindArticle   FindingKind = "article"
	KindTrial     FindingKind = "trial"
	KindPreprint  FindingKind = "preprint"
	KindStandard  FindingKind = "standard"
	KindGuideline FindingKind = "guideline"
)

// IdentifierKind classifies the namespace an external identifier lives in.
type IdentifierKind string

const (
	IdentifierPMID  IdentifierKind = "pmid"
	IdentifierDOI   IdentifierKind = "doi"
	IdentifierArXiv IdentifierKind = "arxiv_id"
	IdentifierNCT   IdentifierKind = "nct_id"
	IdentifierURL   IdentifierKind = "url"
)

// Finding is a single piece of external evidence normalized from a vendor
// payload by a tool adapter (C3). Uniqueness is (AgentSource, IdentifierKind, Identifier);
// duplicates collapse to the earliest stored row (see Store.SaveFinding).
type Finding struct {
	ID              int64
	ProjectID       string
	AgentSource     string
	Kind            FindingKind
	IdentifierKind  IdentifierKind
	Identifier      string
	Title           string
	Authors         []string
	JournalOrSource string
	Date            string
	Abstract        string
	RawJSON         string
	Selected        bool
	Notes           string
	CreatedAt       time.Time
}

// CitationAssertion is an identifier extracted by deterministic pattern
// matching from an agent's textual output (the "cited set" Cᴀ of §4.7).
type CitationAssertion struct {
	IdentifierKind IdentifierKind
	Identifier     string
	SurfaceForm    string
	Offset         int
}

// VerdictKind is the outcome of grounding a single agent run.
type VerdictKind string

const (
	VerdictGrounded    VerdictKind = "grounded"
	VerdictHallucinate VerdictKind = "hallucinated"
	VerdictRefused     VerdictKind = "refused"
)

// Verdict is the result of validating an agent run against its verified set (Vᴀ).
type Verdict struct {
	Kind       VerdictKind
	Unverified []string // identifiers present in Cᴀ \ Vᴀ, only set when Kind == hallucinated
}

// Grounded reports whether the verdict represents a deliverable (non-refusal) response.
func (v Verdict) Grounded() bool {
	return v.Kind == VerdictGrounded || v.Kind == VerdictRefused
}
