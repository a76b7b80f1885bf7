package pipeline

// DocumentStatus describes how one input document fared during a run.
type DocumentStatus string

const (
	// StatusOK: the document contributed candidate sections normally.
	StatusOK DocumentStatus = "ok"
	// StatusMalformedInput: no usable text blocks could be extracted.
	StatusMalformedInput DocumentStatus = "malformed_input"
	// StatusThresholdMiss: text was extracted but no block cleared the
	// heading threshold, so no sections exist.
	StatusThresholdMiss DocumentStatus = "threshold_miss"
	// StatusModelUnavailable: the embedder failed; the document was scored
	// with the lexical fallback.
	StatusModelUnavailable DocumentStatus = "model_unavailable"
	// StatusBudgetExceeded: the per-document deadline expired before
	// processing finished; the document is excluded.
	StatusBudgetExceeded DocumentStatus = "budget_exceeded"
)

// DocumentRef names one input document.
type DocumentRef struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

// CollectionInput is the rank request: a set of documents plus who is
// asking and what they need.
type CollectionInput struct {
	Documents []DocumentRef `json:"documents"`
	Persona   struct {
		Role string `json:"role"`
	} `json:"persona"`
	JobToBeDone struct {
		Task string `json:"task"`
	} `json:"job_to_be_done"`
}

// Metadata describes one run.
type Metadata struct {
	RunID               string   `json:"run_id"`
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection is one ranked section in the output.
type ExtractedSection struct {
	Document       string  `json:"document"`
	SectionTitle   string  `json:"section_title"`
	ImportanceRank int     `json:"importance_rank"`
	PageNumber     int     `json:"page_number"`
	PageEnd        int     `json:"page_end"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SubsectionAnalysis is one refined text fragment from a ranked section.
type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Result is the full output of one run. Partial results are always
// returned: failing documents appear in DocumentStatuses, never abort the
// batch.
type Result struct {
	Metadata           Metadata                  `json:"metadata"`
	ExtractedSections  []ExtractedSection        `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis      `json:"subsection_analysis"`
	DocumentStatuses   map[string]DocumentStatus `json:"document_statuses"`
}
