package domain

// Decision classifies an incoming row against warehouse state.
type Decision string

const (
	DecisionInsert Decision = "insert"
	DecisionUpdate Decision = "update"
	DecisionSkip   Decision = "skip"
)

// Appends reports whether the decision results in a new warehouse row.
// Insert and Update are the same physical write.
func (d Decision) Appends() bool { return d == DecisionInsert || d == DecisionUpdate }

type BatchResult struct {
	Number int    `json:"number"`
	Object string `json:"object"`
	Rows   int    `json:"rows"`
	Err    string `json:"error,omitempty"`
}

type SplitSummary struct {
	JobID     string        `json:"job_id"`
	Bucket    string        `json:"bucket"`
	Object    string        `json:"object"`
	Target    string        `json:"target_bucket"`
	Rows      int           `json:"rows"`
	Batches   []BatchResult `json:"batches"`
	Uploaded  int           `json:"uploaded"`
	Failed    int           `json:"failed"`
	Duplicate bool          `json:"duplicate,omitempty"`
	Err       string        `json:"error,omitempty"`
}

type RowResult struct {
	Line      int
	MLS       string
	Decision  Decision
	Ambiguous bool // more than one stored row matched the identifier
	Err       error
}

type LoadSummary struct {
	JobID     string `json:"job_id"`
	Bucket    string `json:"bucket"`
	Object    string `json:"object"`
	Total     int    `json:"total"`
	Loaded    int    `json:"loaded"`
	Updated   int    `json:"updated"`
	Discarded int    `json:"discarded"`
	Failed    int    `json:"failed"`
	Ambiguous int    `json:"ambiguous"`
	Deleted   bool   `json:"deleted"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Err       string `json:"error,omitempty"`
}

// Add folds one row outcome into the summary.
func (s *LoadSummary) Add(r RowResult) {
	s.Total++
	if r.Ambiguous {
		s.Ambiguous++
	}
	if r.Err != nil {
		s.Failed++
		return
	}
	switch r.Decision {
	case DecisionInsert:
		s.Loaded++
	case DecisionUpdate:
		s.Updated++
	case DecisionSkip:
		s.Discarded++
	}
}
