package dtos

type SyncRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type SyncResponse struct {
	RunID      string `json:"run_id"`
	Mode       string `json:"mode"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	Total      int    `json:"total"`
}

type EnrichResponse struct {
	RunID    string   `json:"run_id"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Failures []string `json:"failures,omitempty"`
}

// ApplicationCreationRequest is a manual ledger entry.
type ApplicationCreationRequest struct {
	CompanyName string `json:"company" binding:"required"`
	Title       string `json:"role_title" binding:"required"`

	// Optional Fields
	JobLink     string `json:"job_link"`
	AppliedDate string `json:"applied_date"`
	Status      string `json:"status"` // Defaults to "Applied" if empty
	JobText     string `json:"job_text"`
}
