package models

import "strings"

type Status string

const (
	StatusApplied  Status = "Applied"
	StatusRejected Status = "Rejected"
)

// EventKind selects which reconciliation rules apply to an inbound email.
type EventKind string

const (
	EventConfirmation EventKind = "confirmation"
	EventRejection    EventKind = "rejection"
)

// Column names of the persisted ledger, in file order.
const (
	ColCompany     = "company"
	ColRoleTitle   = "role_title"
	ColJobLink     = "job_link"
	ColAppliedDate = "applied_date"
	ColStatus      = "status"
	ColJobText     = "job_text"
	ColSummary     = "summary"
	ColSkills      = "skills"
	ColSalary      = "salary"
)

// Columns is the fixed ledger schema. Storage layers use it at the
// load/persist boundary only.
var Columns = []string{
	ColCompany,
	ColRoleTitle,
	ColJobLink,
	ColAppliedDate,
	ColStatus,
	ColJobText,
	ColSummary,
	ColSkills,
	ColSalary,
}

// JobApplication is one row of the ledger.
type JobApplication struct {
	// Company is taken from the sender header and is best-effort only.
	Company     string `json:"company"`
	RoleTitle   string `json:"role_title"`
	JobLink     string `json:"job_link"`
	AppliedDate string `json:"applied_date"` // YYYY-MM-DD or empty
	Status      Status `json:"status"`
	JobText     string `json:"job_text"`

	Summary string `json:"summary"`
	Skills  string `json:"skills"`
	Salary  string `json:"salary"`

	// Extra holds columns found in the file that are not part of the schema.
	Extra map[string]string `json:"extra,omitempty"`
}

// NeedsEnrichment reports whether the record has no summary yet.
func (j *JobApplication) NeedsEnrichment() bool {
	return strings.TrimSpace(j.Summary) == ""
}

// Get returns the value of a schema column, or an extra column.
func (j *JobApplication) Get(column string) string {
	switch column {
	case ColCompany:
		return j.Company
	case ColRoleTitle:
		return j.RoleTitle
	case ColJobLink:
		return j.JobLink
	case ColAppliedDate:
		return j.AppliedDate
	case ColStatus:
		return string(j.Status)
	case ColJobText:
		return j.JobText
	case ColSummary:
		return j.Summary
	case ColSkills:
		return j.Skills
	case ColSalary:
		return j.Salary
	}
	return j.Extra[column]
}

// Set writes a column value. Unknown columns go to Extra.
func (j *JobApplication) Set(column, value string) {
	switch column {
	case ColCompany:
		j.Company = value
	case ColRoleTitle:
		j.RoleTitle = value
	case ColJobLink:
		j.JobLink = value
	case ColAppliedDate:
		j.AppliedDate = value
	case ColStatus:
		j.Status = Status(value)
	case ColJobText:
		j.JobText = value
	case ColSummary:
		j.Summary = value
	case ColSkills:
		j.Skills = value
	case ColSalary:
		j.Salary = value
	default:
		if j.Extra == nil {
			j.Extra = make(map[string]string)
		}
		j.Extra[column] = value
	}
}

// IsSchemaColumn reports whether name is one of the nine ledger columns.
func IsSchemaColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the ledger.
func Clone(ledger []JobApplication) []JobApplication {
	out := make([]JobApplication, len(ledger))
	for i, rec := range ledger {
		out[i] = rec
		if rec.Extra != nil {
			out[i].Extra = make(map[string]string, len(rec.Extra))
			for k, v := range rec.Extra {
				out[i].Extra[k] = v
			}
		}
	}
	return out
}
