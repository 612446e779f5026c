package dtos

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SummaryResult is the structured output of a summarizer.
type SummaryResult struct {
	Summary string    `json:"summary"`
	Skills  SkillList `json:"skills"`
	Salary  string    `json:"salary"`
}

// SkillList accepts either a JSON array of keywords or a single scalar.
type SkillList struct {
	Items  []string
	Scalar string
	IsList bool
}

// Skills builds a list-valued SkillList.
func Skills(items ...string) SkillList {
	return SkillList{Items: items, IsList: true}
}

// ScalarSkills builds a SkillList from a value that was not a list.
func ScalarSkills(s string) SkillList {
	return SkillList{Scalar: s}
}

func (s *SkillList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = SkillList{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			items = append(items, scalarString(r))
		}
		*s = SkillList{Items: items, IsList: true}
		return nil
	}
	*s = SkillList{Scalar: scalarString(data)}
	return nil
}

func (s SkillList) MarshalJSON() ([]byte, error) {
	if s.IsList {
		items := s.Items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(s.Scalar)
}

// String renders the ledger form: list items joined with ", " in their
// original order, or the scalar as is.
func (s SkillList) String() string {
	if s.IsList {
		return strings.Join(s.Items, ", ")
	}
	return s.Scalar
}

// scalarString returns a JSON string's contents, or the raw literal for
// numbers and booleans.
func scalarString(data json.RawMessage) string {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		return str
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ""
	}
	return string(bytes.TrimSpace(data))
}
