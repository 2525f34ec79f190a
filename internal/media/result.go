package media

import "encoding/json"

// Status is the outcome of renaming a single file.
type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusRenamed   Status = "renamed"
	StatusFailed    Status = "failed"
)

// RenameResult describes what happened to one referenced file.
type RenameResult struct {
	Label  string `json:"label,omitempty"`
	Status Status `json:"status"`
	Old    string `json:"old"`
	New    string `json:"new,omitempty"`
	Err    error  `json:"-"`
}

// MarshalJSON adds the error text under "error".
func (r RenameResult) MarshalJSON() ([]byte, error) {
	type plain RenameResult
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Outcome is the outcome of an attachment rename.
type Outcome string

const (
	NoChangeNeeded  Outcome = "no_change_needed"
	Success         Outcome = "success"
	PhysicalFailure Outcome = "physical_failure"
)

// Legacy wire values.
const (
	LegacyNoChange        = -1
	LegacyPhysicalFailure = -2
)

// Summary is the result of one attachment rename.
// OldName and NewName are base names. Variants and Backups are only filled
// on success.
type Summary struct {
	AttachmentID int64          `json:"attachment_id"`
	Outcome      Outcome        `json:"outcome"`
	OldName      string         `json:"old_name,omitempty"`
	NewName      string         `json:"new_name,omitempty"`
	Variants     []RenameResult `json:"variants,omitempty"`
	Backups      []RenameResult `json:"backups,omitempty"`
	Err          error          `json:"-"`
}

// LegacyValue encodes the summary as -1, -2 or [old, new].
func (s Summary) LegacyValue() any {
	switch s.Outcome {
	case Success:
		return []string{s.OldName, s.NewName}
	case PhysicalFailure:
		return LegacyPhysicalFailure
	default:
		return LegacyNoChange
	}
}

// FailedVariants counts size variants left under their old name.
func (s Summary) FailedVariants() int {
	n := 0
	for _, r := range s.Variants {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}
