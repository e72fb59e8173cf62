package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigNotFound is returned by callers that must abort when a scoring
// system cannot be resolved. The registry itself reports absence with ok=false.
var ErrConfigNotFound = errors.New("score config not found")

// IssueKind classifies a data-quality finding raised while scoring.
type IssueKind string

const (
	IssueUnknownOption   IssueKind = "unknown_option"
	IssueNotNumeric      IssueKind = "not_numeric"
	IssueMissingRequired IssueKind = "missing_required"
	IssueUnclassified    IssueKind = "unclassified"
)

// Issue is one finding. In lenient mode issues are returned as warnings and
// the offending field contributes 0.
type Issue struct {
	FieldID string    `json:"field_id,omitempty"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.FieldID == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.FieldID, i.Kind, i.Message)
}

// ValidationError is returned in strict mode when scoring raised issues.
type ValidationError struct {
	ConfigID string
	Issues   []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		parts[i] = iss.String()
	}
	return fmt.Sprintf("score config %q: %s", e.ConfigID, strings.Join(parts, "; "))
}

// Has reports whether any issue is of kind k.
func (e *ValidationError) Has(k IssueKind) bool {
	for _, iss := range e.Issues {
		if iss.Kind == k {
			return true
		}
	}
	return false
}
