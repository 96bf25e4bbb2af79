package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// QueryRequest is the JSON body sent to the query endpoint.
type QueryRequest struct {
	Query string `json:"query"`
}

// UploadResponse is the decoded body of a successful upload.
// Message is optional; callers fall back to their own default text.
type UploadResponse struct {
	Message   string `json:"message,omitempty"`
	RequestID string `json:"-"`
}

// QueryResponse is the decoded body of a successful query.
type QueryResponse struct {
	AnalysisResult string   `json:"analysis_result"`
	Insights       Insights `json:"insights,omitempty"`
	RequestID      string   `json:"-"`
}

// Insights holds the auxiliary bullet points returned with an answer.
// The service sends either a single string or an array of strings.
type Insights []string

func (in *Insights) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*in = nil
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*in = nil
			return nil
		}
		*in = Insights{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*in = list
	return nil
}

// String joins the insights one per line.
func (in Insights) String() string { return strings.Join(in, "\n") }

// wire shape used to detect missing required fields
type queryPayload struct {
	AnalysisResult *string  `json:"analysis_result"`
	Insights       Insights `json:"insights"`
}
