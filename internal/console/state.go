package console

import (
	"github.com/KaramelBytes/datasense-cli/internal/datafile"
	"github.com/KaramelBytes/datasense-cli/internal/service"
)

// User-facing texts shown when the service gives nothing better.
const (
	DefaultUploadSuccess = "File uploaded successfully."
	DefaultUploadFailure = "An error occurred during file upload"
	DefaultQueryFailure  = "An error occurred during analysis"
	InvalidFileAlert     = "Please upload a valid CSV file."
)

// Record is one completed question with the answer and insights it received.
type Record struct {
	Question string           `json:"question" yaml:"question"`
	Answer   string           `json:"answer" yaml:"answer"`
	Insights service.Insights `json:"insights,omitempty" yaml:"insights,omitempty"`
}

// State is the complete view state of the console. Values are treated as
// immutable: Apply returns a new State and never writes through the old one.
type State struct {
	File         *datafile.File         `json:"file,omitempty" yaml:"file,omitempty"`
	UploadStatus string                 `json:"upload_status,omitempty" yaml:"upload_status,omitempty"`
	UploadFailed bool                   `json:"upload_failed" yaml:"upload_failed"`
	Uploading    bool                   `json:"uploading" yaml:"uploading"`
	Draft        string                 `json:"draft" yaml:"draft"`
	History      []Record               `json:"history" yaml:"history"`
	Busy         bool                   `json:"busy" yaml:"busy"`
	LastResponse *service.QueryResponse `json:"last_response,omitempty" yaml:"last_response,omitempty"`
	Alert        string                 `json:"alert,omitempty" yaml:"alert,omitempty"`
}

// CanAsk reports whether the ask action is enabled.
func (s State) CanAsk() bool { return s.Draft != "" && !s.Busy }

// Event is a state transition input.
type Event interface{ isEvent() }

type (
	// FileSelected records a valid CSV selection before its upload resolves.
	FileSelected struct{ File *datafile.File }
	// FileRejected records a selection that failed the media-type check.
	FileRejected struct {
		Name      string
		MediaType string
	}
	UploadSucceeded struct{ Response *service.UploadResponse }
	UploadFailed    struct{ Err error }
	DraftChanged    struct{ Text string }
	QueryStarted    struct{ Question string }
	QueryAnswered   struct {
		Question string
		Response *service.QueryResponse
	}
	QueryFailed struct {
		Question string
		Err      error
	}
	AlertDismissed struct{}
)

func (FileSelected) isEvent()    {}
func (FileRejected) isEvent()    {}
func (UploadSucceeded) isEvent() {}
func (UploadFailed) isEvent()    {}
func (DraftChanged) isEvent()    {}
func (QueryStarted) isEvent()    {}
func (QueryAnswered) isEvent()   {}
func (QueryFailed) isEvent()     {}
func (AlertDismissed) isEvent()  {}

// Apply returns the state that results from e. It is pure: s is not modified
// and unknown events leave the state as is.
func Apply(s State, e Event) State {
	switch ev := e.(type) {
	case FileSelected:
		s.File = ev.File
		s.Uploading = true
	case FileRejected:
		s.Alert = InvalidFileAlert
	case UploadSucceeded:
		s.Uploading = false
		s.UploadFailed = false
		s.UploadStatus = DefaultUploadSuccess
		if ev.Response != nil && ev.Response.Message != "" {
			s.UploadStatus = ev.Response.Message
		}
	case UploadFailed:
		s.Uploading = false
		s.UploadFailed = true
		s.UploadStatus = Message(ev.Err, DefaultUploadFailure)
	case DraftChanged:
		s.Draft = ev.Text
	case QueryStarted:
		s.Busy = true
	case QueryAnswered:
		s.Busy = false
		s.Draft = ""
		s.LastResponse = ev.Response
		rec := Record{Question: ev.Question}
		if ev.Response != nil {
			rec.Answer = ev.Response.AnalysisResult
			rec.Insights = append(service.Insights(nil), ev.Response.Insights...)
		}
		s.History = appendRecord(s.History, rec)
	case QueryFailed:
		s.Busy = false
		s.Draft = ""
		s.Alert = Message(ev.Err, DefaultQueryFailure)
	case AlertDismissed:
		s.Alert = ""
	}
	return s
}

// appendRecord never shares a backing array with the input slice.
func appendRecord(history []Record, rec Record) []Record {
	out := make([]Record, len(history), len(history)+1)
	copy(out, history)
	return append(out, rec)
}

// Message returns the error text, or fallback when there is none.
func Message(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
