package models

// Status is the lifecycle state persisted on a candidate.
type Status string

const (
	StatusParsingResume          Status = "parsing_resume"
	StatusPendingDocuments       Status = "pending_documents"
	StatusParseFailed            Status = "parse_failed"
	StatusDocumentRequestPending Status = "document_request_pending"
	StatusDocumentRequested      Status = "document_requested"
	StatusDocumentRequestFailed  Status = "document_request_failed"
	StatusPartiallyCompleted     Status = "partially_completed"
	StatusCompleted              Status = "completed"
)

var allStatuses = []Status{
	StatusParsingResume,
	StatusPendingDocuments,
	StatusParseFailed,
	StatusDocumentRequestPending,
	StatusDocumentRequested,
	StatusDocumentRequestFailed,
	StatusPartiallyCompleted,
	StatusCompleted,
}

// Statuses returns every lifecycle status in pipeline order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Parsed reports whether resume parsing finished successfully for a
// candidate in this status.
func (s Status) Parsed() bool {
	return s.Valid() && s != StatusParsingResume && s != StatusParseFailed
}

// AcceptsDocumentRequest reports whether a document request may move the
// candidate into StatusDocumentRequestPending.
func (s Status) AcceptsDocumentRequest() bool {
	switch s {
	case StatusPendingDocuments, StatusDocumentRequested, StatusDocumentRequestFailed:
		return true
	}
	return false
}
