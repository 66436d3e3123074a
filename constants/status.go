package constants

// DocumentStatus is the canonical lifecycle status for a receipt document.
type DocumentStatus string

// Stable values (these exact strings cross the wire and the local cache).
const (
	DocumentProcessing DocumentStatus = "PROCESSING" // OCR still running server-side
	DocumentReview     DocumentStatus = "REVIEW"     // fields extracted, awaiting user approval
	DocumentApproved   DocumentStatus = "APPROVED"   // archived
	DocumentFailed     DocumentStatus = "FAILED"     // terminal failure
	DocumentDuplicate  DocumentStatus = "DUPLICATE"  // rejected as an already-known receipt
)

// Valid reports whether s is one of the known statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentProcessing, DocumentReview, DocumentApproved, DocumentFailed, DocumentDuplicate:
		return true
	}
	return false
}

// Terminal reports whether s is a final status the backend will not move past.
func (s DocumentStatus) Terminal() bool {
	switch s {
	case DocumentReview, DocumentApproved, DocumentFailed, DocumentDuplicate:
		return true
	}
	return false
}

// Resolved reports whether s means the document record is ready to fetch
// and act on (approve, edit).
func (s DocumentStatus) Resolved() bool {
	return s == DocumentReview || s == DocumentApproved
}

// JobPhase is the client-side phase of one tracked submission.
type JobPhase string

const (
	PhaseIdle      JobPhase = "IDLE"
	PhaseUploading JobPhase = "UPLOADING"
	PhasePolling   JobPhase = "POLLING"
	PhaseResolved  JobPhase = "RESOLVED"
	PhaseFailed    JobPhase = "FAILED"
	PhaseTimedOut  JobPhase = "TIMED_OUT"
	PhaseDuplicate JobPhase = "DUPLICATE"
)

// Active reports whether p has work in flight (upload or polling).
func (p JobPhase) Active() bool {
	return p == PhaseUploading || p == PhasePolling
}

// Terminal reports whether p is an end state of the tracking run.
func (p JobPhase) Terminal() bool {
	switch p {
	case PhaseResolved, PhaseFailed, PhaseTimedOut, PhaseDuplicate:
		return true
	}
	return false
}

// Retryable reports whether a submission in phase p may be retried.
func (p JobPhase) Retryable() bool {
	return p == PhaseFailed || p == PhaseTimedOut
}
