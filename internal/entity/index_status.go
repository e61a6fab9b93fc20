package entity

// FailureKind classifies a failed index operation.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureValidation  FailureKind = "validation"
	FailureNotFound    FailureKind = "not_found"
	FailureUnavailable FailureKind = "unavailable"
	FailurePartial     FailureKind = "partial"
	FailureEngine      FailureKind = "engine"
)

// IndexOperationStatus is the outcome of an index mutation.
type IndexOperationStatus struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Kind    FailureKind `json:"-"`
}

func Succeeded(message string) IndexOperationStatus {
	return IndexOperationStatus{Success: true, Message: message}
}

func Failed(kind FailureKind, message string) IndexOperationStatus {
	return IndexOperationStatus{Message: message, Kind: kind}
}
