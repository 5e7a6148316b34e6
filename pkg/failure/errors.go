package failure

type Severity int

// pipeline control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is returned by every component that can fail.
// Severity decides whether the caller degrades or aborts.
type ClassifiedError interface {
	error
	Severity() Severity
}
