package enums

// Severity tags user-facing outcomes on cart mutations.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	return string(s)
}
