package types

// Event is a typed payload emitted when a deal transitions state. Attributes
// hold hex-encoded fields keyed by canonical names.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
