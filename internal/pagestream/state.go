package pagestream

// State is the lifecycle position of a Session.
type State string

const (
	StateOpening     State = "opening"
	StateReady       State = "ready"
	StatePrefetching State = "prefetching"
	StateComplete    State = "complete"
	StateFailed      State = "failed"
	StateClosed      State = "closed"
)

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateClosed
}

// Event announces that a page became available.
type Event struct {
	Index int `json:"index"`
}

// Slot is one entry of the merged page list. Missing pages are placeholders.
type Slot struct {
	Index   int    `json:"index"`
	Ready   bool   `json:"ready"`
	Name    string `json:"name,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}
