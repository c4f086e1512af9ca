package domain

import "time"

// Outcome is the terminal result of one render computation.
// A Ready outcome has Err == nil. A Failed outcome has Err set and may carry a
// degraded Mesh from the fallback chain.
type Outcome struct {
	Mesh       *Mesh
	Degraded   bool
	Source     string
	Err        error
	ProducedAt time.Time
}

// Failed reports whether the outcome is a failure (degraded or not).
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// HasMesh reports whether the outcome carries a renderable mesh.
func (o Outcome) HasMesh() bool {
	return o.Mesh != nil
}
