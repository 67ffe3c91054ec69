package domain

// Garbage is an object store key which no artifact record points at anymore.
//
// Such keys are left behind when a project or run is deleted,
// and are swept out of the object store by the gc loop.
type Garbage struct {
	// Key is the object key in the artifact bucket.
	Key string

	// RunId is the run which wrote the object. For tracing only.
	RunId string
}

func (g Garbage) Equal(other Garbage) bool {
	return g.Key == other.Key && g.RunId == other.RunId
}
