package pipeline

import "time"

// RunStats tracks aggregate counters across a scan.
type RunStats struct {
	Batches   int           `json:"batches"`    // resolved batches
	Probes    int           `json:"probes"`     // existence checks issued
	Found     int           `json:"found"`      // discovered items
	Gaps      int           `json:"gaps"`       // absent indices inside resolved batches
	LastIndex int           `json:"last_index"` // highest index of the last resolved batch
	Elapsed   time.Duration `json:"elapsed"`
}

// Wasted returns the number of probes that did not yield an item. With
// several extensions per index most probes miss even for a full gallery.
func (s *RunStats) Wasted() int {
	return s.Probes - s.Found
}
