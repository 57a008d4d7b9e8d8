package entity

import "slices"

// DegradedContent flags a successfully returned record that misses one or
// more fields because the upstream data had gaps. It is not an error.
type DegradedContent struct {
	Degraded bool     `json:"degraded"`
	Missing  []string `json:"missing,omitempty"`
}

// MarkMissing flags the record as degraded and records the missing field once.
func (d *DegradedContent) MarkMissing(field string) {
	d.Degraded = true

	if !slices.Contains(d.Missing, field) {
		d.Missing = append(d.Missing, field)
	}
}
