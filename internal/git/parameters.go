package git

import "github.com/cespare/xxhash/v2"

// Parameters name the two ends of a source code operation.
type Parameters struct {
	SourceLocation      string
	DestinationLocation string
}

// Equal reports whether p and other name the same locations. A nil other is
// never equal.
func (p *Parameters) Equal(other *Parameters) bool {
	if p == nil || other == nil {
		return false
	}
	return p.SourceLocation == other.SourceLocation &&
		p.DestinationLocation == other.DestinationLocation
}

// Hash returns a hash of both locations joined with "_". Equal parameters
// hash equally.
func (p *Parameters) Hash() uint64 {
	return xxhash.Sum64String(p.SourceLocation + "_" + p.DestinationLocation)
}
