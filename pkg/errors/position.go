package errors

import "escore/pkg/source"

// Position represents a specific location in the source code.
// Line and column are 1-based; offsets are 0-based byte offsets.
type Position struct {
	Line     int
	Column   int
	StartPos int
	EndPos   int
	Source   *source.SourceFile
}

// IsValid reports whether the position carries line information.
func (p Position) IsValid() bool { return p.Line > 0 }
