package brush

import "errors"

var (
	// ErrColinearPoints is returned when three face points do not span a
	// plane.
	ErrColinearPoints = errors.New("brush: colinear face points")
	// ErrEmptyBrush is returned when the faces of a brush enclose no
	// volume.
	ErrEmptyBrush = errors.New("brush: brush is empty")
	// ErrIncompleteBrush is returned when the faces of a brush do not close
	// a solid inside the world bounds.
	ErrIncompleteBrush = errors.New("brush: brush is not fully specified")
	// ErrIllegalMove is returned when an edit would break the brush.
	ErrIllegalMove = errors.New("brush: illegal move")
	// ErrOutOfBounds is returned when an edit would leave the world bounds.
	ErrOutOfBounds = errors.New("brush: out of world bounds")
	// ErrUnchanged is returned when a clip face does not cut the brush.
	ErrUnchanged = errors.New("brush: brush unchanged")
)
