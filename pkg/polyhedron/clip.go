package polyhedron

import (
	"errors"
	"fmt"

	"github.com/chazu/brushwork/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Clip cuts away the part of p above plane and returns the remainder. The
// face created on the cutting plane carries payload; surviving faces keep
// theirs. Clip returns ErrUnchanged if no vertex lies above the plane and
// ErrEmpty if no vertex lies below it.
func (p *Polyhedron) Clip(plane geom.Plane, payload int) (*Polyhedron, error) {
	if p.state != StatePolyhedron {
		return nil, fmt.Errorf("%w: cannot clip %s", ErrDegenerate, p.state)
	}

	status := make([]geom.PointStatus, len(p.vertices))
	above, below := 0, 0
	for i, v := range p.vertices {
		status[i] = plane.PointStatus(v.Position)
		switch status[i] {
		case geom.Above:
			above++
		case geom.Below:
			below++
		}
	}
	if above == 0 {
		return nil, ErrUnchanged
	}
	if below == 0 {
		return nil, ErrEmpty
	}

	points := make([]v3.Vec, 0, len(p.vertices)+len(p.edges))
	for i, v := range p.vertices {
		if status[i] != geom.Above {
			points = append(points, v.Position)
		}
	}
	for _, e := range p.edges {
		h := p.halfEdges[e.First]
		a, b := h.Origin, p.Destination(e.First)
		sa, sb := status[a], status[b]
		if (sa == geom.Above && sb == geom.Below) || (sa == geom.Below && sb == geom.Above) {
			pa, pb := p.vertices[a].Position, p.vertices[b].Position
			da, db := plane.PointDistance(pa), plane.PointDistance(pb)
			t := da / (da - db)
			points = append(points, pa.Add(pb.Sub(pa).MulScalar(t)))
		}
	}

	hints := make([]hint, 0, len(p.faces)+1)
	for _, f := range p.faces {
		hints = append(hints, hint{plane: f.Plane, payload: f.Payload})
	}
	hints = append(hints, hint{plane: plane, payload: payload})

	r, err := build(points, hints)
	if err != nil {
		return nil, err
	}
	if r.state != StatePolyhedron {
		return nil, ErrEmpty
	}
	return r, nil
}

// ClipAll clips p by every plane in turn. Planes that leave the result
// unchanged are skipped. It returns ErrEmpty as soon as nothing remains.
func (p *Polyhedron) ClipAll(planes []geom.Plane) (*Polyhedron, error) {
	r := p
	for _, plane := range planes {
		c, err := r.Clip(plane, None)
		switch {
		case errors.Is(err, ErrUnchanged):
			continue
		case err != nil:
			return nil, err
		}
		r = c
	}
	return r, nil
}

// Planes returns the planes of all faces.
func (p *Polyhedron) Planes() []geom.Plane {
	r := make([]geom.Plane, len(p.faces))
	for i, f := range p.faces {
		r[i] = f.Plane
	}
	return r
}

// Intersect returns the common volume of p and o, or ErrEmpty if they do
// not overlap.
func (p *Polyhedron) Intersect(o *Polyhedron) (*Polyhedron, error) {
	if p.state != StatePolyhedron || o.state != StatePolyhedron {
		return nil, ErrEmpty
	}
	return p.ClipAll(o.Planes())
}

// Subtract returns convex pieces covering p minus o. The pieces do not
// overlap. If o does not intersect p the result is a single copy of p; if o
// encloses p the result is empty.
func (p *Polyhedron) Subtract(o *Polyhedron) ([]*Polyhedron, error) {
	if p.state != StatePolyhedron {
		return nil, fmt.Errorf("%w: cannot subtract from %s", ErrDegenerate, p.state)
	}
	if o.state != StatePolyhedron {
		return []*Polyhedron{p.Clone()}, nil
	}
	cut, err := o.Intersect(p)
	if errors.Is(err, ErrEmpty) {
		return []*Polyhedron{p.Clone()}, nil
	}
	if err != nil {
		return nil, err
	}

	var pieces []*Polyhedron
	remaining := p
	for _, f := range cut.faces {
		outside, err := remaining.Clip(f.Plane.Flip(), None)
		switch {
		case errors.Is(err, ErrEmpty), errors.Is(err, ErrUnchanged):
		case err != nil:
			return nil, err
		default:
			pieces = append(pieces, outside)
		}

		inside, err := remaining.Clip(f.Plane, None)
		if errors.Is(err, ErrEmpty) {
			break
		}
		if errors.Is(err, ErrUnchanged) {
			continue
		}
		if err != nil {
			return nil, err
		}
		remaining = inside
	}
	return pieces, nil
}
