package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/brushwork/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// argList splits the arguments of a builtin call into positional values
// and :keyword values. The first failed conversion sticks in err and later
// reads return zero values, so a form can read all of its arguments and
// check err once.
type argList struct {
	positional []zygo.Sexp
	kw         map[string]zygo.Sexp
	err        error
}

func newArgList(args []zygo.Sexp) *argList {
	a := &argList{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := keyword(args[i])
		if !ok {
			a.positional = append(a.positional, args[i])
			continue
		}
		if i+1 == len(args) {
			// A trailing keyword is a flag.
			a.kw[name] = zygo.SexpNull
			continue
		}
		a.kw[name] = args[i+1]
		i++
	}
	return a
}

func (a *argList) has(name string) bool {
	_, ok := a.kw[name]
	return ok
}

// read converts keyword name with conv, leaving *dst alone if the keyword
// is absent.
func read[T any](a *argList, name string, dst *T, conv func(zygo.Sexp) (T, error)) {
	v, ok := a.kw[name]
	if !ok || a.err != nil {
		return
	}
	x, err := conv(v)
	if err != nil {
		a.err = fmt.Errorf("%s: %w", name, err)
		return
	}
	*dst = x
}

func (a *argList) number(name string, dst *float64) { read(a, name, dst, number) }
func (a *argList) integer(name string, dst *int)    { read(a, name, dst, integer) }
func (a *argList) text(name string, dst *string)    { read(a, name, dst, text) }
func (a *argList) vec(name string, dst *graph.Vec3) { read(a, name, dst, vec) }

// optVec returns keyword name as a vector, or nil if it is absent.
func (a *argList) optVec(name string) *graph.Vec3 {
	if !a.has(name) {
		return nil
	}
	var v graph.Vec3
	a.vec(name, &v)
	return &v
}

// keyword reports whether s is a :keyword rewritten by preprocessSource.
func keyword(s zygo.Sexp) (string, bool) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return strings.CutPrefix(str.S, kwPrefix)
	}
	return "", false
}

func mismatch(want string, s zygo.Sexp) error {
	return fmt.Errorf("expected %s, got %T (%s)", want, s, s.SexpString(nil))
}

func number(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, mismatch("number", s)
}

func integer(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, mismatch("integer", s)
}

// text accepts a string or a keyword, so :stone and "stone" are the same
// texture name.
func text(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", mismatch("string", s)
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func vec(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*vecValue); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, mismatch("vec3", s)
}

// items returns the elements of a list or array.
func items(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	}
	if s == zygo.SexpNull {
		return nil, nil
	}
	return nil, mismatch("list or array", s)
}
