package domain

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// ParamKind distinguishes numeric from string parameters.
type ParamKind uint8

const (
	// ParamNumber is a numeric parameter.
	ParamNumber ParamKind = iota
	// ParamText is a string parameter.
	ParamText
)

// Param is a single geometry parameter value.
type Param struct {
	kind ParamKind
	num  float64
	text string
}

// Number returns a numeric parameter.
func Number(v float64) Param {
	return Param{kind: ParamNumber, num: v}
}

// Text returns a string parameter.
func Text(s string) Param {
	return Param{kind: ParamText, text: s}
}

// Kind returns the parameter kind.
func (p Param) Kind() ParamKind { return p.kind }

// Float returns the numeric value and whether the parameter is numeric.
func (p Param) Float() (float64, bool) {
	return p.num, p.kind == ParamNumber
}

// Str returns the string value and whether the parameter is a string.
func (p Param) Str() (string, bool) {
	return p.text, p.kind == ParamText
}

// Canonical returns the canonical literal form of the parameter.
// Numbers use the shortest round-tripping representation with -0 folded to 0;
// strings are double-quoted with Go escapes.
func (p Param) Canonical() string {
	if p.kind == ParamText {
		return strconv.Quote(p.text)
	}
	v := p.num
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// NamedParam pairs a parameter with its interned name.
type NamedParam struct {
	Name  InternedString
	Value Param
}

// Geometry is an immutable geometry description: a kernel program plus parameters.
type Geometry struct {
	source string
	params []NamedParam
}

// NewGeometry builds a Geometry. Parameters are copied and sorted by name.
// Non-finite numeric parameters are rejected since they have no canonical form.
func NewGeometry(source string, params map[string]Param) (Geometry, error) {
	named := make([]NamedParam, 0, len(params))
	for name, value := range params {
		if name == "" {
			return Geometry{}, zerr.Wrap(ErrInvalidParam, "empty parameter name")
		}
		if value.kind == ParamNumber && (math.IsNaN(value.num) || math.IsInf(value.num, 0)) {
			return Geometry{}, zerr.With(zerr.Wrap(ErrInvalidParam, "non-finite number"), "param", name)
		}
		named = append(named, NamedParam{Name: NewInternedString(name), Value: value})
	}
	slices.SortFunc(named, func(a, b NamedParam) int {
		return strings.Compare(a.Name.String(), b.Name.String())
	})
	return Geometry{source: source, params: named}, nil
}

// MustGeometry is like NewGeometry but panics on invalid parameters.
func MustGeometry(source string, params map[string]Param) Geometry {
	g, err := NewGeometry(source, params)
	if err != nil {
		panic(err)
	}
	return g
}

// Source returns the kernel program text.
func (g Geometry) Source() string { return g.source }

// Params returns the parameters sorted by name.
func (g Geometry) Params() []NamedParam {
	return slices.Clone(g.params)
}

// Param looks up a parameter by name.
func (g Geometry) Param(name string) (Param, bool) {
	i, found := slices.BinarySearchFunc(g.params, name, func(p NamedParam, n string) int {
		return strings.Compare(p.Name.String(), n)
	})
	if !found {
		return Param{}, false
	}
	return g.params[i].Value, true
}

type geometryJSON struct {
	Source string         `json:"source"`
	Params map[string]any `json:"params,omitempty"`
}

// MarshalJSON serializes the description for the sandbox side channel.
func (g Geometry) MarshalJSON() ([]byte, error) {
	out := geometryJSON{Source: g.source}
	if len(g.params) > 0 {
		out.Params = make(map[string]any, len(g.params))
		for _, p := range g.params {
			if s, ok := p.Value.Str(); ok {
				out.Params[p.Name.String()] = s
			} else {
				out.Params[p.Name.String()] = p.Value.num
			}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a description serialized by MarshalJSON.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var in geometryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	params := make(map[string]Param, len(in.Params))
	for name, raw := range in.Params {
		switch v := raw.(type) {
		case string:
			params[name] = Text(v)
		case float64:
			params[name] = Number(v)
		default:
			return zerr.With(zerr.Wrap(ErrInvalidParam, "unsupported parameter type"), "param", name)
		}
	}
	parsed, err := NewGeometry(in.Source, params)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
