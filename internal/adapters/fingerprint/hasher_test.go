package fingerprint_test

import (
	"math"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/adapters/fingerprint"
	"go.trai.ch/lathe/internal/core/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses whitespace", in: "cube( 10 ) ;\n\n", want: "cube(10);"},
		{name: "keeps word separation", in: "module  box ( )\t{ }", want: "module box(){}"},
		{name: "line comment", in: "cube(1); // size\nsphere(2);", want: "cube(1);sphere(2);"},
		{name: "block comment", in: "cube(/* edge */1);", want: "cube(1);"},
		{name: "comment separates words", in: "a/*x*/b", want: "a b"},
		{name: "crlf", in: "a\r\nb", want: "a b"},
		{name: "string preserved", in: `text( "a  b // c" );`, want: `text("a  b // c");`},
		{name: "escaped quote", in: `echo("say \"hi\"  ok") ;`, want: `echo("say \"hi\"  ok");`},
		{name: "unterminated block comment", in: "cube(1);/* open", want: "cube(1);"},
		{name: "include path preserved", in: "include < my  parts.scad >\ncube(1);", want: "include< my  parts.scad >cube(1);"},
		{name: "use path preserved", in: "use <lib/a  b.scad>", want: "use<lib/a  b.scad>"},
		{name: "comparison not a path", in: "x = a < b ;", want: "x=a<b;"},
		{name: "keyword suffix not a path", in: "reuse < b", want: "reuse<b"},
		{name: "space before fraction kept", in: "f(1 .5)", want: "f(1 .5)"},
		{name: "dot joined", in: "f(1.5)", want: "f(1.5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(fingerprint.Normalize(tt.in)))
		})
	}
}

func TestHasher_IncludePathsDistinguish(t *testing.T) {
	h := fingerprint.NewHasher("v1")
	a := h.Fingerprint(domain.MustGeometry("include <my  file.scad>", nil))
	b := h.Fingerprint(domain.MustGeometry("include <my file.scad>", nil))
	assert.NotEqual(t, a, b)

	c := h.Fingerprint(domain.MustGeometry("f(1 .5);", nil))
	d := h.Fingerprint(domain.MustGeometry("f(1.5);", nil))
	assert.NotEqual(t, c, d)
}

func TestHasher_EquivalentSourcesMatch(t *testing.T) {
	h := fingerprint.NewHasher("openscad-2021.01")
	a := domain.MustGeometry("cube(size);\n", map[string]domain.Param{"size": domain.Number(10)})
	b := domain.MustGeometry("  cube( size ) ; // edge\r\n", map[string]domain.Param{"size": domain.Number(10.0)})

	assert.Equal(t, h.Fingerprint(a), h.Fingerprint(b))
}

func TestHasher_Distinguishes(t *testing.T) {
	h := fingerprint.NewHasher("v1")
	base := domain.MustGeometry("cube(s);", map[string]domain.Param{"s": domain.Number(1)})

	tests := []struct {
		name string
		g    domain.Geometry
	}{
		{name: "param value", g: domain.MustGeometry("cube(s);", map[string]domain.Param{"s": domain.Number(2)})},
		{name: "param kind", g: domain.MustGeometry("cube(s);", map[string]domain.Param{"s": domain.Text("1")})},
		{name: "param name", g: domain.MustGeometry("cube(s);", map[string]domain.Param{"t": domain.Number(1)})},
		{name: "source", g: domain.MustGeometry("sphere(s);", map[string]domain.Param{"s": domain.Number(1)})},
		{name: "no params", g: domain.MustGeometry("cube(s);", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, h.Fingerprint(base), h.Fingerprint(tt.g))
		})
	}
}

func TestHasher_KernelVersionScopesFingerprint(t *testing.T) {
	g := domain.MustGeometry("cube(1);", nil)

	assert.NotEqual(t,
		fingerprint.NewHasher("v1").Fingerprint(g),
		fingerprint.NewHasher("v2").Fingerprint(g))
}

func TestHasher_NegativeZero(t *testing.T) {
	h := fingerprint.NewHasher("v1")
	negZero := domain.MustGeometry("x;", map[string]domain.Param{"a": domain.Number(math.Copysign(0, -1))})
	zero := domain.MustGeometry("x;", map[string]domain.Param{"a": domain.Number(0)})

	assert.Equal(t, h.Fingerprint(zero), h.Fingerprint(negZero))
}

func TestHasher_StableUnderParamOrder(t *testing.T) {
	h := fingerprint.NewHasher("v1")
	rng := rand.New(rand.NewPCG(1, 2))

	for range 50 {
		n := 1 + rng.IntN(8)
		names := make([]string, n)
		values := make([]domain.Param, n)
		for i := range n {
			names[i] = "p" + strconv.Itoa(i)
			if rng.IntN(2) == 0 {
				values[i] = domain.Number(rng.Float64() * 100)
			} else {
				values[i] = domain.Text(strconv.Itoa(rng.IntN(1000)))
			}
		}

		build := func(order []int) domain.Geometry {
			params := make(map[string]domain.Param, n)
			for _, i := range order {
				params[names[i]] = values[i]
			}
			g, err := domain.NewGeometry("thing(p0);", params)
			require.NoError(t, err)
			return g
		}

		first := h.Fingerprint(build(rng.Perm(n)))
		second := h.Fingerprint(build(rng.Perm(n)))
		require.Equal(t, first, second)

		parsed, err := domain.ParseFingerprint(first.String())
		require.NoError(t, err)
		require.Equal(t, first, parsed)
	}
}
