package meshcodec

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"go.trai.ch/lathe/internal/core/domain"
)

// tokenizer yields whitespace-delimited words and tracks the current line.
type tokenizer struct {
	words []string
	lines []int
	pos   int
}

func tokenize(data []byte) *tokenizer {
	tk := &tokenizer{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	for sc.Scan() {
		line++
		for _, w := range strings.Fields(sc.Text()) {
			tk.words = append(tk.words, w)
			tk.lines = append(tk.lines, line)
		}
	}
	return tk
}

func (tk *tokenizer) next() (string, bool) {
	if tk.pos >= len(tk.words) {
		return "", false
	}
	w := tk.words[tk.pos]
	tk.pos++
	return w, true
}

func (tk *tokenizer) peek() (string, bool) {
	if tk.pos >= len(tk.words) {
		return "", false
	}
	return tk.words[tk.pos], true
}

// skipLine consumes the remaining words on the line of the last consumed word.
func (tk *tokenizer) skipLine() {
	current := tk.line()
	for tk.pos < len(tk.words) && tk.lines[tk.pos] == current {
		tk.pos++
	}
}

func (tk *tokenizer) line() int {
	if tk.pos == 0 || len(tk.lines) == 0 {
		return 0
	}
	return tk.lines[tk.pos-1]
}

func (tk *tokenizer) expect(keyword string) error {
	w, ok := tk.next()
	if !ok {
		return decodeErr(domain.ErrTruncatedInput, "text mesh ended early", "expected", keyword, "line", tk.line())
	}
	if w != keyword {
		return decodeErr(domain.ErrInvalidGeometry, "unexpected keyword",
			"expected", keyword, "got", w, "line", tk.line())
	}
	return nil
}

func (tk *tokenizer) vec() (domain.Vec3, error) {
	var v domain.Vec3
	for i := range 3 {
		w, ok := tk.next()
		if !ok {
			return v, decodeErr(domain.ErrTruncatedInput, "text mesh ended inside a coordinate", "line", tk.line())
		}
		f, err := strconv.ParseFloat(w, 32)
		if err != nil {
			return v, decodeErr(domain.ErrInvalidGeometry, "coordinate is not a number", "value", w, "line", tk.line())
		}
		v[i] = float32(f)
	}
	return v, nil
}

func decodeText(data []byte) (*domain.Mesh, error) {
	tk := tokenize(data)
	if err := tk.expect("solid"); err != nil {
		return nil, err
	}
	// The solid name is the rest of the solid line, whatever words it holds.
	tk.skipLine()
	if _, ok := tk.peek(); !ok {
		return nil, decodeErr(domain.ErrTruncatedInput, "text mesh missing endsolid", "line", tk.line())
	}

	m := &domain.Mesh{}
	for {
		w, _ := tk.next()
		if w == "endsolid" {
			break
		}
		if w != "facet" {
			return nil, decodeErr(domain.ErrInvalidGeometry, "expected facet or endsolid", "got", w, "line", tk.line())
		}
		t, err := decodeFacet(tk, len(m.Triangles))
		if err != nil {
			return nil, err
		}
		m.Triangles = append(m.Triangles, t)
		if _, ok := tk.peek(); !ok {
			return nil, decodeErr(domain.ErrTruncatedInput, "text mesh missing endsolid", "line", tk.line())
		}
	}
	return finalize(m)
}

// decodeFacet parses one facet after its leading "facet" keyword has been consumed.
func decodeFacet(tk *tokenizer, index int) (domain.Triangle, error) {
	var t domain.Triangle
	if err := tk.expect("normal"); err != nil {
		return t, err
	}
	n, err := tk.vec()
	if err != nil {
		return t, err
	}
	t.Normal = n
	if err := tk.expect("outer"); err != nil {
		return t, err
	}
	if err := tk.expect("loop"); err != nil {
		return t, err
	}
	count := 0
	for {
		w, ok := tk.next()
		if !ok {
			return t, decodeErr(domain.ErrTruncatedInput, "text mesh ended inside a facet", "facet", index)
		}
		if w == "endloop" {
			break
		}
		if w != "vertex" {
			return t, decodeErr(domain.ErrInvalidGeometry, "unexpected keyword in loop",
				"got", w, "facet", index, "line", tk.line())
		}
		v, err := tk.vec()
		if err != nil {
			return t, err
		}
		if count < 3 {
			t.Vertices[count] = v
		}
		count++
	}
	if count != 3 {
		return t, decodeErr(domain.ErrInvalidGeometry, "facet must have exactly three vertices",
			"facet", index, "vertices", count)
	}
	if err := tk.expect("endfacet"); err != nil {
		return t, err
	}
	return t, nil
}

// EncodeText writes m in the text layout under the given solid name.
func (c *Codec) EncodeText(m *domain.Mesh, name string) []byte {
	var b bytes.Buffer
	b.WriteString("solid ")
	b.WriteString(name)
	b.WriteByte('\n')
	for _, t := range m.Triangles {
		b.WriteString("  facet normal ")
		writeVec(&b, t.FaceNormal())
		b.WriteString("\n    outer loop\n")
		for _, v := range t.Vertices {
			b.WriteString("      vertex ")
			writeVec(&b, v)
			b.WriteByte('\n')
		}
		b.WriteString("    endloop\n  endfacet\n")
	}
	b.WriteString("endsolid ")
	b.WriteString(name)
	b.WriteByte('\n')
	return b.Bytes()
}

func writeVec(b *bytes.Buffer, v domain.Vec3) {
	for i, c := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(float64(c), 'g', -1, 32))
	}
}
