// Package meshcodec decodes and encodes kernel mesh output in binary and text STL.
package meshcodec

import (
	"bytes"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	headerSize   = 80
	countSize    = 4
	prefixSize   = headerSize + countSize
	triangleSize = 12*4 + 2
)

var _ ports.MeshCodec = (*Codec)(nil)

// Codec implements ports.MeshCodec. It holds no state.
type Codec struct{}

// New creates a Codec.
func New() *Codec {
	return &Codec{}
}

// Decode detects the format and parses data into a validated mesh.
//
// A binary layout is accepted only when the declared triangle count matches the byte
// length exactly. Otherwise input starting with the "solid" keyword is parsed as
// text. Remaining inputs are truncated binary when the declared content exceeds the
// available bytes, and unsupported otherwise.
func (c *Codec) Decode(data []byte) (*domain.Mesh, error) {
	if len(data) >= prefixSize {
		declared := binaryCount(data)
		if binarySize(declared) == int64(len(data)) {
			return decodeBinary(data, int(declared))
		}
	}

	if looksLikeText(data) {
		return decodeText(data)
	}

	if len(data) < prefixSize {
		return nil, decodeErr(domain.ErrTruncatedInput, "input shorter than binary header",
			"actual", len(data), "required", prefixSize)
	}

	declared := binaryCount(data)
	if binarySize(declared) > int64(len(data)) {
		return nil, decodeErr(domain.ErrTruncatedInput, "binary mesh ends before declared triangles",
			"declared", declared, "actual", (len(data)-prefixSize)/triangleSize)
	}
	return nil, decodeErr(domain.ErrUnsupportedFormat, "trailing bytes after declared triangles",
		"declared", declared, "length", len(data))
}

func binarySize(count uint32) int64 {
	return int64(prefixSize) + int64(count)*triangleSize
}

func looksLikeText(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return false
	}
	rest := trimmed[len("solid"):]
	return len(rest) == 0 || isSpace(rest[0])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// finalize validates coordinates and repairs degenerate normals.
func finalize(m *domain.Mesh) (*domain.Mesh, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	for i := range m.Triangles {
		t := &m.Triangles[i]
		if !t.Normal.IsFinite() || t.Normal.Length() == 0 {
			t.Normal = t.WindingNormal()
		}
	}
	return m, nil
}

func decodeErr(sentinel error, msg string, kv ...any) error {
	err := zerr.Wrap(sentinel, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}
