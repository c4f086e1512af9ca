// Package fingerprint computes content fingerprints of geometry descriptions.
package fingerprint

import (
	"crypto/sha256"
	"hash"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

var _ ports.Fingerprinter = (*Hasher)(nil)

// Hasher fingerprints geometry for a specific kernel version.
type Hasher struct {
	kernel string
}

// NewHasher creates a Hasher. The kernel version scopes every fingerprint it produces.
func NewHasher(kernelVersion string) *Hasher {
	return &Hasher{kernel: kernelVersion}
}

// Fingerprint returns the SHA-256 digest of the kernel version, the normalized source
// and the canonical parameters in name order.
func (h *Hasher) Fingerprint(g domain.Geometry) domain.Fingerprint {
	digest := sha256.New()

	_, _ = digest.Write([]byte(h.kernel))
	_, _ = digest.Write([]byte{0}) // Section separator

	_, _ = digest.Write(Normalize(g.Source()))
	_, _ = digest.Write([]byte{0})

	hashParams(g.Params(), digest)

	var fp domain.Fingerprint
	digest.Sum(fp[:0])
	return fp
}

// hashParams writes name=value pairs. Params arrive sorted by name.
func hashParams(params []domain.NamedParam, digest hash.Hash) {
	for _, p := range params {
		_, _ = digest.Write([]byte(p.Name.String()))
		_, _ = digest.Write([]byte{'='})
		_, _ = digest.Write([]byte(p.Value.Canonical()))
		_, _ = digest.Write([]byte{0})
	}
	_, _ = digest.Write([]byte{0})
}
