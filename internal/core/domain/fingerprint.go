package domain

import (
	"encoding/hex"

	"go.trai.ch/zerr"
)

// FingerprintSize is the digest length in bytes.
const FingerprintSize = 32

// Fingerprint is the content digest identifying a normalized geometry description.
type Fingerprint [FingerprintSize]byte

// String returns the lowercase hex form.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns an abbreviated hex form for logs.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// IsZero reports whether f is the zero fingerprint.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFingerprint parses the lowercase hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	if len(s) != 2*FingerprintSize {
		return f, zerr.With(zerr.Wrap(ErrMalformedFingerprint, "wrong length"), "length", len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return f, zerr.With(zerr.Wrap(ErrMalformedFingerprint, "non-hex character"), "offset", i)
		}
	}
	if _, err := hex.Decode(f[:], []byte(s)); err != nil {
		return Fingerprint{}, zerr.With(zerr.Wrap(ErrMalformedFingerprint, "hex decode failed"), "cause", err.Error())
	}
	return f, nil
}
