package process

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"

	"github.com/KimmieDC/qsdsan/internal/symbolic"
)

// domainProcessSet versions the content-addressed identity of a
// compiled process set. Bump on any change to the canonical form.
const domainProcessSet = "qsdsan/process-set/v1"

// hashProcessSet computes the compile-cache key: a SHA-256 over the
// domain tag and the canonical ordered (ID, coefficients, rate) tuple
// of every member process. Strings are NFC normalized so visually
// identical IDs hash identically; null separators keep field
// boundaries unambiguous.
//
// Keying by content instead of object identity means two structurally
// identical, same-order process sets share one compiled instance - a
// slightly broader identity than pointer equality, and the one callers
// actually want.
func hashProcessSet(procs []*Process) string {
	h := sha256.New()
	h.Write([]byte(domainProcessSet))
	h.Write([]byte{0x00})
	for _, p := range procs {
		h.Write([]byte(norm.NFC.String(p.id)))
		h.Write([]byte{0x00})
		ids := p.cmps.IDs()
		for i, c := range p.coeffs {
			if v, ok := symbolic.IsNum(c); ok && v == 0 {
				continue
			}
			h.Write([]byte(norm.NFC.String(ids[i])))
			h.Write([]byte{0x1f})
			h.Write([]byte(norm.NFC.String(c.String())))
			h.Write([]byte{0x00})
		}
		h.Write([]byte{0x1e})
		h.Write([]byte(norm.NFC.String(p.rate.String())))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}
