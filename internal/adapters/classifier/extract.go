package classifier

import (
	"bytes"
	"fmt"

	"github.com/zatekoja/mypadicare/internal/domain/providers"
)

// ExtractJSONObject returns the first balanced top-level JSON object in out.
// Text before the first '{' and after its matching '}' is ignored. Braces
// are counted byte-wise, so braces inside string values must balance.
func ExtractJSONObject(out []byte) ([]byte, error) {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, providers.ErrClassifierOutputEmpty
	}

	start := bytes.IndexByte(out, '{')
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON object in output", providers.ErrClassifierOutputInvalid)
	}

	depth := 0
	for i := start; i < len(out); i++ {
		switch out[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return out[start : i+1], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: unbalanced JSON object in output", providers.ErrClassifierOutputInvalid)
}
