package app

import (
	"math"
	"strconv"
	"strings"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/zerr"
)

// ParseDefines parses name=value assignments into geometry parameters.
// Values that parse as finite numbers become numbers; double-quoted values are
// unquoted; anything else is kept as text. A later assignment overrides an earlier one.
func ParseDefines(defs []string) (map[string]domain.Param, error) {
	params := make(map[string]domain.Param, len(defs))
	for _, def := range defs {
		name, value, ok := strings.Cut(def, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidParam, "expected name=value"), "define", def)
		}
		p, err := parseValue(strings.TrimSpace(value))
		if err != nil {
			return nil, zerr.With(err, "define", def)
		}
		params[name] = p
	}
	return params, nil
}

func parseValue(raw string) (domain.Param, error) {
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return domain.Param{}, zerr.Wrap(domain.ErrInvalidParam, "malformed quoted string")
		}
		return domain.Text(s), nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return domain.Number(v), nil
	}
	return domain.Text(raw), nil
}
