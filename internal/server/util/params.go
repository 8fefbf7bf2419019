package util

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
)

// ParseURLList decodes the urls form field, a JSON array of strings.
// Blank entries are dropped.
func ParseURLList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: urls must be a JSON array of strings", common.ErrInvalidInput)
	}
	out := make([]string, 0, len(list))
	for _, u := range list {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

// ParseOptionalInt parses raw when it is not empty. ok is false for an
// absent value.
func ParseOptionalInt(name, raw string) (v int, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be an integer", common.ErrInvalidInput, name)
	}
	return v, true, nil
}
