package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"oss-clearance-be/pkg/llm"
)

var (
	ErrMalformedReply = errors.New("assistant reply is not the required JSON object")
	errMissingKeys    = errors.New("reply lacks result or talking")
)

// Verdict is the structured reply of the classifier.
type Verdict struct {
	Result  string
	Talking string
	// Fields holds the whole object, including phase specific keys such as
	// is_oem_approved or main_license.
	Fields map[string]any
}

// Bool reads a boolean field. ok is false when the field is absent or not a
// boolean-like value.
func (v Verdict) Bool(key string) (value, ok bool) {
	switch t := v.Fields[key].(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(t) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}

func (v Verdict) String(key string) string {
	s, _ := v.Fields[key].(string)
	return strings.TrimSpace(s)
}

// ParseVerdict decodes a model reply that must carry result and talking.
func ParseVerdict(reply string) (Verdict, error) {
	raw := llm.ExtractJSON(reply)
	if raw == "" {
		return Verdict{}, fmt.Errorf("no JSON object in reply")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Verdict{}, fmt.Errorf("decode reply: %w", err)
	}
	result, rok := fields["result"].(string)
	talking, tok := fields["talking"].(string)
	if !rok || !tok {
		return Verdict{}, errMissingKeys
	}
	return Verdict{
		Result:  strings.ToLower(strings.TrimSpace(result)),
		Talking: talking,
		Fields:  fields,
	}, nil
}
