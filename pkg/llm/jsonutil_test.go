package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"result":"next"}`, `{"result":"next"}`},
		{"fenced", "```json\n{\"result\":\"next\"}\n```", `{"result":"next"}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! {"result":"continue","talking":"ok"} hope this helps`, `{"result":"continue","talking":"ok"}`},
		{"trailing comma", `{"a":1,}`, `{"a":1}`},
		{"no object", "I cannot answer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}
