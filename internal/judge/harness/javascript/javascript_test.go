package javascript

import (
	"strings"
	"testing"

	"github.com/jjudge/judge-api/internal/judge/harness"
)

func TestGenerateEmbedsFunctionAndCases(t *testing.T) {
	cases := []harness.NormalizedCase{
		{ID: "1", Inputs: map[string]any{"a": int64(1), "b": int64(2)}, ExpectedOutput: int64(3)},
	}
	out, err := Generate("add", []string{"a", "b"}, cases)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(out, "add(..._args)") {
		t.Error("driver does not spread-invoke the declared function")
	}
	if !strings.Contains(out, `\"id\":\"1\"`) {
		t.Error("driver does not embed the case id")
	}
	if !strings.Contains(out, "console.log(JSON.stringify(_ajudgeResults))") {
		t.Error("driver does not emit the results array")
	}
}
