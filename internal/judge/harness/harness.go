package harness

// Case is the embed-ready form of a normalized case: every Value has
// already been converted back to a plain JSON-able Go value via
// Value.Raw(), so the only job left for EmbedJSON is producing a string
// literal the driver's own JSON library decodes.
type Case struct {
	ID       string         `json:"id"`
	Inputs   map[string]any `json:"inputs"`
	Expected any            `json:"expected"`
}

// NormalizedCase mirrors judge.NormalizedCase's shape without importing
// package judge, avoiding an import cycle (judge imports harness, not the
// reverse).
type NormalizedCase struct {
	ID             string
	Inputs         map[string]any
	ExpectedOutput any
}

// ToCases converts normalized cases into their embed-ready form.
func ToCases(cases []NormalizedCase) []Case {
	out := make([]Case, 0, len(cases))
	for _, c := range cases {
		out = append(out, Case{ID: c.ID, Inputs: c.Inputs, Expected: c.ExpectedOutput})
	}
	return out
}
