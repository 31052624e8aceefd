package style

import "strings"

// Style selects the tone overlay applied on top of the base apology prompt.
type Style string

const (
	Gentle     Style = "gentle"
	Formal     Style = "formal"
	Empathetic Style = "empathetic"
)

// Default is used whenever a request omits the style or names an unknown one.
const Default = Gentle

// All lists the supported styles in display order.
var All = []Style{Gentle, Formal, Empathetic}

// Parse maps free-form input to a known style. ok is false when the input is not
// recognised, in which case Default is returned.
func Parse(raw string) (Style, bool) {
	s := Style(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range All {
		if s == known {
			return s, true
		}
	}
	return Default, false
}

// Normalize returns s when it is a known style and Default otherwise.
func Normalize(s Style) Style {
	resolved, _ := Parse(string(s))
	return resolved
}

// Example is a sample exchange that illustrates a style.
type Example struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Profile captures the prompt overlay and presentation data for a style.
type Profile struct {
	ID          Style   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prompt      string  `json:"-"`
	Example     Example `json:"example"`
}
