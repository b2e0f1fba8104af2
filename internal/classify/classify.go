package classify

import (
	"log/slog"
	"strings"

	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/types"
)

// Signal names the check that produced a match.
type Signal string

const (
	SignalType         Signal = "type"
	SignalAutocomplete Signal = "autocomplete"
	SignalAttribute    Signal = "attribute"
	SignalLabel        Signal = "label"
)

// Attributes are the observable properties of an input consulted by the
// rule table. Strings are lower-cased by AttributesOf.
type Attributes struct {
	Type         string
	Name         string
	ID           string
	Autocomplete string
	Label        string
	Placeholder  string
	AriaLabel    string
}

// AttributesOf reads the classification attributes from an element.
func AttributesOf(el *dom.Element) Attributes {
	return Attributes{
		Type:         strings.ToLower(el.Type()),
		Name:         strings.ToLower(el.Name()),
		ID:           strings.ToLower(el.ID()),
		Autocomplete: strings.ToLower(el.Autocomplete()),
		Label:        strings.ToLower(el.LabelText()),
		Placeholder:  strings.ToLower(el.Placeholder()),
		AriaLabel:    strings.ToLower(el.AriaLabel()),
	}
}

// Match returns the first pattern satisfied by attrs. Each pattern is tried
// in order with its type, autocomplete, name/id and label checks before the
// next pattern is considered.
func (rt RuleTable) Match(attrs Attributes) (types.FieldName, Signal, bool) {
	for _, p := range rt {
		if sig, ok := p.match(attrs); ok {
			return p.Field, sig, true
		}
	}
	return "", "", false
}

func (p Pattern) match(a Attributes) (Signal, bool) {
	for _, t := range p.Types {
		if a.Type == t {
			return SignalType, true
		}
	}
	if a.Autocomplete != "" && containsAny(a.Autocomplete, p.Attrs) {
		return SignalAutocomplete, true
	}
	for _, attr := range p.Attrs {
		if strings.Contains(a.Name, attr) || strings.Contains(a.ID, attr) {
			return SignalAttribute, true
		}
	}
	for _, label := range p.Labels {
		if strings.Contains(a.Label, label) || strings.Contains(a.Placeholder, label) || strings.Contains(a.AriaLabel, label) {
			return SignalLabel, true
		}
	}
	return "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Classify returns the field an element most likely represents.
func Classify(el *dom.Element, rules RuleTable) (types.FieldName, bool) {
	field, _, ok := rules.Match(AttributesOf(el))
	return field, ok
}

// Skip reasons reported by Eligible.
const (
	SkipHidden    = "hidden"
	SkipDisabled  = "disabled"
	SkipReadOnly  = "readonly"
	SkipType      = "type"
	SkipPrefilled = "prefilled"
)

var ineligibleTypes = map[string]bool{
	"file":     true,
	"submit":   true,
	"button":   true,
	"reset":    true,
	"image":    true,
	"checkbox": true,
	"radio":    true,
	"range":    true,
	"color":    true,
}

// Eligible reports whether the fill engine may write to el, and if not, why.
// Inputs already holding a non-blank value are never touched.
func Eligible(el *dom.Element) (bool, string) {
	switch {
	case el.Hidden():
		return false, SkipHidden
	case el.Disabled():
		return false, SkipDisabled
	case el.ReadOnly():
		return false, SkipReadOnly
	case ineligibleTypes[el.Type()]:
		return false, SkipType
	case strings.TrimSpace(el.Value()) != "":
		return false, SkipPrefilled
	}
	return true, ""
}

// Detection associates one page input with at most one field.
type Detection struct {
	Element *dom.Element
	Field   types.FieldName
	Signal  Signal
	Skip    string
}

// Matched reports whether the input was eligible and classified.
func (d Detection) Matched() bool {
	return d.Skip == "" && d.Field != ""
}

// Classifier scans pages with a fixed rule table.
type Classifier struct {
	rules  RuleTable
	logger *slog.Logger
}

// New creates a Classifier. A nil rules table uses DefaultRules.
func New(rules RuleTable, logger *slog.Logger) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{rules: rules, logger: logger}
}

// Rules returns the table the classifier uses.
func (c *Classifier) Rules() RuleTable { return c.rules }

// Scan classifies every input, textarea and select on the page in document
// order. Ineligible inputs carry a skip reason and no field.
func (c *Classifier) Scan(page *dom.Page) []Detection {
	inputs := page.Inputs()
	out := make([]Detection, 0, len(inputs))
	for _, el := range inputs {
		if ok, reason := Eligible(el); !ok {
			out = append(out, Detection{Element: el, Skip: reason})
			continue
		}
		field, sig, ok := c.rules.Match(AttributesOf(el))
		if !ok {
			c.logger.Debug("no field matched", "element", el.Describe())
		}
		out = append(out, Detection{Element: el, Field: field, Signal: sig})
	}
	return out
}

// Matched filters detections down to classified, eligible inputs.
func Matched(detections []Detection) []Detection {
	var out []Detection
	for _, d := range detections {
		if d.Matched() {
			out = append(out, d)
		}
	}
	return out
}
