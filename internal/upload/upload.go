// Package upload decides which file inputs on a page should receive the
// resume PDF.
package upload

import (
	"log/slog"
	"strings"

	"github.com/jonathan/resume-autofill/internal/dom"
)

// Keywords holds the substring lists for one side of the decision.
type Keywords struct {
	Attrs  []string
	Labels []string
}

// Rules pairs exclusion and inclusion keywords. Exclusion always wins.
type Rules struct {
	Exclude Keywords
	Include Keywords
}

// DefaultRules are English-only ASCII substrings, plus the accented spelling
// of résumé.
func DefaultRules() Rules {
	return Rules{
		Exclude: Keywords{
			Attrs:  []string{"cover", "coverletter", "cover_letter", "cover-letter", "portfolio", "transcript"},
			Labels: []string{"cover letter", "portfolio", "transcript", "writing sample", "work sample"},
		},
		Include: Keywords{
			Attrs:  []string{"resume", "cv", "curriculum"},
			Labels: []string{"resume", "résumé", "cv", "curriculum vitae"},
		},
	}
}

// Context is the text gathered around one file input.
type Context struct {
	Name      string
	ID        string
	AriaLabel string
	Label     string
	Block     string
}

// ContextOf gathers the lower-cased signals for el.
func ContextOf(el *dom.Element) Context {
	return Context{
		Name:      strings.ToLower(el.Name()),
		ID:        strings.ToLower(el.ID()),
		AriaLabel: strings.ToLower(el.AriaLabel()),
		Label:     strings.ToLower(el.LabelText()),
		Block:     strings.ToLower(el.BlockText()),
	}
}

func (c Context) texts() []string {
	return []string{c.Name, c.ID, c.AriaLabel, c.Label, c.Block}
}

func (k Keywords) matches(c Context) (string, bool) {
	for _, text := range c.texts() {
		if text == "" {
			continue
		}
		for _, kw := range k.Attrs {
			if strings.Contains(text, kw) {
				return kw, true
			}
		}
		for _, kw := range k.Labels {
			if strings.Contains(text, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

// Verdict is the decision for one file input.
type Verdict struct {
	Element  *dom.Element
	Target   bool
	Excluded bool
	Keyword  string
}

// Decide applies the rules to a gathered context.
func (r Rules) Decide(c Context) (target, excluded bool, keyword string) {
	if kw, ok := r.Exclude.matches(c); ok {
		return false, true, kw
	}
	if kw, ok := r.Include.matches(c); ok {
		return true, false, kw
	}
	return false, false, ""
}

// Classifier locates resume-upload targets.
type Classifier struct {
	rules  Rules
	logger *slog.Logger
}

// New creates a Classifier with the given rules.
func New(rules Rules, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{rules: rules, logger: logger}
}

// Evaluate returns a verdict for every enabled file input on the page.
func (c *Classifier) Evaluate(page *dom.Page) []Verdict {
	var out []Verdict
	for _, el := range page.FileInputs() {
		if el.Disabled() {
			continue
		}
		target, excluded, kw := c.rules.Decide(ContextOf(el))
		if excluded {
			c.logger.Debug("file input excluded", "element", el.Describe(), "keyword", kw)
		}
		out = append(out, Verdict{Element: el, Target: target, Excluded: excluded, Keyword: kw})
	}
	return out
}

// Targets returns the file inputs that should receive the resume.
func (c *Classifier) Targets(page *dom.Page) []*dom.Element {
	var out []*dom.Element
	for _, v := range c.Evaluate(page) {
		if v.Target {
			out = append(out, v.Element)
		}
	}
	return out
}
