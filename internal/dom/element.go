package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockAncestors are the containers whose text is gathered as nearby context.
const blockAncestors = "div, section, fieldset"

// Element is one node of a Page.
type Element struct {
	sel  *goquery.Selection
	page *Page
}

// Option is one choice of a select element.
type Option struct {
	Text     string
	Value    string
	Selected bool
}

// Selection exposes the underlying goquery selection.
func (e *Element) Selection() *goquery.Selection { return e.sel }

// Node returns the underlying HTML node, usable as an identity key.
func (e *Element) Node() *html.Node {
	if len(e.sel.Nodes) == 0 {
		return nil
	}
	return e.sel.Nodes[0]
}

// Attr returns an attribute value, empty when absent.
func (e *Element) Attr(name string) string {
	v, _ := e.sel.Attr(name)
	return v
}

// HasAttr reports whether the attribute is present, whatever its value.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.sel.Attr(name)
	return ok
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return strings.ToLower(goquery.NodeName(e.sel))
}

// Type mirrors the DOM type property: the input type defaulting to "text",
// "textarea", or "select-one"/"select-multiple".
func (e *Element) Type() string {
	switch e.Tag() {
	case "textarea":
		return "textarea"
	case "select":
		if e.HasAttr("multiple") {
			return "select-multiple"
		}
		return "select-one"
	}
	t := strings.ToLower(strings.TrimSpace(e.Attr("type")))
	if t == "" {
		return "text"
	}
	return t
}

// IsSelect reports whether the element is a select.
func (e *Element) IsSelect() bool { return e.Tag() == "select" }

// Name returns the name attribute.
func (e *Element) Name() string { return e.Attr("name") }

// ID returns the id attribute.
func (e *Element) ID() string { return e.Attr("id") }

// Autocomplete returns the autocomplete attribute.
func (e *Element) Autocomplete() string { return e.Attr("autocomplete") }

// Placeholder returns the placeholder attribute.
func (e *Element) Placeholder() string { return e.Attr("placeholder") }

// AriaLabel returns the aria-label attribute.
func (e *Element) AriaLabel() string { return e.Attr("aria-label") }

// Hidden reports a hidden input or an element carrying the hidden attribute.
func (e *Element) Hidden() bool {
	return e.Type() == "hidden" || e.HasAttr("hidden") || e.Attr("aria-hidden") == "true"
}

// Disabled reports the disabled attribute.
func (e *Element) Disabled() bool { return e.HasAttr("disabled") }

// ReadOnly reports the readonly attribute.
func (e *Element) ReadOnly() bool { return e.HasAttr("readonly") }

// Value mirrors the DOM value property: the value attribute for inputs, the
// text for textareas, and the selected (or first) option for selects.
// Checkboxes and radios without a value attribute report "on".
func (e *Element) Value() string {
	switch e.Tag() {
	case "input":
		if v, ok := e.sel.Attr("value"); ok {
			return v
		}
		if t := e.Type(); t == "checkbox" || t == "radio" {
			return "on"
		}
		return ""
	case "textarea":
		return e.sel.Text()
	case "select":
		opts := e.Options()
		for _, o := range opts {
			if o.Selected {
				return o.Value
			}
		}
		if len(opts) > 0 {
			return opts[0].Value
		}
		return ""
	}
	return e.Attr("value")
}

// LabelText resolves the label describing the element: the label linked by a
// for attribute or a label wrapping the element. The wrapping label wins when
// both exist.
func (e *Element) LabelText() string {
	if parent := e.sel.Closest("label"); parent.Length() > 0 {
		return collapse(parent.Text())
	}
	if id := e.ID(); id != "" && e.page != nil {
		if label := e.page.labelFor(id); label.Length() > 0 {
			return collapse(label.Text())
		}
	}
	return ""
}

// BlockText returns the collapsed text of the nearest div, section or
// fieldset ancestor.
func (e *Element) BlockText() string {
	block := e.sel.Parent().Closest(blockAncestors)
	if block.Length() == 0 {
		return ""
	}
	return collapse(block.Text())
}

// Options returns the options of a select element in document order.
// An option without a value attribute uses its text, as browsers do.
func (e *Element) Options() []Option {
	var opts []Option
	e.sel.Find("option").Each(func(_ int, s *goquery.Selection) {
		text := collapse(s.Text())
		value, ok := s.Attr("value")
		if !ok {
			value = text
		}
		_, selected := s.Attr("selected")
		opts = append(opts, Option{Text: text, Value: value, Selected: selected})
	})
	return opts
}

// Path returns a CSS selector that addresses exactly this node by walking
// nth-child positions up to the root.
func (e *Element) Path() string {
	var parts []string
	for s := e.sel.First(); s.Length() > 0 && s.Nodes[0].Type == html.ElementNode; s = s.Parent() {
		tag := goquery.NodeName(s)
		if tag == "html" {
			parts = append(parts, "html")
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", tag, s.Index()+1))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// Describe returns a short human-readable identifier such as input#email[name=email].
func (e *Element) Describe() string {
	var sb strings.Builder
	sb.WriteString(e.Tag())
	if id := e.ID(); id != "" {
		sb.WriteString("#" + id)
	}
	if name := e.Name(); name != "" {
		sb.WriteString("[name=" + name + "]")
	}
	if e.Tag() == "input" {
		sb.WriteString("[type=" + e.Type() + "]")
	}
	return sb.String()
}
