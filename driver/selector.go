package driver

import (
	"fmt"
	"strings"
)

// SelectorKind identifies how a Selector locates an element.
type SelectorKind int

const (
	ByCSS SelectorKind = iota
	ByLabel
	ByButton
	ByText
)

// Selector describes an element independently of the automation library.
type Selector struct {
	Kind  SelectorKind
	Value string
}

// CSS selects the first element matching a CSS selector.
func CSS(css string) Selector { return Selector{Kind: ByCSS, Value: css} }

// Label selects the form control labelled with text (substring match).
func Label(text string) Selector { return Selector{Kind: ByLabel, Value: text} }

// Button selects a button whose accessible name contains name.
func Button(name string) Selector { return Selector{Kind: ByButton, Value: name} }

// Text selects the element whose own text contains text.
func Text(text string) Selector { return Selector{Kind: ByText, Value: text} }

// LinkTo selects the first anchor pointing at href.
func LinkTo(href string) Selector {
	return CSS(`a[href="` + strings.ReplaceAll(href, `"`, `\"`) + `"]`)
}

func (s Selector) String() string {
	switch s.Kind {
	case ByLabel:
		return "label=" + s.Value
	case ByButton:
		return "button=" + s.Value
	case ByText:
		return "text=" + s.Value
	default:
		return "css=" + s.Value
	}
}

// XPath renders the selector as an XPath 1.0 expression. CSS selectors have
// no XPath form and return an error.
func (s Selector) XPath() (string, error) {
	lit := xpathLiteral(s.Value)
	switch s.Kind {
	case ByLabel:
		return fmt.Sprintf(
			`(//input[@id=//label[contains(normalize-space(.), %[1]s)]/@for]`+
				` | //textarea[@id=//label[contains(normalize-space(.), %[1]s)]/@for]`+
				` | //label[contains(normalize-space(.), %[1]s)]//input`+
				` | //input[contains(@aria-label, %[1]s)]`+
				` | //textarea[contains(@aria-label, %[1]s)])`, lit), nil
	case ByButton:
		return fmt.Sprintf(
			`(//button[contains(normalize-space(.), %[1]s)]`+
				` | //input[(@type="submit" or @type="button") and contains(@value, %[1]s)]`+
				` | //*[@role="button" and contains(normalize-space(.), %[1]s)])`, lit), nil
	case ByText:
		// The innermost element whose whole text matches, so text split by
		// inline children still matches its container.
		return fmt.Sprintf(
			`//body//*[not(self::script) and not(self::style) and contains(normalize-space(.), %[1]s)`+
				` and not(descendant::*[not(self::script) and not(self::style) and contains(normalize-space(.), %[1]s)])]`, lit), nil
	default:
		return "", fmt.Errorf("selector %s has no xpath form", s)
	}
}

// xpathLiteral quotes v for XPath 1.0, which has no escape sequences.
func xpathLiteral(v string) string {
	if !strings.Contains(v, `"`) {
		return `"` + v + `"`
	}
	if !strings.Contains(v, "'") {
		return "'" + v + "'"
	}
	parts := strings.Split(v, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		quoted = append(quoted, `"`+p+`"`)
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
