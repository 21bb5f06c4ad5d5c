package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"gopkg.in/yaml.v3"
)

// ErrInvalidChecklist is returned for checklist files that do not parse or
// describe an item ambiguously.
var ErrInvalidChecklist = errors.New("invalid checklist")

// Checklist describes header elements to verify.
//
//	items:
//	  - name: logo
//	    css: a.logo
//	    attributes: {href: /}
//	    styles: {cursor: pointer}
//	    click_url: ^https://example\.com/?$
//	    screenshot: true
//	  - name: services menu
//	    css: a.menu-link[href="/services/"]
//	    reveals: ["#services-menu.active", "#services-menu .menu-title"]
//	    closes: "#services-menu .menu-close"
//	  - name: shop
//	    css: a.shop
//	    popup_url: shop\.example\.com
type Checklist struct {
	Items []ChecklistItem `yaml:"items"`
}

// ChecklistItem is one element check. Exactly one of CSS, Label, Button and
// Text locates the element. Attribute and style values wrapped in slashes are
// regular expressions.
//
// At most one click action is allowed: ClickURL follows a link in the same
// tab, PopupURL follows one that opens a new tab, and Reveals opens a panel
// whose CSS selectors must then be visible. Closes is clicked afterwards and
// every revealed selector must disappear.
type ChecklistItem struct {
	Name       string            `yaml:"name"`
	CSS        string            `yaml:"css,omitempty"`
	Label      string            `yaml:"label,omitempty"`
	Button     string            `yaml:"button,omitempty"`
	Text       string            `yaml:"text,omitempty"`
	Hidden     bool              `yaml:"hidden,omitempty"`
	Contains   string            `yaml:"contains,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Styles     map[string]string `yaml:"styles,omitempty"`
	ClickURL   string            `yaml:"click_url,omitempty"`
	PopupURL   string            `yaml:"popup_url,omitempty"`
	Reveals    []string          `yaml:"reveals,omitempty"`
	Closes     string            `yaml:"closes,omitempty"`
	Screenshot bool              `yaml:"screenshot,omitempty"`
}

// LoadChecklist reads a checklist file.
func LoadChecklist(path string) (*Checklist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checklist: %w", err)
	}
	defer f.Close()
	return ParseChecklist(f)
}

// ParseChecklist decodes and validates a checklist. Unknown fields are
// rejected.
func ParseChecklist(r io.Reader) (*Checklist, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cl Checklist
	if err := dec.Decode(&cl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChecklist, err)
	}
	if len(cl.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidChecklist)
	}
	for i, it := range cl.Items {
		if err := it.validate(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidChecklist, i, err)
		}
	}
	return &cl, nil
}

func (it ChecklistItem) validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return errors.New("name is required")
	}
	set := 0
	for _, v := range []string{it.CSS, it.Label, it.Button, it.Text} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%s: exactly one of css, label, button, text is required", it.Name)
	}
	if it.Hidden && (it.Contains != "" || len(it.Attributes) > 0 || len(it.Styles) > 0 || it.clickActions() > 0) {
		return fmt.Errorf("%s: hidden items cannot have content checks", it.Name)
	}
	if it.clickActions() > 1 {
		return fmt.Errorf("%s: at most one of click_url, popup_url, reveals is allowed", it.Name)
	}
	if it.Closes != "" && len(it.Reveals) == 0 {
		return fmt.Errorf("%s: closes requires reveals", it.Name)
	}
	for _, sel := range it.Reveals {
		if strings.TrimSpace(sel) == "" {
			return fmt.Errorf("%s: reveals has an empty selector", it.Name)
		}
	}
	if it.ClickURL != "" {
		if _, err := regexp.Compile(it.ClickURL); err != nil {
			return fmt.Errorf("%s: click_url: %v", it.Name, err)
		}
	}
	if it.PopupURL != "" {
		if _, err := regexp.Compile(it.PopupURL); err != nil {
			return fmt.Errorf("%s: popup_url: %v", it.Name, err)
		}
	}
	for name, want := range it.Attributes {
		if _, err := attributeMatcher(want); err != nil {
			return fmt.Errorf("%s: attribute %s: %v", it.Name, name, err)
		}
	}
	for prop, want := range it.Styles {
		if _, err := attributeMatcher(want); err != nil {
			return fmt.Errorf("%s: style %s: %v", it.Name, prop, err)
		}
	}
	return nil
}

func (it ChecklistItem) clickActions() int {
	n := 0
	if it.ClickURL != "" {
		n++
	}
	if it.PopupURL != "" {
		n++
	}
	if len(it.Reveals) > 0 {
		n++
	}
	return n
}

// Selector returns the locator for the item.
func (it ChecklistItem) Selector() driver.Selector {
	switch {
	case it.Label != "":
		return driver.Label(it.Label)
	case it.Button != "":
		return driver.Button(it.Button)
	case it.Text != "":
		return driver.Text(it.Text)
	default:
		return driver.CSS(it.CSS)
	}
}

func attributeMatcher(want string) (func(string) bool, error) {
	if len(want) >= 2 && strings.HasPrefix(want, "/") && strings.HasSuffix(want, "/") {
		re, err := regexp.Compile(want[1 : len(want)-1])
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	}
	return func(got string) bool { return got == want }, nil
}

// check verifies one item on the current page. When the item navigates,
// the page is sent back to returnURL afterwards.
func (it ChecklistItem) check(ctx context.Context, e *Env, returnURL string) error {
	o := newOptions(e.Options())
	step := "check " + it.Name
	el := e.Page.Find(it.Selector())

	if it.Hidden {
		return o.expectHidden(ctx, step, el, it.Name)
	}
	if err := o.expectVisible(ctx, step, el, it.Name); err != nil {
		return err
	}

	if it.Contains != "" {
		err := o.poll(ctx, step, fmt.Sprintf("%s to contain %q", it.Name, it.Contains), func(ctx context.Context) (bool, string, error) {
			text, err := el.Text(ctx)
			if err != nil {
				return false, "", err
			}
			return strings.Contains(text, it.Contains), "text " + strings.TrimSpace(text), nil
		})
		if err != nil {
			return err
		}
	}

	for name, want := range it.Attributes {
		match, _ := attributeMatcher(want)
		err := o.poll(ctx, step, fmt.Sprintf("%s[%s] = %s", it.Name, name, want), func(ctx context.Context) (bool, string, error) {
			got, ok, err := el.Attribute(ctx, name)
			if err != nil {
				return false, "", err
			}
			if !ok {
				return false, "attribute missing", nil
			}
			return match(got), "got " + got, nil
		})
		if err != nil {
			return err
		}
	}

	for prop, want := range it.Styles {
		match, _ := attributeMatcher(want)
		err := o.poll(ctx, step, fmt.Sprintf("%s style %s = %s", it.Name, prop, want), func(ctx context.Context) (bool, string, error) {
			got, err := el.Style(ctx, prop)
			if err != nil {
				return false, "", err
			}
			return match(got), "got " + got, nil
		})
		if err != nil {
			return err
		}
	}

	if it.Screenshot {
		data, err := el.Screenshot(ctx)
		if err != nil {
			e.Logger.Warn(ctx, "failed to take element screenshot", map[string]interface{}{
				"item":  it.Name,
				"error": err.Error(),
			})
		} else if err := e.reporter.Attach(ctx, Attachment{
			RunID:       e.RunID,
			ScenarioID:  e.ScenarioID,
			Step:        e.step,
			Name:        it.Name,
			ContentType: "image/png",
			Data:        data,
		}); err != nil {
			e.Logger.Warn(ctx, "failed to attach element screenshot", map[string]interface{}{
				"item":  it.Name,
				"error": err.Error(),
			})
		}
	}

	switch {
	case it.ClickURL != "":
		return it.follow(ctx, e, o, step, el, returnURL)
	case it.PopupURL != "":
		return it.followPopup(ctx, e, o, step, el)
	case len(it.Reveals) > 0:
		return it.toggle(ctx, e, o, step, el)
	}
	return nil
}

// follow clicks a same-tab link, checks where it lands and goes back.
func (it ChecklistItem) follow(ctx context.Context, e *Env, o options, step string, el driver.Element, returnURL string) error {
	re := regexp.MustCompile(it.ClickURL)
	if err := el.Click(ctx, 0); err != nil {
		return assertionf(step, err, "click failed")
	}
	if err := o.expectURL(ctx, step, "matching "+it.ClickURL, e.Page, re.MatchString); err != nil {
		return err
	}
	e.Capture(ctx, it.Name+" target")
	if _, err := e.Page.Navigate(ctx, returnURL); err != nil {
		return assertionf(step, err, "could not return to %s", returnURL)
	}
	return nil
}

// followPopup clicks a link that opens a new tab and checks the tab's URL.
// The tab is closed afterwards; the checklist page never moves.
func (it ChecklistItem) followPopup(ctx context.Context, e *Env, o options, step string, el driver.Element) error {
	re := regexp.MustCompile(it.PopupURL)
	popup, err := e.Page.ExpectPopup(ctx, func(ctx context.Context) error {
		return el.Click(ctx, 0)
	})
	if err != nil {
		return assertionf(step, err, "%s did not open a new tab", it.Name)
	}
	defer func() {
		if err := popup.Close(); err != nil {
			e.Logger.Warn(ctx, "failed to close popup", map[string]interface{}{
				"item":  it.Name,
				"error": err.Error(),
			})
		}
	}()
	if err := o.expectURL(ctx, step, "matching "+it.PopupURL, popup, re.MatchString); err != nil {
		return err
	}
	e.capturePage(ctx, popup, it.Name+" popup")
	return nil
}

// toggle opens a panel, checks what it reveals and, when a close control
// is given, checks that closing hides it again.
func (it ChecklistItem) toggle(ctx context.Context, e *Env, o options, step string, el driver.Element) error {
	if err := el.Click(ctx, 0); err != nil {
		return assertionf(step, err, "click failed")
	}
	for _, sel := range it.Reveals {
		if err := o.expectVisible(ctx, step, e.Page.Find(driver.CSS(sel)), sel); err != nil {
			return err
		}
	}
	e.Capture(ctx, it.Name+" open")
	if it.Closes == "" {
		return nil
	}

	closer := e.Page.Find(driver.CSS(it.Closes))
	if err := o.expectVisible(ctx, step, closer, it.Closes); err != nil {
		return err
	}
	if err := closer.Click(ctx, 0); err != nil {
		return assertionf(step, err, "closing %s failed", it.Name)
	}
	for _, sel := range it.Reveals {
		if err := o.expectHidden(ctx, step, e.Page.Find(driver.CSS(sel)), sel); err != nil {
			return err
		}
	}
	return nil
}
