// internal/scenario/condense.go
package scenario

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxCondensedElements caps each element category in the condensed summary so
// link farms do not flood the prompt.
const maxCondensedElements = 60

// Condense reduces raw page markup to a compact inventory of what a tester
// can interact with: title, links, buttons, inputs, and anything carrying a
// click handler or widget role. The model reasons far better over this than
// over minified markup, and it costs a fraction of the tokens.
func Condense(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparseable markup still has some signal; hand over a bounded slice.
		if len(html) > 20000 {
			html = html[:20000]
		}
		return html
	}

	var b strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		fmt.Fprintf(&b, "Page title: %s\n\n", title)
	}

	writeSection(&b, "Links", doc.Find("a[href]"), func(s *goquery.Selection) string {
		text := firstLine(s.Text())
		if text == "" {
			text = s.AttrOr("aria-label", "")
		}
		if text == "" {
			return ""
		}
		return fmt.Sprintf("%q -> %s%s", text, s.AttrOr("href", ""), classHint(s))
	})

	writeSection(&b, "Buttons", doc.Find("button, input[type='button'], input[type='submit'], [role='button']"), func(s *goquery.Selection) string {
		text := firstLine(s.Text())
		if text == "" {
			text = s.AttrOr("value", s.AttrOr("aria-label", ""))
		}
		if text == "" {
			return ""
		}
		return fmt.Sprintf("%q%s%s", text, idHint(s), classHint(s))
	})

	writeSection(&b, "Inputs", doc.Find("input, select, textarea"), func(s *goquery.Selection) string {
		typ := s.AttrOr("type", goquery.NodeName(s))
		if typ == "hidden" {
			return ""
		}
		name := s.AttrOr("name", s.AttrOr("id", ""))
		return fmt.Sprintf("%s name=%q placeholder=%q", typ, name, s.AttrOr("placeholder", ""))
	})

	writeSection(&b, "Click handlers and widgets", doc.Find("[onclick], [role='menuitem'], [role='tab'], [data-toggle], [data-bs-toggle]"), func(s *goquery.Selection) string {
		text := firstLine(s.Text())
		return fmt.Sprintf("<%s>%s%s text=%q", goquery.NodeName(s), idHint(s), classHint(s), text)
	})

	return b.String()
}

func writeSection(b *strings.Builder, heading string, sel *goquery.Selection, render func(*goquery.Selection) string) {
	var lines []string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if line := render(s); line != "" {
			lines = append(lines, "- "+line)
		}
		return len(lines) < maxCondensedElements
	})
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n%s\n\n", heading, len(lines), strings.Join(lines, "\n"))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

func idHint(s *goquery.Selection) string {
	if id := s.AttrOr("id", ""); id != "" {
		return " id=" + id
	}
	return ""
}

func classHint(s *goquery.Selection) string {
	if class := strings.TrimSpace(s.AttrOr("class", "")); class != "" {
		if len(class) > 60 {
			class = class[:60]
		}
		return " class=" + quoteIfSpaced(class)
	}
	return ""
}

func quoteIfSpaced(s string) string {
	if strings.ContainsRune(s, ' ') {
		return fmt.Sprintf("%q", s)
	}
	return s
}
