package utils

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
)

var (
	stripOnce   sync.Once
	stripPolicy *bluemonday.Policy
	foldCaser   = cases.Fold()
	foldMu      sync.Mutex
)

func strip() *bluemonday.Policy {
	stripOnce.Do(func() {
		stripPolicy = bluemonday.StripTagsPolicy()
	})
	return stripPolicy
}

// CleanLine turns user input for a single-line field (board name, column
// title, task title, label name) into plain text: markup stripped, entities
// decoded, whitespace collapsed.
func CleanLine(s string) string {
	s = html.UnescapeString(strip().Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// CleanText is CleanLine for free text: line breaks survive, trailing space
// is trimmed.
func CleanText(s string) string {
	s = html.UnescapeString(strip().Sanitize(s))
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// FoldEmail returns the caseless form of an email used for identity
// comparison.
func FoldEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	foldMu.Lock()
	defer foldMu.Unlock()
	return foldCaser.String(email)
}

// LooksLikeEmail is the minimal shape check applied to invite targets.
func LooksLikeEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\n")
}
