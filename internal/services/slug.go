package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	spaceRunRegex = regexp.MustCompile(` +`)
	dashRunRegex  = regexp.MustCompile(`-+`)
)

// Slugify derives a URL key from a post title.
// Only ASCII letters, digits and dashes survive; whitespace runs become a single dash.
// A title with nothing left falls back to "post-<unix millis>".
func Slugify(title string, now time.Time) string {
	lowered := strings.TrimSpace(strings.ToLower(title))

	var b strings.Builder
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	slug := spaceRunRegex.ReplaceAllString(b.String(), "-")
	slug = dashRunRegex.ReplaceAllString(slug, "-")
	if slug == "" {
		return "post-" + strconv.FormatInt(now.UnixMilli(), 10)
	}
	return slug
}

// slugCandidate returns the attempt-th slug to try for base: base, base-1, base-2, ...
func slugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}
