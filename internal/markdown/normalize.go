// Package markdown provides normalization and structure-aware chunking
// of markdown documents produced by external converters.
package markdown

import (
	"regexp"
	"strings"
)

// imageRe matches inline image placeholders like ![alt](path/to/img.png).
var imageRe = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)

// htmlCommentRe matches single-line HTML comments converters often leave behind.
var htmlCommentRe = regexp.MustCompile(`<!--.*?-->`)

// Normalize strips conversion artifacts from markdown text before chunking.
// It normalizes line endings, removes image placeholders and HTML comments,
// trims trailing whitespace per line, and collapses runs of blank lines down
// to a single paragraph break. Lines inside fenced code blocks are left
// untouched so code content is never corrupted.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	blankRun := 0

	for _, line := range lines {
		if isFenceLine(line) {
			inFence = !inFence
			out = append(out, strings.TrimRight(line, " \t"))
			blankRun = 0
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		line = imageRe.ReplaceAllString(line, "")
		line = htmlCommentRe.ReplaceAllString(line, "")
		line = strings.TrimRight(line, " \t")

		if line == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
		} else {
			blankRun = 0
		}
		out = append(out, line)
	}

	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

// isFenceLine reports whether a line opens or closes a fenced code block.
func isFenceLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}
