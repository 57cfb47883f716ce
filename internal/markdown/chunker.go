package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Chunk is a contiguous span of a document's text sized for embedding.
// Start and End are byte offsets into the chunked text; Text carries an
// optional context seed of Overlap bytes copied from the previous chunk,
// so Text[Overlap:] == text[Start:End] always holds.
type Chunk struct {
	Seq         int
	Text        string
	HeadingPath []string
	Start       int
	End         int
	Overlap     int
	Oversize    bool
}

// MalformedInputError reports markdown that cannot be chunked safely,
// such as a fenced code block that is never closed.
type MalformedInputError struct {
	Line   int
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed markdown at line %d: %s", e.Line, e.Reason)
}

// Chunker splits markdown into bounded-size chunks along heading and
// paragraph boundaries. Fenced code blocks and tables are atomic: they are
// never split, and blocks larger than the budget are emitted whole with
// Oversize set so callers can skip embedding them.
type Chunker struct {
	maxSize int
	overlap int
}

// NewChunker validates the size budget and overlap and returns a chunker.
// overlap must be non-negative and strictly smaller than maxSize.
func NewChunker(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", maxSize, overlap)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockCode
	blockTable
)

// block is a span of the source text. Blocks tile the document: each block
// starts where the previous one ended, so concatenating block spans in order
// reproduces the input exactly.
type block struct {
	kind  blockKind
	start int
	end   int
	level int
	title string
}

// headingStack tracks the enclosing heading hierarchy while scanning.
type headingStack struct {
	levels []int
	titles []string
}

func (h *headingStack) push(level int, title string) {
	for len(h.levels) > 0 && h.levels[len(h.levels)-1] >= level {
		h.levels = h.levels[:len(h.levels)-1]
		h.titles = h.titles[:len(h.titles)-1]
	}
	h.levels = append(h.levels, level)
	h.titles = append(h.titles, title)
}

func (h *headingStack) path() []string {
	if len(h.titles) == 0 {
		return nil
	}
	out := make([]string, len(h.titles))
	copy(out, h.titles)
	return out
}

// Chunk splits text into ordered chunks. Concatenating the emitted spans
// (Text with the Overlap seed removed) reproduces the input with no gaps.
func (c *Chunker) Chunk(text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	blocks, err := scanBlocks(text)
	if err != nil {
		return nil, err
	}

	headings := &headingStack{}
	var chunks []Chunk

	curStart := -1
	curEnd := 0
	curLen := 0
	seed := ""
	var pathAtStart []string

	flush := func(oversize bool) {
		if curStart < 0 {
			return
		}
		span := text[curStart:curEnd]
		chunks = append(chunks, Chunk{
			Seq:         len(chunks),
			Text:        seed + span,
			HeadingPath: pathAtStart,
			Start:       curStart,
			End:         curEnd,
			Overlap:     len(seed),
			Oversize:    oversize,
		})
		seed = tailBytes(seed+span, c.overlap)
		curStart = -1
		curLen = 0
	}

	open := func(start int) {
		curStart = start
		curEnd = start
		curLen = len(seed)
		pathAtStart = headings.path()
	}

	for _, b := range blocks {
		if b.kind == blockHeading {
			headings.push(b.level, b.title)
		}
		size := b.end - b.start

		// Close the running chunk when this block would push it past budget.
		if curStart >= 0 && curLen+size > c.maxSize {
			flush(false)
		}

		if curStart < 0 && len(seed)+size > c.maxSize {
			switch b.kind {
			case blockCode, blockTable:
				// Atomic: keep whole and flag instead of corrupting content.
				open(b.start)
				curEnd = b.end
				flush(true)
			default:
				// Budget leaves room for the overlap seed each piece carries.
				for _, cut := range splitSpan(text, b.start, b.end, c.maxSize-c.overlap) {
					open(cut.start)
					curEnd = cut.end
					flush(false)
				}
			}
			continue
		}

		if curStart < 0 {
			open(b.start)
		}
		curEnd = b.end
		curLen += size
	}
	flush(false)

	return chunks, nil
}

type span struct {
	start int
	end   int
}

// splitSpan cuts an oversized paragraph span into pieces no larger than
// budget, preferring sentence boundaries and falling back to a hard cut at
// a rune boundary. Pieces tile the span exactly.
func splitSpan(text string, start, end, budget int) []span {
	if budget <= 0 {
		budget = 1
	}
	var out []span
	for start < end {
		if end-start <= budget {
			out = append(out, span{start, end})
			break
		}
		cut := sentenceCut(text[start:end], budget)
		out = append(out, span{start, start + cut})
		start += cut
	}
	return out
}

// sentenceCut returns a cut position within budget, at the last sentence end
// or newline if one exists, otherwise at the nearest rune boundary.
func sentenceCut(s string, budget int) int {
	window := s[:budget]
	best := -1
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.LastIndex(window, sep); i >= 0 && i+len(sep) > best {
			best = i + len(sep)
		}
	}
	if best > 0 {
		return best
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		cut = budget
	}
	return cut
}

// tailBytes returns the last n bytes of s, shrunk to a rune boundary.
func tailBytes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		if n <= 0 {
			return ""
		}
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

// scanBlocks tokenizes markdown into tiling blocks. Trailing blank lines
// attach to the preceding block and leading blank lines to the first one,
// so no byte of the input is lost.
func scanBlocks(text string) ([]block, error) {
	lines := strings.Split(text, "\n")

	// Byte offset of each line start; offsets[len(lines)] == len(text).
	offsets := make([]int, len(lines)+1)
	pos := 0
	for i, line := range lines {
		offsets[i] = pos
		pos += len(line)
		if i < len(lines)-1 {
			pos++ // newline
		}
	}
	offsets[len(lines)] = len(text)

	lineEnd := func(i int) int { return offsets[i+1] }

	var blocks []block
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if len(blocks) > 0 {
				blocks[len(blocks)-1].end = lineEnd(i)
			}
			i++
			continue
		}

		b := block{kind: blockParagraph, start: offsets[i]}
		if len(blocks) == 0 {
			// Leading blank lines attach to the first block.
			b.start = 0
		}

		switch {
		case isFenceLine(line):
			openLine := i
			i++
			for i < len(lines) && !isFenceLine(lines[i]) {
				i++
			}
			if i >= len(lines) {
				return nil, &MalformedInputError{
					Line:   openLine + 1,
					Reason: "unclosed code fence",
				}
			}
			b.kind = blockCode
			b.end = lineEnd(i)
			i++

		case headingRe.MatchString(line):
			m := headingRe.FindStringSubmatch(line)
			b.kind = blockHeading
			b.level = len(m[1])
			b.title = m[2]
			b.end = lineEnd(i)
			i++

		case strings.HasPrefix(trimmed, "|"):
			b.kind = blockTable
			for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
				b.end = lineEnd(i)
				i++
			}

		default:
			for i < len(lines) {
				t := strings.TrimSpace(lines[i])
				if t == "" || isFenceLine(lines[i]) || headingRe.MatchString(lines[i]) || strings.HasPrefix(t, "|") {
					break
				}
				b.end = lineEnd(i)
				i++
			}
		}

		blocks = append(blocks, b)
	}

	return blocks, nil
}
