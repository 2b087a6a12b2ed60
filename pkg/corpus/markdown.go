package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

const (
	// MaxChunkSize is the character budget per chunk before a section gets
	// split at paragraph boundaries.
	MaxChunkSize = 1500

	// overlapLines is how many trailing lines carry over between the pieces
	// of a split section, preserving context across the cut.
	overlapLines = 2
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// ChunkID derives a stable identifier from chunk content, so re-indexing
// unchanged text is a no-op upsert.
func ChunkID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// ChunkMarkdown splits markdown into chunks by heading, splitting oversized
// sections at paragraph boundaries.
func ChunkMarkdown(text, source string) []Chunk {
	lines := strings.Split(text, "\n")

	type headingPos struct {
		line  int
		level int
		title string
	}
	var headings []headingPos
	for i, line := range lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			headings = append(headings, headingPos{line: i, level: len(m[1]), title: strings.TrimSpace(m[2])})
		}
	}

	type section struct {
		start   int
		end     int
		heading string
		level   int
	}
	var sections []section
	if len(headings) == 0 || headings[0].line > 0 {
		end := len(lines)
		if len(headings) > 0 {
			end = headings[0].line
		}
		sections = append(sections, section{start: 0, end: end})
	}
	for i, h := range headings {
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].line
		}
		sections = append(sections, section{start: h.line, end: end, heading: h.title, level: h.level})
	}

	var chunks []Chunk
	for _, s := range sections {
		text := strings.TrimSpace(strings.Join(lines[s.start:s.end], "\n"))
		if text == "" {
			continue
		}

		if len(text) <= MaxChunkSize {
			chunks = append(chunks, Chunk{
				Content:      text,
				Source:       source,
				Heading:      s.heading,
				HeadingLevel: s.level,
				StartLine:    s.start + 1,
				EndLine:      s.end,
			})
			continue
		}

		chunks = append(chunks, splitLargeSection(lines[s.start:s.end], source, s.heading, s.level, s.start)...)
	}

	return chunks
}

// splitLargeSection splits an oversized section at paragraph boundaries,
// carrying a small line overlap between pieces.
func splitLargeSection(lines []string, source, heading string, level, baseLine int) []Chunk {
	var chunks []Chunk
	var current []string
	currentStart := 0

	for i, line := range lines {
		current = append(current, line)
		text := strings.Join(current, "\n")
		isParaBreak := strings.TrimSpace(line) == "" && i+1 < len(lines)
		isLast := i == len(lines)-1

		if (len(text) >= MaxChunkSize && isParaBreak) || isLast {
			content := strings.TrimSpace(text)
			if content != "" {
				chunks = append(chunks, Chunk{
					Content:      content,
					Source:       source,
					Heading:      heading,
					HeadingLevel: level,
					StartLine:    baseLine + currentStart + 1,
					EndLine:      baseLine + i + 1,
				})
			}
			if isLast {
				current = nil
			} else {
				overlapStart := max(0, len(current)-overlapLines)
				current = current[overlapStart:]
			}
			currentStart = i + 1 - len(current)
		}
	}

	return chunks
}
