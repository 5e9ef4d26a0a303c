// Package source defines named script sources and positions inside them.
package source

import (
	"bytes"
	"unicode/utf8"
)

// Source is a named script text. Positions are byte offsets into Content.
// A Source caches the last looked up line and is not safe for concurrent LineCol calls.
type Source struct {
	name          string
	content       []byte
	lineStarts    []int
	prevLineIndex int
}

// New creates a source. CR LF and lone CR line endings are normalized to LF.
func New(name string, content []byte) *Source {
	content = normalizeNls(content)
	s := &Source{name: name, content: content, prevLineIndex: -1}
	lineCnt := bytes.Count(content, []byte("\n")) + 1
	s.lineStarts = make([]int, lineCnt)
	j := 1
	for i := 0; i < len(content) && j < lineCnt; i++ {
		if content[i] == '\n' {
			s.lineStarts[j] = i + 1
			j++
		}
	}

	return s
}

// NewString is a shortcut for New(name, []byte(text)).
func NewString(name, text string) *Source {
	return New(name, []byte(text))
}

func normalizeNls(content []byte) []byte {
	if bytes.IndexByte(content, '\r') < 0 {
		return content
	}

	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(content, []byte("\r"), []byte("\n"))
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Content() []byte {
	return s.content
}

func (s *Source) Len() int {
	return len(s.content)
}

// LineCol converts byte offset to 1-based line and column, columns are counted in runes.
// Offsets outside of the content are clamped.
func (s *Source) LineCol(pos int) (line, col int) {
	var lineIndex int
	if pos < 0 {
		pos = 0
		lineIndex = 0
	} else if pos >= len(s.content) {
		pos = len(s.content)
		lineIndex = len(s.lineStarts) - 1
	} else {
		lineIndex = s.findLineIndex(pos)
	}

	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCount(s.content[lineStart:pos]) + 1
}

// Pos returns position at given byte offset.
func (s *Source) Pos(pos int) Pos {
	line, col := s.LineCol(pos)
	if pos < 0 {
		pos = 0
	} else if pos > len(s.content) {
		pos = len(s.content)
	}
	return Pos{s, pos, line, col}
}

func (s *Source) findLineIndex(pos int) int {
	if s.prevLineIndex >= 0 && s.lineStarts[s.prevLineIndex] <= pos {
		lineIndex := s.prevLineIndex
		last := len(s.lineStarts) - 1
		for lineIndex <= last && s.lineStarts[lineIndex] <= pos {
			lineIndex++
		}
		lineIndex--
		s.prevLineIndex = lineIndex
		return lineIndex
	}

	left := 0
	right := len(s.lineStarts) - 1
	if s.prevLineIndex >= 0 {
		right = s.prevLineIndex
	}
	for left < right {
		index := (left + right + 1) >> 1
		if s.lineStarts[index] <= pos {
			left = index
		} else {
			right = index - 1
		}
	}
	s.prevLineIndex = left
	return left
}

// Pos is a position inside a source, it implements verbal.SourcePos.
type Pos struct {
	src            *Source
	pos, line, col int
}

func (p Pos) Source() *Source {
	return p.src
}

func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.name
}

// Offset returns byte offset.
func (p Pos) Offset() int {
	return p.pos
}

func (p Pos) Line() int {
	return p.line
}

func (p Pos) Col() int {
	return p.col
}
