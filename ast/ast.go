// Package ast defines parsed scripts: named segments of sentences made of verb and adverb components.
package ast

import (
	"strings"

	"github.com/ava12/verbal/source"
	"github.com/ava12/verbal/value"
)

// Script is a parsed source: an ordered list of segments.
type Script struct {
	Name     string
	Segments []*Segment
}

// Segment returns the first segment with given name or nil.
func (s *Script) Segment(name string) *Segment {
	for _, seg := range s.Segments {
		if seg.Name == name {
			return seg
		}
	}
	return nil
}

// SegmentNames returns segment names in source order.
func (s *Script) SegmentNames() []string {
	names := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		names[i] = seg.Name
	}
	return names
}

func (s *Script) String() string {
	var sb strings.Builder
	for _, seg := range s.Segments {
		sb.WriteString(seg.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Segment is a named block of sentences.
type Segment struct {
	Name      string
	Sentences []*Sentence
	Pos       source.Pos
}

func (s *Segment) String() string {
	var sb strings.Builder
	sb.WriteString(value.String(s.Name).String())
	sb.WriteString(" {")
	for _, sent := range s.Sentences {
		sb.WriteString("\n  ")
		sb.WriteString(sent.String())
	}
	sb.WriteString("\n}")
	return sb.String()
}

// Sentence is an ordered list of components evaluated left to right.
type Sentence struct {
	Components []Component
	Pos        source.Pos
}

func (s *Sentence) String() string {
	parts := make([]string, len(s.Components))
	for i, c := range s.Components {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Component is a part of sentence. The set of component types is closed: *Verb, *Adverb.
type Component interface {
	String() string
	isComponent()
}

// Verb names an action to invoke.
type Verb struct {
	Name string
}

// Adverb binds a value to a parameter name.
type Adverb struct {
	Name  string
	Value value.Runtime
}

func (*Verb) isComponent()   {}
func (*Adverb) isComponent() {}

func NewVerb(name string) *Verb {
	return &Verb{name}
}

func NewAdverb(name string, v value.Runtime) *Adverb {
	return &Adverb{name, v}
}

func (v *Verb) String() string {
	return v.Name
}

func (a *Adverb) String() string {
	return a.Name + "=" + a.Value.String()
}
