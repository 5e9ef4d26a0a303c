package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ava12/verbal/value"
)

func sampleScript() *Script {
	return &Script{
		Name: "sample",
		Segments: []*Segment{
			{Name: "g", Sentences: []*Sentence{
				{Components: []Component{NewVerb("set"), NewAdverb("x", value.NewConst(value.Number(5)))}},
			}},
			{Name: "h"},
			{Name: "g"},
		},
	}
}

func TestSegmentLookup(t *testing.T) {
	s := sampleScript()
	assert.Same(t, s.Segments[0], s.Segment("g"))
	assert.Nil(t, s.Segment("missing"))
	assert.Equal(t, []string{"g", "h", "g"}, s.SegmentNames())
}

func TestRendering(t *testing.T) {
	s := sampleScript()
	assert.Equal(t, "[set x=5]", s.Segments[0].Sentences[0].String())
	assert.Equal(t, "\"g\" {\n  [set x=5]\n}\n\"h\" {\n}\n\"g\" {\n}\n", s.String())
}
