package value

// Modifier is a keyword written right before (prefix) or right after (suffix) an adverb literal.
// It wraps the literal value in a transformer named by the keyword.
type Modifier struct {
	Keyword string
	Suffix  bool
	Compute ComputeFunc
}

// Apply wraps base in a transformer computing the modifier.
func (m Modifier) Apply(base Runtime) *Transformer {
	return Wrap(m.Keyword, base, m.Compute)
}

// ApplyModifiers wraps base in prefix modifiers from right to left, then in suffix modifiers from left to right,
// so that for "p1 p2 <literal> s1 s2" the result is s2(s1(p1(p2(literal)))).
func ApplyModifiers(base Runtime, prefixes, suffixes []Modifier) Runtime {
	result := base
	for i := len(prefixes) - 1; i >= 0; i-- {
		result = prefixes[i].Apply(result)
	}
	for _, m := range suffixes {
		result = m.Apply(result)
	}
	return result
}
