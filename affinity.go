package layout

// classify computes the thread-affinity of a compiled node list from the
// declarations of its constituent renderers and wrappers.
//
// A template is agnostic when no constituent's output depends on which
// goroutine evaluates it, and agnostic-immutable when additionally every
// constituent guarantees identical output on re-evaluation of the same
// event. The second flag is what permits caching rendered text on the
// event and what makes Precalculate unnecessary: such a value is the same
// value on any goroutine at any later time.
func classify(nodes []node) (agnostic, immutable bool) {
	agnostic, immutable = true, true
	for _, n := range nodes {
		ph, ok := n.(*placeholderNode)
		if !ok {
			// literals are trivially constant
			continue
		}
		agnostic = agnostic && ph.renderer.Agnostic()
		immutable = immutable && ph.renderer.AgnosticImmutable()
		for _, w := range ph.wrappers {
			agnostic = agnostic && w.Agnostic()
			immutable = immutable && w.AgnosticImmutable()
		}
	}
	immutable = immutable && agnostic
	return
}
