package layout

import (
	"strings"
)

// optimize is the post-parse pass run on every node list, nested
// sub-templates included: constant subtrees are folded to literals, then
// adjacent literals merged.
func optimize(nodes []node, cfg *config) []node {
	return mergeLiterals(foldConstants(nodes, cfg))
}

// foldConstants replaces each placeholder whose renderer and wrappers all
// declare constant output with a literal holding one evaluation against the
// nil event. Environment lookups and the like never change per event;
// folding removes their per-event cost entirely.
//
// The constancy declaration comes from the renderer type itself, never from
// inspection; a renderer failing its own declaration here is left in place
// and reported.
func foldConstants(nodes []node, cfg *config) []node {
	out := make([]node, 0, len(nodes))
	for _, n := range nodes {
		ph, ok := n.(*placeholderNode)
		if !ok || !ph.constant() {
			out = append(out, n)
			continue
		}
		text, err := ph.renderText(nil)
		if err != nil {
			cfg.warn(&RenderError{Renderer: ph.typeName, Err: err})
			out = append(out, n)
			continue
		}
		lit := &literalNode{text: text}
		if len(ph.wrappers) == 0 {
			if rv, ok := ph.renderer.(RawValuer); ok {
				if raw, err := rv.RawValue(nil); err == nil {
					lit.raw, lit.hasRaw = raw, true
				}
			}
		}
		out = append(out, lit)
	}
	return out
}

// mergeLiterals concatenates runs of adjacent literal nodes. A merged
// literal no longer carries a typed raw value, only text.
func mergeLiterals(nodes []node) []node {
	out := make([]node, 0, len(nodes))
	for _, n := range nodes {
		lit, ok := n.(*literalNode)
		if !ok {
			out = append(out, n)
			continue
		}
		if len(out) > 0 {
			if prev, ok := out[len(out)-1].(*literalNode); ok {
				var sb strings.Builder
				sb.Grow(len(prev.text) + len(lit.text))
				sb.WriteString(prev.text)
				sb.WriteString(lit.text)
				out[len(out)-1] = &literalNode{text: sb.String()}
				continue
			}
		}
		out = append(out, lit)
	}
	return out
}
