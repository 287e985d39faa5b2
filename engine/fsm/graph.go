package fsm

import (
	"fmt"
	"strconv"
	"strings"
)

// DOT renders the definition as a Graphviz digraph
// The initial state is drawn as a double circle, shadowed transitions dashed
func (d *Definition) DOT() string {
	var b strings.Builder

	fmt.Fprintf(&b, "digraph %s {\n", strconv.Quote(d.Name))
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=circle];\n")

	for _, s := range d.States {
		shape := "circle"
		if s.Name == d.Initial {
			shape = "doublecircle"
		}
		fmt.Fprintf(&b, "\t%s [shape=%s, xlabel=%s];\n", strconv.Quote(s.Name), shape, strconv.Quote(strconv.Itoa(int(s.ID))))
	}

	type key struct{ from, event string }
	seen := make(map[key]struct{}, len(d.Transitions))
	for _, t := range d.Transitions {
		style := ""
		k := key{t.From, t.Event}
		if _, dup := seen[k]; dup {
			style = ", style=dashed"
		}
		seen[k] = struct{}{}
		fmt.Fprintf(&b, "\t%s -> %s [label=%s%s];\n", strconv.Quote(t.From), strconv.Quote(t.To), strconv.Quote(t.Event), style)
	}

	b.WriteString("}\n")
	return b.String()
}
