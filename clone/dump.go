package clone

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"

	tp "github.com/xlab/treeprint"
)

// Dump renders a clone tree as an indented text diagram, for debugging
// and test output.
func Dump(root *Node) string {
	printer := tp.New()
	printer.SetValue(label(root))
	addBranches(printer, root)
	return printer.String()
}

func addBranches(br tp.Tree, n *Node) {
	for _, ch := range n.Children() {
		cl := FromTreeNode(ch)
		if cl == nil {
			continue
		}
		if ch.ChildCount() == 0 {
			br.AddNode(label(cl))
			continue
		}
		addBranches(br.AddBranch(label(cl)), cl)
	}
}

func label(cl *Node) string {
	if !cl.IsElement() {
		text := strings.TrimSpace(cl.Tag())
		if len(text) > 20 {
			text = text[:20] + "…"
		}
		return fmt.Sprintf("%q", text)
	}
	return fmt.Sprintf("<%s> (%d styles)", cl.Tag(), cl.Styles().Size())
}
