package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

// Visitor is a function type to operate on tree nodes during traversal.
// Returning an error aborts the traversal and surfaces the error to the
// caller of Walk.
type Visitor[T comparable] func(n *Node[T], parent *Node[T], position int) error

// Walk traverses the subtree rooted at node in depth-first pre-order:
// parents are always visited before their children, siblings in child
// order. Walk is synchronous; the conversion pipeline relies on a node
// being fully processed before its parent finishes.
func Walk[T comparable](node *Node[T], visit Visitor[T]) error {
	if node == nil {
		return nil
	}
	return walk(node, nil, 0, visit)
}

func walk[T comparable](node *Node[T], parent *Node[T], position int, visit Visitor[T]) error {
	if err := visit(node, parent, position); err != nil {
		return err
	}
	for i, ch := range node.Children() {
		if ch == nil {
			continue
		}
		if err := walk(ch, node, i, visit); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes in the subtree rooted at node,
// including node itself.
func Count[T comparable](node *Node[T]) int {
	n := 0
	_ = Walk(node, func(*Node[T], *Node[T], int) error {
		n++
		return nil
	})
	return n
}
