/*
Package clone builds fully-resolved offline copies of DOM subtrees.

A clone node is never attached to the live document; it owns its subtree
exclusively through the generic ownership tree, carries its resolved
style snapshot, and references external resources only as embedded data
once the builder has finished with it.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package clone

import (
	"github.com/daveytran/dom-to-image-more/style"
	"github.com/daveytran/dom-to-image-more/tree"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tracer will return a tracer. We are tracing to 'domimage.clone'
func tracer() tracing.Trace {
	return tracing.Select("domimage.clone")
}

// Node is a clone node, the building block of the offline copy.
type Node struct {
	tree.Node[*Node] // we build on top of general purpose tree
	nodeType         html.NodeType
	dataAtom         atom.Atom
	data             string // tag name for elements, content for text nodes
	attr             []html.Attribute
	styles           *style.Snapshot
}

// NewFromSource creates a structural clone of a source node: node type,
// tag and attributes are copied, children and styles are not.
func NewFromSource(src *html.Node) *Node {
	cl := &Node{
		nodeType: src.Type,
		dataAtom: src.DataAtom,
		data:     src.Data,
	}
	cl.Payload = cl // Payload will always reference the node itself
	if len(src.Attr) > 0 {
		cl.attr = make([]html.Attribute, len(src.Attr))
		copy(cl.attr, src.Attr)
	}
	return cl
}

// NewElement creates a fresh element clone that has no source node,
// for use by per-node transform hooks.
func NewElement(tag string) *Node {
	cl := &Node{
		nodeType: html.ElementNode,
		dataAtom: atom.Lookup([]byte(tag)),
		data:     tag,
	}
	cl.Payload = cl
	return cl
}

// NewTextNode creates a fresh text clone carrying the given content.
func NewTextNode(text string) *Node {
	cl := &Node{
		nodeType: html.TextNode,
		data:     text,
	}
	cl.Payload = cl
	return cl
}

// FromTreeNode gets the clone node from a generic tree node.
func FromTreeNode(n *tree.Node[*Node]) *Node {
	if n == nil {
		return nil
	}
	return n.Payload
}

// Type returns the HTML node type of the cloned node.
func (cl *Node) Type() html.NodeType {
	return cl.nodeType
}

// IsElement checks wether the clone copies an element node.
func (cl *Node) IsElement() bool {
	return cl.nodeType == html.ElementNode
}

// Tag returns the element tag name, or the raw data for non-elements.
func (cl *Node) Tag() string {
	return cl.data
}

// Atom returns the parsed tag atom, zero for unknown tags and
// non-elements.
func (cl *Node) Atom() atom.Atom {
	return cl.dataAtom
}

// Attrs returns the attributes of the clone.
func (cl *Node) Attrs() []html.Attribute {
	return cl.attr
}

// Attr returns an attribute value and wether it is present.
func (cl *Node) Attr(key string) (string, bool) {
	for _, a := range cl.attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute value, replacing a present one.
func (cl *Node) SetAttr(key string, val string) {
	for i, a := range cl.attr {
		if a.Key == key {
			cl.attr[i].Val = val
			return
		}
	}
	cl.attr = append(cl.attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr drops an attribute, if present.
func (cl *Node) RemoveAttr(key string) {
	for i, a := range cl.attr {
		if a.Key == key {
			cl.attr = append(cl.attr[:i], cl.attr[i+1:]...)
			return
		}
	}
}

// Styles returns the style snapshot attached to this clone, nil if none
// has been resolved (text nodes).
func (cl *Node) Styles() *style.Snapshot {
	return cl.styles
}

// SetStyles attaches the resolved style snapshot of a clone node.
func (cl *Node) SetStyles(styles *style.Snapshot) {
	cl.styles = styles
}

func (cl *Node) String() string {
	if cl.IsElement() {
		return "<" + cl.data + ">"
	}
	return "#text"
}
