package clone

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/daveytran/dom-to-image-more/inline"
	"github.com/daveytran/dom-to-image-more/style"
	"github.com/daveytran/dom-to-image-more/style/css"
	"github.com/daveytran/dom-to-image-more/tree"
	"golang.org/x/net/html"
)

// Hook is a per-node transform extension point. It may return a
// different node; the replacement is what propagates into the clone
// tree. Returning nil keeps the node as-is.
type Hook func(n *Node) *Node

// RootHook runs once against the finished clone root for final
// adjustments before serialization.
type RootHook func(root *Node) error

// Builder drives style resolution and resource inlining while walking
// the source tree. One Builder serves one conversion operation.
type Builder struct {
	Resolver *css.Resolver
	Inliner  *inline.Inliner

	Filter     func(*html.Node) bool // per-descendant inclusion predicate, never applied to the root
	AdjustPre  Hook                  // after structural cloning, children not yet present
	AdjustPost Hook                  // after children are cloned and attached
	OnClone    RootHook              // whole-tree hook on the finished root

	Width      float64           // clone-root width override, 0 keeps the measured value
	Height     float64           // clone-root height override
	RootStyle  map[string]string // extra inline declarations forced onto the clone root
	Background string            // solid backdrop fill
}

// Build produces a fully-resolved clone tree for a source root. A node's
// style is fully resolved and its resources fully inlined before the
// clone is attached to its parent; the final tree's child order matches
// the source order.
func (b *Builder) Build(ctx context.Context, src *html.Node) (*Node, error) {
	if src == nil {
		return nil, fmt.Errorf("clone: cannot build from nil source node")
	}
	root, err := b.build(ctx, src, nil)
	if err != nil {
		return nil, err
	}
	b.finishRoot(root)
	if b.OnClone != nil {
		if err := b.OnClone(root); err != nil {
			return nil, fmt.Errorf("clone: root hook failed: %w", err)
		}
	}
	freezeStyles(root)
	tracer().Debugf("clone: built tree with %d nodes", tree.Count(&root.Node))
	return root, nil
}

// per node: filter-check → pre-clone-hook → structural-clone →
// style-resolve → resource-inline → recurse-children → post-clone-hook
func (b *Builder) build(ctx context.Context, src *html.Node, parentStyles *style.Snapshot) (*Node, error) {
	cl := NewFromSource(src)
	if b.AdjustPre != nil {
		if repl := b.AdjustPre(cl); repl != nil {
			cl = repl
		}
	}

	var snap *style.Snapshot
	if src.Type == html.ElementNode {
		var err error
		snap, err = b.Resolver.Snapshot(src, parentStyles)
		if err != nil {
			return nil, err
		}
		if err := b.inlineResources(ctx, cl, snap); err != nil {
			return nil, err
		}
		cl.SetStyles(snap)
	}

	for ch := src.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.CommentNode || ch.Type == html.DoctypeNode {
			continue
		}
		if b.Filter != nil && !b.Filter(ch) {
			continue // excludes the node and its entire subtree
		}
		child, err := b.build(ctx, ch, snap)
		if err != nil {
			return nil, err
		}
		cl.AddChild(&child.Node)
	}

	if b.AdjustPost != nil {
		if repl := b.AdjustPost(cl); repl != nil {
			cl = repl
		}
	}
	return cl, nil
}

// style properties that may carry url() references worth embedding
var urlProperties = [...]string{"background", "background-image", "list-style-image", "border-image-source"}

func (b *Builder) inlineResources(ctx context.Context, cl *Node, snap *style.Snapshot) error {
	if cl.Tag() == "img" {
		if src, ok := cl.Attr("src"); ok && src != "" {
			data, err := b.Inliner.Inline(ctx, src)
			if err != nil {
				return err
			}
			cl.SetAttr("src", data)
			cl.RemoveAttr("srcset") // would undo the embedded src
		}
	}
	for _, key := range urlProperties {
		v, ok := snap.Property(key)
		if !ok || !strings.Contains(v.String(), "url(") {
			continue
		}
		inlined, err := b.Inliner.InlineAll(ctx, v.String())
		if err != nil {
			return err
		}
		snap.Set(key, style.Property(inlined))
	}
	return nil
}

// finishRoot applies the caller's root-only adjustments after the
// recursive walk: dimension overrides, forced declarations, backdrop.
func (b *Builder) finishRoot(root *Node) {
	snap := root.Styles()
	if snap == nil {
		snap = style.NewSnapshot()
		root.SetStyles(snap)
	}
	if b.Width > 0 {
		snap.Set("width", style.Property(formatPx(b.Width)))
	}
	if b.Height > 0 {
		snap.Set("height", style.Property(formatPx(b.Height)))
	}
	if b.Background != "" {
		snap.Set("background-color", style.Property(b.Background))
	}
	for k, v := range b.RootStyle {
		snap.Set(k, style.Property(v))
	}
}

func freezeStyles(root *Node) {
	_ = tree.Walk(&root.Node, func(n *tree.Node[*Node], _ *tree.Node[*Node], _ int) error {
		if s := n.Payload.Styles(); s != nil {
			s.Freeze()
		}
		return nil
	})
}

func formatPx(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "px"
}
