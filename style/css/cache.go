package css

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"strings"

	"github.com/daveytran/dom-to-image-more/style"
	"golang.org/x/net/html"
)

// KeyStrategy derives the cache identity of a node for snapshot reuse.
// Two nodes mapping to the same key must resolve to the same effective
// style under the strategy's precision contract. The cache itself is
// strategy-agnostic; precision is entirely a matter of key derivation.
type KeyStrategy interface {
	Key(n *html.Node) string
}

// StrictKeys incorporates the identity of every ancestor — tag plus
// attributes — into the key, so rules matched through ancestor
// combinators (".a p") and inheritance filled from the parent snapshot
// are respected exactly. Two nodes share a strict key only if their own
// identity and every ancestor's identity agree. Strict mode is the
// correctness mode; key derivation is allowed to be expensive.
type StrictKeys struct{}

// RelaxedKeys derives the key from the node's own identity only.
// Faster, but two nodes with identical local identity under different
// ancestor chains share a snapshot; ancestor-dependent rule matches and
// inherited properties may diverge from what strict mode would resolve.
type RelaxedKeys struct{}

// identity serializes the cascade-relevant identity of a single node:
// its tag plus every attribute in source order.
func identity(n *html.Node) string {
	var b strings.Builder
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteString("|")
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(a.Val)
	}
	return b.String()
}

// Key is part of interface KeyStrategy.
func (StrictKeys) Key(n *html.Node) string {
	var chain []string
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			chain = append(chain, identity(p))
		}
	}
	var b strings.Builder
	for i := len(chain) - 1; i >= 0; i-- {
		b.WriteString(chain[i])
		b.WriteString(">")
	}
	b.WriteString(identity(n))
	return b.String()
}

// Key is part of interface KeyStrategy.
func (RelaxedKeys) Key(n *html.Node) string {
	return identity(n)
}

var (
	_ KeyStrategy = StrictKeys{}
	_ KeyStrategy = RelaxedKeys{}
)

// snapshotCache memoizes resolved snapshots for one conversion
// operation. It is exclusively owned by one Resolver and discarded with
// it, so no locking is needed.
type snapshotCache struct {
	strategy KeyStrategy
	entries  map[string]*style.Snapshot
	hits     int
}

func newSnapshotCache(strategy KeyStrategy) *snapshotCache {
	if strategy == nil {
		strategy = StrictKeys{}
	}
	return &snapshotCache{strategy: strategy, entries: make(map[string]*style.Snapshot)}
}

// lookup returns a mutable copy of the cached snapshot for n, if any.
// Copies preserve the one-snapshot-per-clone ownership invariant.
func (c *snapshotCache) lookup(n *html.Node) (*style.Snapshot, bool) {
	snap, ok := c.entries[c.strategy.Key(n)]
	if !ok {
		return nil, false
	}
	c.hits++
	return snap.Clone(), true
}

func (c *snapshotCache) store(n *html.Node, snap *style.Snapshot) {
	c.entries[c.strategy.Key(n)] = snap.Clone().Freeze()
}
