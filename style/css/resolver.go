/*
Package css resolves the effective style of DOM nodes for offline cloning.

The resolver reproduces the cascade for a single static medium: author
stylesheet rules ordered by selector specificity and source order, inline
style attributes, !important declarations, inheritance from the parent's
resolved snapshot, and (optionally) user-agent baseline defaults. The
result per node is a style.Snapshot explicit enough that a clone detached
from the live document renders like the original.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package css

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"github.com/daveytran/dom-to-image-more/style"
	"github.com/daveytran/dom-to-image-more/style/cssom"
	"github.com/daveytran/dom-to-image-more/style/cssom/douceuradapter"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/net/html"
)

// tracer will return a tracer. We are tracing to 'domimage.style'
func tracer() tracing.Trace {
	return tracing.Select("domimage.style")
}

// SheetError marks an author stylesheet whose rules are inaccessible,
// either because fetching its source failed or because the source does
// not parse. Depending on the resolver's error policy a SheetError
// aborts the conversion or the sheet is silently skipped.
type SheetError struct {
	Source string // identifies the offending sheet
	Err    error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("styling: stylesheet %q inaccessible: %v", e.Source, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// Options configure a Resolver. The zero value resolves with strict
// snapshot caching, surfaces sheet errors, keeps every property and does
// not seed user-agent defaults.
type Options struct {
	IgnoreErrors bool              // skip inaccessible stylesheets instead of failing
	Filter       func(string) bool // per-property inclusion predicate, nil keeps all
	CopyDefaults bool              // seed the user-agent baseline for untouched properties
	Caching      KeyStrategy       // snapshot cache precision, nil means StrictKeys
}

// Resolver computes style snapshots for source nodes. A resolver is
// owned by exactly one conversion operation; its rule set and snapshot
// cache are discarded with it.
type Resolver struct {
	opts  Options
	rules []compiledRule
	order int // running source-order counter across sheets
	cache *snapshotCache
}

type compiledRule struct {
	sel   cascadia.Sel
	spec  cascadia.Specificity
	order int
	rule  cssom.Rule
}

// NewResolver creates a Resolver for one conversion operation.
func NewResolver(opts Options) *Resolver {
	return &Resolver{
		opts:  opts,
		cache: newSnapshotCache(opts.Caching),
	}
}

// AddSource parses an author stylesheet source text and registers its
// rules. A parse failure is subject to the resolver's error policy.
func (r *Resolver) AddSource(name string, csstext string) error {
	sheet, err := douceuradapter.Parse(csstext)
	if err != nil {
		if r.opts.IgnoreErrors {
			tracer().Infof("styling: skipping inaccessible stylesheet %q: %v", name, err)
			return nil
		}
		return &SheetError{Source: name, Err: err}
	}
	return r.AddSheet(name, sheet)
}

// AddSheet registers the rules of an already-parsed stylesheet.
// Selectors that do not parse are dropped, matching how browsers treat
// unknown selector syntax.
func (r *Resolver) AddSheet(name string, sheet cssom.StyleSheet) error {
	if sheet == nil || sheet.Empty() {
		return nil
	}
	for _, rule := range sheet.Rules() {
		sels, err := cascadia.ParseGroup(rule.Selector())
		if err != nil {
			tracer().Debugf("styling: dropping rule with selector %q: %v", rule.Selector(), err)
			r.order++
			continue
		}
		for _, sel := range sels {
			r.rules = append(r.rules, compiledRule{
				sel:   sel,
				spec:  sel.Specificity(),
				order: r.order,
				rule:  rule,
			})
		}
		r.order++
	}
	return nil
}

// CacheHits reports how many snapshot computations were saved by the
// snapshot cache so far.
func (r *Resolver) CacheHits() int {
	return r.cache.hits
}

// Snapshot resolves the full effective style for a node. parent is the
// already-resolved snapshot of the node's parent (nil for the root);
// inheritance fills from it rather than from the live cascade, keeping
// resolution independent of the live document's state.
//
// The returned snapshot is owned by the caller. Cache hits return
// copies, never shared snapshots.
func (r *Resolver) Snapshot(n *html.Node, parent *style.Snapshot) (*style.Snapshot, error) {
	if n == nil || n.Type != html.ElementNode {
		return style.NewSnapshot(), nil
	}
	if snap, ok := r.cache.lookup(n); ok {
		return snap, nil
	}
	snap := style.NewSnapshot()

	// author rules, least specific first so later Sets win
	matches := r.matchingRules(n)
	var important []style.KeyValue
	for _, m := range matches {
		for _, key := range m.rule.Properties() {
			v := m.rule.Value(key)
			if m.rule.IsImportant(key) {
				important = append(important, style.KeyValue{Key: key, Value: v})
				continue
			}
			snap.Set(key, v)
		}
	}

	// inline style attribute
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		kvs, err := douceuradapter.ParseDeclarations(a.Val)
		if err != nil {
			tracer().Debugf("styling: unparseable style attribute %q", a.Val)
			continue
		}
		for _, kv := range kvs {
			snap.Set(kv.Key, kv.Value)
		}
	}

	// important declarations outrank inline styles
	for _, kv := range important {
		snap.Set(kv.Key, kv.Value)
	}

	resolveInheritanceKeywords(snap, parent, n)
	inheritFromParent(snap, parent)
	if r.opts.CopyDefaults {
		style.SeedDefaults(snap, n)
	}
	if r.opts.Filter != nil {
		for _, kv := range snap.Properties() {
			if !r.opts.Filter(kv.Key) {
				snap.Delete(kv.Key)
			}
		}
	}

	r.cache.store(n, snap)
	return snap, nil
}

// matchingRules returns the rules applying to n, ordered by ascending
// (specificity, source order).
func (r *Resolver) matchingRules(n *html.Node) []compiledRule {
	var matches []compiledRule
	for _, cr := range r.rules {
		if cr.sel.Match(n) {
			matches = append(matches, cr)
		}
	}
	sortRules(matches)
	return matches
}

func sortRules(rules []compiledRule) {
	// insertion sort; match sets are small
	for i := 1; i < len(rules); i++ {
		for j := i; j > 0 && lessRule(rules[j], rules[j-1]); j-- {
			rules[j], rules[j-1] = rules[j-1], rules[j]
		}
	}
}

func lessRule(a, b compiledRule) bool {
	if a.spec != b.spec {
		return a.spec.Less(b.spec)
	}
	return a.order < b.order
}

// resolveInheritanceKeywords replaces explicit "inherit" and "initial"
// values, which are meaningless on a detached clone.
func resolveInheritanceKeywords(snap *style.Snapshot, parent *style.Snapshot, n *html.Node) {
	for _, kv := range snap.Properties() {
		switch {
		case kv.Value.IsInherit():
			if p, ok := parent.Property(kv.Key); ok {
				snap.Set(kv.Key, p)
			} else {
				snap.Set(kv.Key, style.UserAgentDefault(n.Data, kv.Key))
			}
		case kv.Value.IsInitial():
			snap.Set(kv.Key, style.UserAgentDefault(n.Data, kv.Key))
		}
	}
}

// inheritFromParent copies the parent's resolved values for inherited
// properties the node has no local value for.
func inheritFromParent(snap *style.Snapshot, parent *style.Snapshot) {
	if parent == nil {
		return
	}
	for _, kv := range parent.Properties() {
		if style.IsInherited(kv.Key) {
			snap.Add(kv.Key, kv.Value)
		}
	}
}
