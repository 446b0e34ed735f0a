/*
Package douceuradapter is a concrete implementation of interface cssom.StyleSheet.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package douceuradapter

import (
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/daveytran/dom-to-image-more/style"
	"github.com/daveytran/dom-to-image-more/style/cssom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CSSStyles is an adapter for interface cssom.StyleSheet.
// For an explanation of the motivation behind this design, please refer
// to documentation for interface cssom.StyleSheet.
type CSSStyles struct {
	css css.Stylesheet
}

// Wrap a douceur.css.Stylesheet into CssStyles.
// The stylesheet is now managed by the wrapper.
func Wrap(css *css.Stylesheet) *CSSStyles {
	sheet := &CSSStyles{*css}
	return sheet
}

// Parse a CSS source text into a stylesheet.
func Parse(csstext string) (*CSSStyles, error) {
	sheet, err := parser.Parse(csstext)
	if err != nil {
		return nil, err
	}
	return Wrap(sheet), nil
}

// ParseDeclarations parses the contents of an inline style attribute,
// e.g. `color: red; margin-top: 2px`, into key-value pairs.
func ParseDeclarations(styleattr string) ([]style.KeyValue, error) {
	decls, err := parser.ParseDeclarations(styleattr)
	if err != nil {
		return nil, err
	}
	kvs := make([]style.KeyValue, 0, len(decls))
	for _, d := range decls {
		kvs = append(kvs, style.KeyValue{Key: d.Property, Value: style.Property(d.Value)})
	}
	return kvs, nil
}

// Empty checks if this stylesheet contains any rules.
//
// Interface cssom.StyleSheet
func (sheet *CSSStyles) Empty() bool {
	return len(sheet.css.Rules) == 0
}

// AppendRules appends rules from another stylesheet.
//
// Interface cssom.StyleSheet
func (sheet *CSSStyles) AppendRules(other cssom.StyleSheet) {
	othercss := other.(*CSSStyles)
	for _, r := range othercss.css.Rules { // append every rule from other
		sheet.css.Rules = append(sheet.css.Rules, r)
	}
}

// Rules returns all the rules of a stylesheet. Nested rules of at-rules
// (@media etc.) are flattened into the result; the conversion pipeline
// renders for a single static medium.
//
// Interface cssom.StyleSheet
func (sheet *CSSStyles) Rules() []cssom.Rule {
	rules := make([]cssom.Rule, 0, len(sheet.css.Rules))
	for _, r := range sheet.css.Rules {
		rules = appendRule(rules, r)
	}
	return rules
}

func appendRule(rules []cssom.Rule, r *css.Rule) []cssom.Rule {
	if r.Kind == css.QualifiedRule {
		return append(rules, Rule(*r))
	}
	for _, sub := range r.Rules {
		rules = appendRule(rules, sub)
	}
	return rules
}

// FontFaces returns the serialized @font-face blocks of the stylesheet.
// Font declarations cannot be attached to any single node; the SVG
// serializer embeds them as a style element so embedded fonts keep
// working in the detached snapshot.
func (sheet *CSSStyles) FontFaces() []string {
	var faces []string
	for _, r := range sheet.css.Rules {
		if r.Kind == css.AtRule && r.Name == "@font-face" {
			faces = append(faces, r.String())
		}
	}
	return faces
}

var _ cssom.StyleSheet = &CSSStyles{}

// Rule is an adapter for interface cssom.Rule.
type Rule css.Rule

// Selector returns the prelude / selectors of the rule.
func (r Rule) Selector() string {
	return r.Prelude
}

// Properties returns the property keys of a rule,
// e.g. "margin-top"
func (r Rule) Properties() []string {
	decl := r.Declarations
	props := make([]string, 0, len(decl))
	for _, d := range decl {
		props = append(props, d.Property)
	}
	return props
}

// Value returns the property values for given key with this rule, e.g. "15px"
func (r Rule) Value(key string) style.Property {
	decl := r.Declarations
	for _, d := range decl {
		if d.Property == key {
			return style.Property(d.Value)
		}
	}
	return ""
}

// IsImportant returns true if a style key is marked as important ("!").
func (r Rule) IsImportant(key string) bool {
	decl := r.Declarations
	for _, d := range decl {
		if d.Property == key {
			return d.Important
		}
	}
	return false
}

var _ cssom.Rule = Rule{}

// ExtractStyleElements visits <head> and <body> elements in an HTML
// parse tree and searches for embedded <style>s. It returns the content
// of style-elements as style sheets.
func ExtractStyleElements(htmldoc *html.Node) []*CSSStyles {
	var sheets []*CSSStyles
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			if n.FirstChild != nil {
				if sheet, err := Parse(n.FirstChild.Data); err == nil {
					sheets = append(sheets, sheet)
				}
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	visit(htmldoc)
	return sheets
}

// ExtractStyleTexts collects the raw CSS source of embedded <style>
// elements of an HTML parse tree, in document order. Unlike
// ExtractStyleElements no parsing happens, so the caller stays in charge
// of the error policy for broken sheets.
func ExtractStyleTexts(htmldoc *html.Node) []string {
	var texts []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			if n.FirstChild != nil {
				texts = append(texts, n.FirstChild.Data)
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	visit(htmldoc)
	return texts
}

// ExtractStyleLinks collects the href targets of stylesheet <link>
// elements of an HTML parse tree, in document order. Fetching the
// targets is up to the caller.
func ExtractStyleLinks(htmldoc *html.Node) []string {
	var hrefs []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Link {
			var rel, href string
			for _, a := range n.Attr {
				switch a.Key {
				case "rel":
					rel = a.Val
				case "href":
					href = a.Val
				}
			}
			if rel == "stylesheet" && href != "" {
				hrefs = append(hrefs, href)
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	visit(htmldoc)
	return hrefs
}
