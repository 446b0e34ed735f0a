/*
Package cssom de-couples CSS stylesheet implementations from cascade
resolution.

CSS handling is hidden behind the interfaces StyleSheet and Rule, so the
style resolver never depends on a concrete CSS parser. A concrete
implementation backed by the douceur parser lives in sub-package
douceuradapter; selector matching is done with the great work of
https://godoc.org/github.com/andybalholm/cascadia.

Having this interface imposes a performance hit. However, this
implementation of CSS-styling will never trade modularity and
clarity for performance. Clients in need for a production grade
browser engine (where performance is key) should opt for headless
versions of the main browser projects.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package cssom

import "github.com/daveytran/dom-to-image-more/style"

// StyleSheet is an interface to abstract away a stylesheet-implementation.
//
// See interface Rule.
type StyleSheet interface {
	AppendRules(StyleSheet) // append rules from another stylesheet
	Empty() bool            // does this stylesheet contain any rules?
	Rules() []Rule          // all the rules of a stylesheet
}

// Rule is the type stylesheets consists of.
//
// See interface StyleSheet.
type Rule interface {
	Selector() string            // the prelude / selectors of the rule
	Properties() []string        // property keys, e.g. "margin-top"
	Value(string) style.Property // property value for key, e.g. "15px"
	IsImportant(string) bool     // is property key marked as important?
}
