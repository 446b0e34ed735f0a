package style

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"golang.org/x/net/html"
)

// User-agent baseline styling. Real browsers attach these defaults to the
// document root; a detached clone has no document root to fall back to,
// so the resolver seeds snapshots with them explicitly (unless the client
// disabled default-style copying as a speed trade-off).

var baselineDefaults = map[string]Property{
	"margin-top":          "0px",
	"margin-left":         "0px",
	"margin-right":        "0px",
	"margin-bottom":       "0px",
	"padding-top":         "0px",
	"padding-left":        "0px",
	"padding-right":       "0px",
	"padding-bottom":      "0px",
	"border-top-width":    "0px",
	"border-left-width":   "0px",
	"border-right-width":  "0px",
	"border-bottom-width": "0px",
	"border-top-style":    "none",
	"border-left-style":   "none",
	"border-right-style":  "none",
	"border-bottom-style": "none",
	"width":               "auto",
	"height":              "auto",
	"position":            "static",
	"float":               "none",
	"visibility":          "visible",
	"background-color":    "transparent",
	"color":               "black",
	"font-size":           "16px",
	"font-style":          "normal",
	"font-weight":         "400",
	"line-height":         "normal",
	"text-align":          "start",
	"white-space":         "normal",
	"direction":           "ltr",
}

// per-tag deviations from the baseline
var tagDefaults = map[string]map[string]Property{
	"body":   {"margin-top": "8px", "margin-left": "8px", "margin-right": "8px", "margin-bottom": "8px"},
	"h1":     {"font-size": "2em", "font-weight": "700", "margin-top": "0.67em", "margin-bottom": "0.67em"},
	"h2":     {"font-size": "1.5em", "font-weight": "700", "margin-top": "0.83em", "margin-bottom": "0.83em"},
	"h3":     {"font-size": "1.17em", "font-weight": "700", "margin-top": "1em", "margin-bottom": "1em"},
	"p":      {"margin-top": "1em", "margin-bottom": "1em"},
	"b":      {"font-weight": "700"},
	"strong": {"font-weight": "700"},
	"i":      {"font-style": "italic"},
	"em":     {"font-style": "italic"},
	"ul":     {"margin-top": "1em", "margin-bottom": "1em", "padding-left": "40px"},
	"ol":     {"margin-top": "1em", "margin-bottom": "1em", "padding-left": "40px"},
	"pre":    {"font-family": "monospace", "white-space": "pre", "margin-top": "1em", "margin-bottom": "1em"},
	"code":   {"font-family": "monospace"},
	"a":      {"color": "rgb(0, 0, 238)", "text-decoration": "underline"},
	"table":  {"border-collapse": "separate", "border-spacing": "2px"},
	"th":     {"font-weight": "700", "text-align": "center"},
}

// DisplayPropertyForHTMLNode returns the default `display` CSS property
// for an HTML node.
func DisplayPropertyForHTMLNode(node *html.Node) Property {
	if node == nil {
		return "none"
	}
	if node.Type == html.DocumentNode {
		return "block"
	}
	if node.Type != html.ElementNode {
		tracer().Debugf("cannot get display-property for non-element")
		return "none"
	}
	switch node.Data {
	case "head", "style", "script", "meta", "link", "title":
		return "none"
	case "html", "address", "article", "aside", "blockquote", "body", "div",
		"fieldset", "figure", "footer", "form", "h1", "h2", "h3", "h4", "h5",
		"h6", "header", "hr", "main", "nav", "ol", "p", "pre", "section", "ul":
		return "block"
	case "li":
		return "list-item"
	case "table":
		return "table"
	case "tr":
		return "table-row"
	case "td", "th":
		return "table-cell"
	case "img", "button", "input", "select", "textarea":
		return "inline-block"
	}
	return "inline"
}

// UserAgentDefault returns the user-agent default property value for a
// given element tag and property key, or NullStyle if the baseline does
// not pin the property down.
func UserAgentDefault(tag string, key string) Property {
	if deviations, ok := tagDefaults[tag]; ok {
		if p, ok := deviations[key]; ok {
			return p
		}
	}
	if p, ok := baselineDefaults[key]; ok {
		return p
	}
	return NullStyle
}

// SeedDefaults fills a snapshot with the user-agent baseline for the
// given node's tag, so that untouched properties are explicit once the
// clone is detached from the live cascade. Existing values win.
func SeedDefaults(snap *Snapshot, node *html.Node) {
	if node == nil || node.Type != html.ElementNode {
		return
	}
	snap.Add("display", DisplayPropertyForHTMLNode(node))
	if deviations, ok := tagDefaults[node.Data]; ok {
		for key, p := range deviations {
			snap.Add(key, p)
		}
	}
	for key, p := range baselineDefaults {
		snap.Add(key, p)
	}
}
