package douceuradapter

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestParseAndRules(t *testing.T) {
	sheet, err := Parse(`div { color: red; margin-top: 5px !important; }`)
	if err != nil {
		t.Fatalf("cannot parse stylesheet: %v", err)
	}
	if sheet.Empty() {
		t.Fatal("expected stylesheet to contain rules, doesn't")
	}
	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.Selector() != "div" {
		t.Errorf("expected selector 'div', got %q", r.Selector())
	}
	if v := r.Value("color"); v != "red" {
		t.Errorf("expected color=red, got %q", v)
	}
	if !r.IsImportant("margin-top") {
		t.Error("expected margin-top to be !important, isn't")
	}
	if r.IsImportant("color") {
		t.Error("expected color not to be !important, is")
	}
}

func TestMediaRulesAreFlattened(t *testing.T) {
	sheet, err := Parse(`@media screen { p { color: blue; } } div { color: red; }`)
	if err != nil {
		t.Fatalf("cannot parse stylesheet: %v", err)
	}
	rules := sheet.Rules()
	if len(rules) != 2 {
		t.Fatalf("expected nested rules to be flattened into 2 rules, got %d", len(rules))
	}
}

func TestParseDeclarations(t *testing.T) {
	kvs, err := ParseDeclarations(`color: red; margin-top: 2px`)
	if err != nil {
		t.Fatalf("cannot parse declarations: %v", err)
	}
	if len(kvs) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(kvs))
	}
	if kvs[0].Key != "color" || kvs[0].Value != "red" {
		t.Errorf("unexpected first declaration: %v", kvs[0])
	}
}

func TestFontFaces(t *testing.T) {
	sheet, err := Parse(`@font-face { font-family: "Fancy"; src: url(fancy.woff2); } div { color: red; }`)
	if err != nil {
		t.Fatalf("cannot parse stylesheet: %v", err)
	}
	faces := sheet.FontFaces()
	if len(faces) != 1 {
		t.Fatalf("expected 1 font-face block, got %d", len(faces))
	}
	if !strings.Contains(faces[0], "Fancy") {
		t.Errorf("expected font-face block to carry the family name, got %s", faces[0])
	}
	if len(sheet.Rules()) != 1 {
		t.Errorf("expected font-face not to surface as a style rule")
	}
}

func TestExtractFromDocument(t *testing.T) {
	docsrc := `<html><head>
		<style>div { color: red; }</style>
		<link rel="stylesheet" href="extra.css">
		<link rel="icon" href="favicon.ico">
	</head><body><style>p { margin: 0; }</style></body></html>`
	doc, err := html.Parse(strings.NewReader(docsrc))
	if err != nil {
		t.Fatalf("cannot parse document: %v", err)
	}
	texts := ExtractStyleTexts(doc)
	if len(texts) != 2 {
		t.Fatalf("expected 2 embedded style texts, got %d", len(texts))
	}
	sheets := ExtractStyleElements(doc)
	if len(sheets) != 2 {
		t.Fatalf("expected 2 parsed stylesheets, got %d", len(sheets))
	}
	links := ExtractStyleLinks(doc)
	if len(links) != 1 || links[0] != "extra.css" {
		t.Errorf("expected the single stylesheet link, got %v", links)
	}
}
