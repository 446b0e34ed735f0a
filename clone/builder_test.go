package clone

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/daveytran/dom-to-image-more/inline"
	"github.com/daveytran/dom-to-image-more/style"
	"github.com/daveytran/dom-to-image-more/style/css"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/net/html"
)

type fakeFetcher struct {
	resources map[string]inline.Resource
}

func (f *fakeFetcher) Fetch(ctx context.Context, req inline.Request) (inline.Resource, error) {
	if r, ok := f.resources[req.URL]; ok {
		return r, nil
	}
	return inline.Resource{}, fmt.Errorf("no such resource")
}

func newBuilder(csstext string, resources map[string]inline.Resource) *Builder {
	resolver := css.NewResolver(css.Options{})
	if csstext != "" {
		if err := resolver.AddSource("test", csstext); err != nil {
			panic(err)
		}
	}
	return &Builder{
		Resolver: resolver,
		Inliner:  inline.New(inline.Options{Fetcher: &fakeFetcher{resources: resources}}),
	}
}

func childAt(n *Node, i int) *Node {
	ch, _ := n.Child(i)
	return FromTreeNode(ch)
}

// parseElement parses an HTML fragment and returns its first body element.
func parseElement(t *testing.T, fragment string) *html.Node {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("cannot parse test fragment: %v", err)
	}
	var body func(n *html.Node) *html.Node
	body = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "body" {
			return n
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if b := body(ch); b != nil {
				return b
			}
		}
		return nil
	}
	b := body(doc)
	if b == nil || b.FirstChild == nil {
		t.Fatal("test fragment has no body element")
	}
	return b.FirstChild
}

func TestBuildClonesStructure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "domimage.clone")
	defer teardown()
	//
	src := parseElement(t, `<div id="a"><p>hello</p><span>world</span></div>`)
	b := newBuilder("", nil)
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	if root.Tag() != "div" {
		t.Errorf("expected clone root to be a div, is %q", root.Tag())
	}
	if id, _ := root.Attr("id"); id != "a" {
		t.Errorf("expected attribute id=a on clone root, got %q", id)
	}
	if root.ChildCount() != 2 {
		t.Fatalf("expected 2 children on clone root, have %d", root.ChildCount())
	}
	first, second := childAt(root, 0), childAt(root, 1)
	if first.Tag() != "p" || second.Tag() != "span" {
		t.Errorf("expected source child order preserved, got %s, %s", first, second)
	}
	text := childAt(first, 0)
	if text.Type() != html.TextNode || text.Tag() != "hello" {
		t.Errorf("expected text content cloned, got %q", text.Tag())
	}
}

func TestBuildResolvesStyles(t *testing.T) {
	src := parseElement(t, `<div><p>x</p></div>`)
	b := newBuilder("div { color: red; } p { margin: 0; }", nil)
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	if p, ok := root.Styles().Property("color"); !ok || p != "red" {
		t.Errorf("expected color=red on clone root, got %q", p)
	}
	child := childAt(root, 0)
	if p, ok := child.Styles().Property("margin"); !ok || p != "0" {
		t.Errorf("expected margin=0 on child clone, got %q", p)
	}
	if p, ok := child.Styles().Property("color"); !ok || p != "red" {
		t.Errorf("expected color inherited by child clone, got %q", p)
	}
}

func TestBuildFreezesStyles(t *testing.T) {
	src := parseElement(t, `<div></div>`)
	b := newBuilder("", nil)
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected finished snapshot to reject modification, doesn't")
		}
	}()
	root.Styles().Set("color", "blue")
}

func TestFilterExcludesSubtree(t *testing.T) {
	src := parseElement(t, `<div><span class="skip"><img src="http://x/a.png"></span><p>keep</p></div>`)
	b := newBuilder("", nil)
	b.Filter = func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		for _, a := range n.Attr {
			if a.Key == "class" && a.Val == "skip" {
				return false
			}
		}
		return true
	}
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	if root.ChildCount() != 1 {
		t.Fatalf("expected excluded subtree to vanish, have %d children", root.ChildCount())
	}
	if childAt(root, 0).Tag() != "p" {
		t.Errorf("expected only the p child to survive, got %s", childAt(root, 0))
	}
	if b.Inliner.Fetches() != 0 {
		t.Errorf("expected no fetch for resources inside an excluded subtree, got %d", b.Inliner.Fetches())
	}
}

func TestImgSourceIsEmbedded(t *testing.T) {
	src := parseElement(t, `<div><img src="http://x/a.png" srcset="http://x/a-2x.png 2x"></div>`)
	b := newBuilder("", map[string]inline.Resource{
		"http://x/a.png": {Data: []byte{0x89, 'P', 'N', 'G'}, MIME: "image/png"},
	})
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	img := childAt(root, 0)
	data, _ := img.Attr("src")
	if !inline.IsDataURL(data) {
		t.Errorf("expected img src replaced with embedded data, got %q", data)
	}
	if _, ok := img.Attr("srcset"); ok {
		t.Error("expected srcset dropped from the embedded image, isn't")
	}
}

func TestBackgroundURLIsEmbedded(t *testing.T) {
	src := parseElement(t, `<div></div>`)
	b := newBuilder(`div { background-image: url("http://x/bg.png"); }`, map[string]inline.Resource{
		"http://x/bg.png": {Data: []byte{0x89, 'P', 'N', 'G'}, MIME: "image/png"},
	})
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	bg, _ := root.Styles().Property("background-image")
	if !strings.Contains(bg.String(), "data:image/png;base64,") {
		t.Errorf("expected background reference replaced with embedded data, got %q", bg)
	}
}

func TestAdjustHooksMayReplaceNodes(t *testing.T) {
	src := parseElement(t, `<div><canvas></canvas></div>`)
	b := newBuilder("", nil)
	b.AdjustPre = func(n *Node) *Node {
		if n.Tag() == "canvas" {
			repl := NewElement("img")
			repl.SetAttr("src", inline.DataURL("image/png", []byte("snapshot")))
			return repl
		}
		return nil
	}
	var postSeen []string
	b.AdjustPost = func(n *Node) *Node {
		postSeen = append(postSeen, n.Tag())
		return nil
	}
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	child := childAt(root, 0)
	if child.Tag() != "img" {
		t.Errorf("expected hook replacement to propagate into the tree, got %s", child)
	}
	if len(postSeen) != 2 || postSeen[0] != "img" || postSeen[1] != "div" {
		t.Errorf("expected post hooks bottom-up on replaced nodes, got %v", postSeen)
	}
}

func TestRootAdjustments(t *testing.T) {
	src := parseElement(t, `<div><p>x</p></div>`)
	b := newBuilder("", nil)
	b.Width = 640
	b.Height = 480
	b.Background = "#fff"
	b.RootStyle = map[string]string{"transform-origin": "top left"}
	b.OnClone = func(root *Node) error {
		root.SetAttr("data-snapshot", "1")
		return nil
	}
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	snap := root.Styles()
	checks := []struct {
		key  string
		want style.Property
	}{
		{"width", "640px"},
		{"height", "480px"},
		{"background-color", "#fff"},
		{"transform-origin", "top left"},
	}
	for _, c := range checks {
		if p, _ := snap.Property(c.key); p != c.want {
			t.Errorf("expected %s=%q on clone root, got %q", c.key, c.want, p)
		}
	}
	if v, _ := root.Attr("data-snapshot"); v != "1" {
		t.Error("expected whole-tree hook to run on the finished root, didn't")
	}
}

func TestDump(t *testing.T) {
	src := parseElement(t, `<div><p>x</p></div>`)
	b := newBuilder("", nil)
	root, err := b.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("cannot build clone tree: %v", err)
	}
	out := Dump(root)
	if !strings.Contains(out, "<div>") || !strings.Contains(out, "<p>") {
		t.Errorf("expected tree dump to show the cloned elements, got:\n%s", out)
	}
}
