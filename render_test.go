package domimage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/daveytran/dom-to-image-more/inline"
	"github.com/daveytran/dom-to-image-more/style/css"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type fakeFetcher struct {
	resources map[string]inline.Resource
	requests  []inline.Request
}

func (f *fakeFetcher) Fetch(ctx context.Context, req inline.Request) (inline.Resource, error) {
	f.requests = append(f.requests, req)
	if r, ok := f.resources[req.URL]; ok {
		return r, nil
	}
	return inline.Resource{}, fmt.Errorf("no such resource")
}

type fakeDecoder struct{}

func (fakeDecoder) Decode(svgdoc []byte, width, height int) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	return img, nil
}

// parseTarget parses a full document and returns the element carrying
// id="target".
func parseTarget(t *testing.T, doc string) *html.Node {
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err, "cannot parse test document")
	var find func(n *html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == "target" {
					return n
				}
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if m := find(ch); m != nil {
				return m
			}
		}
		return nil
	}
	target := find(root)
	require.NotNil(t, target, "test document has no #target element")
	return target
}

const simpleDoc = `<!DOCTYPE html>
<html><head><style>
  #target { width: 100px; height: 50px; color: red; }
</style></head>
<body><div id="target"><p>hello</p></div></body></html>`

func pngResource() inline.Resource {
	return inline.Resource{Data: []byte{0x89, 'P', 'N', 'G'}, MIME: "image/png"}
}

func TestToSVG(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "domimage.api")
	defer teardown()
	//
	node := parseTarget(t, simpleDoc)
	markup, err := ToSVG(context.Background(), node, Options{Fetcher: &fakeFetcher{}})
	require.NoError(t, err, "cannot convert subtree")
	require.Contains(t, markup, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">`)
	require.Contains(t, markup, "<foreignObject")
	require.Contains(t, markup, "color: red;")
	require.Contains(t, markup, "hello")
}

func TestToSVGIsDeterministic(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	opts := Options{Fetcher: &fakeFetcher{}}
	first, err := ToSVG(context.Background(), node, opts)
	require.NoError(t, err)
	second, err := ToSVG(context.Background(), node, opts)
	require.NoError(t, err)
	require.Equal(t, first, second, "conversion must be deterministic")
}

func TestToSVGEmbedsImages(t *testing.T) {
	doc := `<html><body><div id="target" style="width: 10px; height: 10px">
	  <img src="http://x/a.png"></div></body></html>`
	node := parseTarget(t, doc)
	f := &fakeFetcher{resources: map[string]inline.Resource{"http://x/a.png": pngResource()}}
	markup, err := ToSVG(context.Background(), node, Options{Fetcher: f})
	require.NoError(t, err)
	require.NotContains(t, markup, "http://x/a.png", "resource references must not survive")
	require.Contains(t, markup, "data:image/png;base64,")
}

func TestToSVGFetchesLinkedSheets(t *testing.T) {
	doc := `<html><head><link rel="stylesheet" href="http://x/site.css"></head>
	  <body><div id="target"><p>x</p></div></body></html>`
	node := parseTarget(t, doc)
	f := &fakeFetcher{resources: map[string]inline.Resource{
		"http://x/site.css": {Data: []byte(`#target { width: 40px; height: 20px; }`), MIME: "text/css"},
	}}
	markup, err := ToSVG(context.Background(), node, Options{Fetcher: f})
	require.NoError(t, err)
	require.Contains(t, markup, `width="40" height="20"`, "linked sheet rules must apply")
}

func TestLinkedSheetFetchPolicy(t *testing.T) {
	doc := `<html><head>
	  <link rel="stylesheet" href="http://x/site.css">
	  <link rel="stylesheet" href="http://x/site.css">
	</head><body><div id="target">x</div></body></html>`
	node := parseTarget(t, doc)
	f := &fakeFetcher{resources: map[string]inline.Resource{
		"http://x/site.css": {Data: []byte(`#target { width: 40px; height: 20px; }`), MIME: "text/css"},
	}}
	_, err := ToSVG(context.Background(), node, Options{Fetcher: f, UseCredentials: true})
	require.NoError(t, err)
	require.Len(t, f.requests, 1, "a duplicated sheet href is fetched once per conversion")
	require.True(t, f.requests[0].Credentials, "sheet fetches honor the credential policy")
}

func TestToSVGCarriesFontFaces(t *testing.T) {
	doc := `<html><head><style>
	  @font-face { font-family: "F"; src: url(http://x/f.woff2); }
	  #target { width: 10px; height: 10px; font-family: "F"; }
	</style></head><body><div id="target">x</div></body></html>`
	node := parseTarget(t, doc)
	f := &fakeFetcher{resources: map[string]inline.Resource{
		"http://x/f.woff2": {Data: []byte("woof"), MIME: "font/woff2"},
	}}
	markup, err := ToSVG(context.Background(), node, Options{Fetcher: f})
	require.NoError(t, err)
	require.Contains(t, markup, "@font-face", "font declarations must survive into the snapshot")
	require.NotContains(t, markup, "http://x/f.woff2", "font resources must be embedded")
}

func TestToSVGSheetErrorPolicy(t *testing.T) {
	doc := `<html><head><link rel="stylesheet" href="http://x/missing.css"></head>
	  <body><div id="target">x</div></body></html>`
	node := parseTarget(t, doc)
	f := &fakeFetcher{}
	_, err := ToSVG(context.Background(), node, Options{Fetcher: f})
	var sheetErr *css.SheetError
	require.ErrorAs(t, err, &sheetErr, "inaccessible sheet must fail the conversion")
	require.Equal(t, "http://x/missing.css", sheetErr.Source)

	_, err = ToSVG(context.Background(), node, Options{Fetcher: f, IgnoreCSSRuleErrors: true})
	require.NoError(t, err, "error policy must suppress inaccessible sheets")
}

func TestResourceFailure(t *testing.T) {
	doc := `<html><body><div id="target" style="width: 10px; height: 10px">
	  <img src="http://x/missing.png"></div></body></html>`
	node := parseTarget(t, doc)
	_, err := ToSVG(context.Background(), node, Options{Fetcher: &fakeFetcher{}})
	var resErr *inline.ResourceError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, "http://x/missing.png", resErr.URL, "the error must identify the failing reference")

	placeholder := inline.DataURL("image/png", []byte("placeholder"))
	markup, err := ToSVG(context.Background(), node, Options{
		Fetcher:          &fakeFetcher{},
		ImagePlaceholder: placeholder,
	})
	require.NoError(t, err, "placeholder must substitute for failing resources")
	require.Contains(t, markup, placeholder)
}

func TestToCanvas(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	surface, err := ToCanvas(context.Background(), node, Options{
		Fetcher: &fakeFetcher{},
		Decoder: fakeDecoder{},
		Scale:   2,
	})
	require.NoError(t, err)
	require.Equal(t, 200, surface.Width(), "width must honor the scale multiplier")
	require.Equal(t, 100, surface.Height())
}

func TestToPNG(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	data, err := ToPNG(context.Background(), node, Options{Fetcher: &fakeFetcher{}, Decoder: fakeDecoder{}})
	require.NoError(t, err)
	require.True(t, len(data) > 8, "expected PNG bytes")
	require.Equal(t, "\x89PNG", string(data[:4]))
}

func TestToJPEG(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	data, err := ToJPEG(context.Background(), node, Options{
		Fetcher: &fakeFetcher{},
		Decoder: fakeDecoder{},
		Quality: 0.8,
	})
	require.NoError(t, err)
	require.True(t, len(data) > 2, "expected JPEG bytes")
	require.Equal(t, byte(0xff), data[0])
	require.Equal(t, byte(0xd8), data[1])
}

func TestToPixelData(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	pix, err := ToPixelData(context.Background(), node, Options{Fetcher: &fakeFetcher{}, Decoder: fakeDecoder{}})
	require.NoError(t, err)
	require.Len(t, pix, 100*50*4, "4 bytes per pixel")
	require.Equal(t, byte(255), pix[2], "expected the decoder's blue fill")
}

func TestToBlob(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	blob, err := ToBlob(context.Background(), node, Options{Fetcher: &fakeFetcher{}, Decoder: fakeDecoder{}})
	require.NoError(t, err)
	require.Equal(t, "image/png", blob.MIME)
	require.NotEmpty(t, blob.Data)
}

func TestWidthHeightOverride(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	markup, err := ToSVG(context.Background(), node, Options{
		Fetcher: &fakeFetcher{},
		Width:   640,
		Height:  480,
	})
	require.NoError(t, err)
	require.Contains(t, markup, `width="640" height="480"`)
	require.Contains(t, markup, "width: 640px;", "the override must also reach the clone root's styles")
}

func TestBGColor(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	markup, err := ToSVG(context.Background(), node, Options{Fetcher: &fakeFetcher{}, BGColor: "#abcdef"})
	require.NoError(t, err)
	require.Contains(t, markup, `<rect width="100%" height="100%" fill="#abcdef"/>`)
}

func TestOptionsValidation(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	cases := []struct {
		name string
		opts Options
	}{
		{"negative scale", Options{Scale: -1}},
		{"quality out of range", Options{Quality: 1.5}},
		{"unknown caching mode", Options{StyleCaching: "fuzzy"}},
		{"placeholder not a data URL", Options{ImagePlaceholder: "http://x/p.png"}},
		{"bad credentials filter", Options{UseCredentialsFilters: []string{"("}}},
	}
	for _, c := range cases {
		c.opts.Fetcher = &fakeFetcher{}
		if _, err := ToSVG(context.Background(), node, c.opts); err == nil {
			t.Errorf("%s: expected option validation to fail, didn't", c.name)
		}
	}
}

func TestRelaxedCachingConverts(t *testing.T) {
	node := parseTarget(t, simpleDoc)
	markup, err := ToSVG(context.Background(), node, Options{
		Fetcher:      &fakeFetcher{},
		StyleCaching: CachingRelaxed,
	})
	require.NoError(t, err)
	require.Contains(t, markup, "color: red;")
}

func TestConversionsAreIndependent(t *testing.T) {
	// two conversions over the same subtree share nothing; each issues
	// its own fetches
	doc := `<html><body><div id="target" style="width: 10px; height: 10px">
	  <img src="http://x/a.png"><img src="http://x/a.png"></div></body></html>`
	node := parseTarget(t, doc)
	f := &fakeFetcher{resources: map[string]inline.Resource{"http://x/a.png": pngResource()}}
	_, err := ToSVG(context.Background(), node, Options{Fetcher: f})
	require.NoError(t, err)
	require.Len(t, f.requests, 1, "a repeated resource is fetched once per conversion")
	_, err = ToSVG(context.Background(), node, Options{Fetcher: f})
	require.NoError(t, err)
	require.Len(t, f.requests, 2, "a fresh conversion starts with an empty resource cache")
}

func TestContextCancellation(t *testing.T) {
	doc := `<html><body><div id="target"><img src="http://x/a.png"></div></body></html>`
	node := parseTarget(t, doc)
	blocked := &blockingFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ToSVG(ctx, node, Options{Fetcher: blocked})
	require.Error(t, err, "a canceled context must abort the conversion")
	require.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled"))
}

type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, req inline.Request) (inline.Resource, error) {
	<-ctx.Done()
	return inline.Resource{}, ctx.Err()
}
