package domimage

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"context"
	"fmt"
	"strings"

	"github.com/daveytran/dom-to-image-more/clone"
	"github.com/daveytran/dom-to-image-more/inline"
	"github.com/daveytran/dom-to-image-more/raster"
	"github.com/daveytran/dom-to-image-more/style/css"
	"github.com/daveytran/dom-to-image-more/style/cssom/douceuradapter"
	"github.com/daveytran/dom-to-image-more/svg"
	"golang.org/x/net/html"
)

// conversion is the unit of work for one call: it exclusively owns the
// resolver (and its style cache) and the inliner (and its resource
// cache). Both die with the conversion; concurrent calls cannot
// interfere.
type conversion struct {
	opts     Options
	resolver *css.Resolver
	inliner  *inline.Inliner
	fontCSS  string
}

func newConversion(ctx context.Context, node *html.Node, opts Options) (*conversion, error) {
	opts, credFilters, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	c := &conversion{opts: opts}
	c.inliner = inline.New(inline.Options{
		CacheBust:         opts.CacheBust,
		Placeholder:       opts.ImagePlaceholder,
		Proxy:             opts.CORSProxy,
		UseCredentials:    opts.UseCredentials,
		CredentialFilters: credFilters,
		Fetcher:           opts.Fetcher,
	})
	c.resolver = css.NewResolver(css.Options{
		IgnoreErrors: opts.IgnoreCSSRuleErrors,
		Filter:       opts.FilterStyles,
		CopyDefaults: !opts.SkipDefaultStyles,
		Caching:      opts.keyStrategy(),
	})
	if err := c.loadStylesheets(ctx, node); err != nil {
		return nil, err
	}
	return c, nil
}

// loadStylesheets discovers the author stylesheets of the node's owning
// document: embedded <style> elements plus <link rel=stylesheet>
// targets fetched through the conversion's fetcher. url() references
// inside sheet sources (fonts, CSS-referenced assets) are embedded
// before resolution, and @font-face blocks are kept for the serialized
// snapshot.
func (c *conversion) loadStylesheets(ctx context.Context, node *html.Node) error {
	doc := documentOf(node)
	var fonts []string
	addSource := func(name, csstext string) error {
		inlined, err := c.inliner.InlineAll(ctx, csstext)
		if err != nil {
			return err
		}
		sheet, err := douceuradapter.Parse(inlined)
		if err != nil {
			if c.opts.IgnoreCSSRuleErrors {
				tracer().Infof("domimage: skipping inaccessible stylesheet %q: %v", name, err)
				return nil
			}
			return &css.SheetError{Source: name, Err: err}
		}
		fonts = append(fonts, sheet.FontFaces()...)
		return c.resolver.AddSheet(name, sheet)
	}
	for i, text := range douceuradapter.ExtractStyleTexts(doc) {
		if err := addSource(fmt.Sprintf("style#%d", i), text); err != nil {
			return err
		}
	}
	for _, href := range douceuradapter.ExtractStyleLinks(doc) {
		res, err := c.fetchSheet(ctx, href)
		if err != nil {
			if c.opts.IgnoreCSSRuleErrors {
				tracer().Infof("domimage: skipping inaccessible stylesheet %q: %v", href, err)
				continue
			}
			return &css.SheetError{Source: href, Err: err}
		}
		if err := addSource(href, res); err != nil {
			return err
		}
	}
	c.fontCSS = strings.Join(fonts, "\n")
	return nil
}

// fetchSheet goes through the inliner, so sheet sources share the
// operation's resource cache and its cache-bust/credential policy.
func (c *conversion) fetchSheet(ctx context.Context, href string) (string, error) {
	res, err := c.inliner.Fetch(ctx, href)
	if err != nil {
		return "", err
	}
	return string(res.Data), nil
}

// serialize runs clone building and serialization, returning the markup
// together with the target viewport dimensions.
func (c *conversion) serialize(ctx context.Context, node *html.Node) (string, float64, float64, error) {
	builder := &clone.Builder{
		Resolver:   c.resolver,
		Inliner:    c.inliner,
		Filter:     c.opts.Filter,
		AdjustPre:  c.opts.AdjustPre,
		AdjustPost: c.opts.AdjustPost,
		OnClone:    c.opts.OnClone,
		Width:      c.opts.Width,
		Height:     c.opts.Height,
		RootStyle:  c.opts.Style,
		Background: c.opts.BGColor,
	}
	root, err := builder.Build(ctx, node)
	if err != nil {
		return "", 0, 0, err
	}
	params := svg.Params{
		Width:      c.opts.Width,
		Height:     c.opts.Height,
		Background: c.opts.BGColor,
		FontCSS:    c.fontCSS,
	}
	w, h := svg.Extent(root, params)
	markup, err := svg.Serialize(root, params)
	if err != nil {
		return "", 0, 0, err
	}
	return markup, w, h, nil
}

// --- Public conversion entry points -----------------------------------

// ToSVG converts a DOM subtree into a self-contained SVG document
// string. All external resources are embedded; the markup has no
// dependencies on the live document or the network.
func ToSVG(ctx context.Context, node *html.Node, opts Options) (string, error) {
	c, err := newConversion(ctx, node, opts)
	if err != nil {
		return "", err
	}
	markup, _, _, err := c.serialize(ctx, node)
	return markup, err
}

// ToCanvas converts a DOM subtree and rasterizes it onto a drawing
// surface of width*scale by height*scale pixels.
func ToCanvas(ctx context.Context, node *html.Node, opts Options) (*raster.Surface, error) {
	c, err := newConversion(ctx, node, opts)
	if err != nil {
		return nil, err
	}
	markup, w, h, err := c.serialize(ctx, node)
	if err != nil {
		return nil, err
	}
	return raster.Rasterize(svg.AsDataURL(markup), w, h, c.opts.Scale, c.opts.Decoder)
}

// ToPNG converts a DOM subtree into PNG-encoded image bytes.
func ToPNG(ctx context.Context, node *html.Node, opts Options) ([]byte, error) {
	surface, err := ToCanvas(ctx, node, opts)
	if err != nil {
		return nil, err
	}
	return surface.EncodePNG()
}

// ToJPEG converts a DOM subtree into JPEG-encoded image bytes, honoring
// the configured quality.
func ToJPEG(ctx context.Context, node *html.Node, opts Options) ([]byte, error) {
	surface, err := ToCanvas(ctx, node, opts)
	if err != nil {
		return nil, err
	}
	if opts.Quality == 0 {
		opts.Quality = 1
	}
	return surface.EncodeJPEG(opts.Quality)
}

// ToPixelData converts a DOM subtree into a raw RGBA pixel buffer, 4
// bytes per pixel in row order.
func ToPixelData(ctx context.Context, node *html.Node, opts Options) ([]byte, error) {
	surface, err := ToCanvas(ctx, node, opts)
	if err != nil {
		return nil, err
	}
	return surface.Pixels(), nil
}

// ToBlob converts a DOM subtree into a PNG binary object.
func ToBlob(ctx context.Context, node *html.Node, opts Options) (*raster.Blob, error) {
	surface, err := ToCanvas(ctx, node, opts)
	if err != nil {
		return nil, err
	}
	return surface.PNGBlob()
}

// documentOf walks up to the owning document of a node, falling back to
// the node itself for already-detached subtrees.
func documentOf(node *html.Node) *html.Node {
	doc := node
	for p := node; p != nil; p = p.Parent {
		doc = p
	}
	return doc
}
