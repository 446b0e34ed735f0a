package domimage

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"regexp"

	"github.com/daveytran/dom-to-image-more/clone"
	"github.com/daveytran/dom-to-image-more/inline"
	"github.com/daveytran/dom-to-image-more/raster"
	"github.com/daveytran/dom-to-image-more/style/css"
	"golang.org/x/net/html"
)

// CachingMode selects the precision of the style-snapshot cache key.
type CachingMode string

const (
	// CachingStrict incorporates each ancestor's tag and attributes into
	// cache keys, respecting inherited and ancestor-dependent cascade
	// effects.
	CachingStrict CachingMode = "strict"
	// CachingRelaxed keys on the node's own tag and attributes only,
	// trading ancestor-dependent precision for speed.
	CachingRelaxed CachingMode = "relaxed"
)

// Options configure one conversion call. The value is normalized once at
// the start of the call and read-only thereafter.
type Options struct {
	Filter  func(*html.Node) bool // per-descendant inclusion predicate, never applied to the root
	BGColor string                // solid backdrop fill
	Width   float64               // override clone-root width, CSS pixels
	Height  float64               // override clone-root height, CSS pixels
	Style   map[string]string     // extra inline declarations forced onto the clone root
	Quality float64               // JPEG encode quality, 0–1 (1 if unset)

	ImagePlaceholder    string // fallback data URL on resource fetch failure
	CacheBust           bool   // append a cache-defeating query parameter to fetched URLs
	IgnoreCSSRuleErrors bool   // suppress inaccessible-stylesheet errors instead of failing

	FilterStyles func(string) bool // per-property inclusion predicate during style resolution
	AdjustPre    clone.Hook        // per-node hook right after structural cloning
	AdjustPost   clone.Hook        // per-node hook after children are cloned and attached
	OnClone      clone.RootHook    // final whole-tree hook

	UseCredentials        bool          // credentialed resource fetches
	UseCredentialsFilters []string      // restrict UseCredentials to URLs matching these patterns
	CORSProxy             *inline.Proxy // proxy descriptor for cross-origin image fetch

	SkipDefaultStyles bool        // do not seed user-agent baseline styles
	StyleCaching      CachingMode // strict (default) or relaxed
	Scale             float64     // rasterization scale multiplier (1 if unset)

	Fetcher inline.Fetcher // resource transport, nil means net/http
	Decoder raster.Decoder // SVG decode engine, nil means oksvg
}

// normalized fills defaults and validates the option set.
func (o Options) normalized() (Options, []*regexp.Regexp, error) {
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.Scale < 0 {
		return o, nil, fmt.Errorf("domimage: scale must be positive, is %g", o.Scale)
	}
	if o.Quality == 0 {
		o.Quality = 1
	}
	if o.Quality < 0 || o.Quality > 1 {
		return o, nil, fmt.Errorf("domimage: quality must be within 0–1, is %g", o.Quality)
	}
	switch o.StyleCaching {
	case "":
		o.StyleCaching = CachingStrict
	case CachingStrict, CachingRelaxed:
	default:
		return o, nil, fmt.Errorf("domimage: unknown style-caching mode %q", o.StyleCaching)
	}
	if o.ImagePlaceholder != "" && !inline.IsDataURL(o.ImagePlaceholder) {
		return o, nil, fmt.Errorf("domimage: image placeholder must be a data URL")
	}
	var filters []*regexp.Regexp
	for _, pat := range o.UseCredentialsFilters {
		re, err := regexp.Compile(pat)
		if err != nil {
			return o, nil, fmt.Errorf("domimage: bad credentials filter %q: %w", pat, err)
		}
		filters = append(filters, re)
	}
	return o, filters, nil
}

func (o Options) keyStrategy() css.KeyStrategy {
	if o.StyleCaching == CachingRelaxed {
		return css.RelaxedKeys{}
	}
	return css.StrictKeys{}
}
