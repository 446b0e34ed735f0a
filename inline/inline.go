/*
Package inline fetches external resources and embeds them as data URLs.

Images, fonts and CSS url() references keep a snapshot tethered to the
network; the inliner converts each of them into self-contained embedded
data. Results are memoized per conversion operation, so a resource
referenced N times is fetched at most once, and concurrent requests for
the same resource share the in-flight fetch.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package inline

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'domimage.inline'
func tracer() tracing.Trace {
	return tracing.Select("domimage.inline")
}

// ResourceError marks a resource reference that could not be embedded.
// With no placeholder configured it fails the whole conversion.
type ResourceError struct {
	URL string // the failing reference
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("inline: cannot embed resource %q: %v", e.URL, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Request describes one resource fetch.
type Request struct {
	URL         string
	Method      string // GET if empty
	Header      http.Header
	Body        string
	Credentials bool // attach credentials to the request
}

// Resource is the outcome of a successful fetch.
type Resource struct {
	Data []byte
	MIME string
}

// Fetcher is the injected transport capability. Sandboxing and CORS
// behavior are environment concerns; keeping them behind this interface
// keeps the pipeline testable without a network.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Resource, error)
}

// HTTPFetcher fetches resources over net/http. Credentials holds the
// headers (Cookie, Authorization, …) attached to credentialed requests.
type HTTPFetcher struct {
	Client      *http.Client
	Credentials http.Header
}

// Fetch is part of interface Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (Resource, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return Resource{}, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if req.Credentials {
		for k, vs := range f.Credentials {
			for _, v := range vs {
				hreq.Header.Add(k, v)
			}
		}
	}
	resp, err := client.Do(hreq)
	if err != nil {
		return Resource{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Resource{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Resource{}, err
	}
	return Resource{Data: data, MIME: mimeType(resp.Header.Get("Content-Type"), req.URL, data)}, nil
}

func mimeType(contentType string, rawurl string, data []byte) string {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	if u, err := url.Parse(rawurl); err == nil {
		if mt := mime.TypeByExtension(path.Ext(u.Path)); mt != "" {
			if base, _, err := mime.ParseMediaType(mt); err == nil {
				return base
			}
		}
	}
	return http.DetectContentType(data)
}

// Options configure an Inliner.
type Options struct {
	CacheBust         bool             // append a cache-defeating query parameter
	Placeholder       string           // data URL substituted on fetch failure
	Proxy             *Proxy           // CORS proxy indirection, nil for direct fetch
	UseCredentials    bool             // global credentialed-fetch flag
	CredentialFilters []*regexp.Regexp // restrict UseCredentials to matching URLs
	Fetcher           Fetcher          // nil means HTTPFetcher
}

// Inliner embeds resources for one conversion operation. The memoization
// cache is exclusively owned by the operation and dies with it.
type Inliner struct {
	opts    Options
	fetcher Fetcher

	mx      sync.Mutex
	cache   map[cacheKey]*cacheEntry
	fetches int
}

type cacheKey struct {
	url         string
	credentials bool
}

type cacheEntry struct {
	done chan struct{} // closed when the fetch finished
	res  Resource
	err  error
}

// New creates an Inliner for one conversion operation.
func New(opts Options) *Inliner {
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}
	return &Inliner{
		opts:    opts,
		fetcher: fetcher,
		cache:   make(map[cacheKey]*cacheEntry),
	}
}

// Fetches reports the number of fetches actually issued, i.e. cache
// misses.
func (ing *Inliner) Fetches() int {
	ing.mx.Lock()
	defer ing.mx.Unlock()
	return ing.fetches
}

// Inline converts a resource reference into a data URL. References that
// already are data URLs pass through untouched. On fetch failure the
// configured placeholder is returned instead; with no placeholder the
// failure surfaces as a *ResourceError.
func (ing *Inliner) Inline(ctx context.Context, rawurl string) (string, error) {
	if IsDataURL(rawurl) {
		return rawurl, nil
	}
	res, err := ing.fetchCached(ctx, rawurl, true)
	if err != nil {
		if ing.opts.Placeholder != "" {
			tracer().Infof("inline: substituting placeholder for %q: %v", rawurl, err)
			return ing.opts.Placeholder, nil
		}
		return "", &ResourceError{URL: rawurl, Err: err}
	}
	return DataURL(res.MIME, res.Data), nil
}

// Fetch retrieves a raw resource through the operation's cache,
// cache-bust and credential policy, for callers needing the bytes rather
// than embedded data (stylesheet sources). Unlike Inline there is no
// placeholder substitution and no proxy indirection; failures surface
// directly.
func (ing *Inliner) Fetch(ctx context.Context, rawurl string) (Resource, error) {
	return ing.fetchCached(ctx, rawurl, false)
}

func (ing *Inliner) fetchCached(ctx context.Context, rawurl string, viaProxy bool) (Resource, error) {
	credentials := ing.credentialsFor(rawurl)
	key := cacheKey{url: normalizeURL(rawurl), credentials: credentials}

	ing.mx.Lock()
	e, ok := ing.cache[key]
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		ing.cache[key] = e
		ing.fetches++
	}
	ing.mx.Unlock()

	if ok {
		select {
		case <-e.done: // share the in-flight result
		case <-ctx.Done():
			return Resource{}, ctx.Err()
		}
	} else {
		e.res, e.err = ing.fetch(ctx, rawurl, credentials, viaProxy)
		close(e.done)
	}
	return e.res, e.err
}

func (ing *Inliner) fetch(ctx context.Context, rawurl string, credentials bool, viaProxy bool) (Resource, error) {
	target := rawurl
	if ing.opts.CacheBust {
		target = bustURL(target)
	}
	req := Request{URL: target, Credentials: credentials}
	if viaProxy && ing.opts.Proxy != nil {
		req = ing.opts.Proxy.Rewrite(target, req)
	}
	return ing.fetcher.Fetch(ctx, req)
}

// credentialsFor decides the credential mode for one resource: with
// filters configured the global flag applies to matching URLs only,
// otherwise the global flag decides.
func (ing *Inliner) credentialsFor(rawurl string) bool {
	if !ing.opts.UseCredentials {
		return false
	}
	if len(ing.opts.CredentialFilters) == 0 {
		return true
	}
	for _, f := range ing.opts.CredentialFilters {
		if f.MatchString(rawurl) {
			return true
		}
	}
	return false
}

func normalizeURL(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return rawurl
	}
	u.Fragment = ""
	return u.String()
}

func bustURL(rawurl string) string {
	sep := "?"
	if strings.Contains(rawurl, "?") {
		sep = "&"
	}
	return rawurl + sep + "t=" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

// --- CSS url() references ---------------------------------------------

var cssURLPattern = regexp.MustCompile(`url\(\s*(['"]?)([^'")]+?)(['"]?)\s*\)`)

// InlineAll replaces every url() reference in a CSS text with embedded
// data. Failure of any single reference fails the call (subject to the
// placeholder policy applied per reference).
func (ing *Inliner) InlineAll(ctx context.Context, csstext string) (string, error) {
	var firstErr error
	out := cssURLPattern.ReplaceAllStringFunc(csstext, func(tok string) string {
		if firstErr != nil {
			return tok
		}
		m := cssURLPattern.FindStringSubmatch(tok)
		ref := m[2]
		if IsDataURL(ref) {
			return tok
		}
		data, err := ing.Inline(ctx, ref)
		if err != nil {
			firstErr = err
			return tok
		}
		return `url("` + data + `")`
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
