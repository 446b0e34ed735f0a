package inline

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"net/http"
	"strings"
)

// Token is the substitution marker inside proxy URL and body templates.
// Every occurrence is replaced with the literal resource URL.
const Token = "#{cors}"

// Proxy describes a CORS-proxy indirection for resource fetches. URL and
// Body are templates carrying the Token marker.
type Proxy struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// Rewrite routes a resource request through the proxy, substituting the
// resource URL into the configured templates.
func (p *Proxy) Rewrite(resourceURL string, req Request) Request {
	req.URL = strings.ReplaceAll(p.URL, Token, resourceURL)
	if p.Method != "" {
		req.Method = p.Method
	}
	if p.Body != "" {
		req.Body = strings.ReplaceAll(p.Body, Token, resourceURL)
	}
	if len(p.Headers) > 0 {
		if req.Header == nil {
			req.Header = make(http.Header)
		}
		for k, v := range p.Headers {
			req.Header.Set(k, v)
		}
	}
	return req
}
