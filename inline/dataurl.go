package inline

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// DataURL encodes binary content as a self-contained data URL.
func DataURL(mimetype string, data []byte) string {
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}
	return "data:" + mimetype + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL checks wether a reference already carries embedded data.
func IsDataURL(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// ParseDataURL decodes a data URL into its media type and payload.
// Both base64 and percent-encoded payloads are understood.
func ParseDataURL(dataurl string) (mimetype string, data []byte, err error) {
	if !IsDataURL(dataurl) {
		return "", nil, fmt.Errorf("inline: not a data URL")
	}
	rest := dataurl[len("data:"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("inline: malformed data URL, missing payload")
	}
	meta, payload := rest[:comma], rest[comma+1:]
	isBase64 := false
	for i, param := range strings.Split(meta, ";") {
		if i == 0 {
			mimetype = param
			continue
		}
		if param == "base64" {
			isBase64 = true
		}
	}
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return "", nil, fmt.Errorf("inline: malformed data URL payload: %w", err)
	}
	return mimetype, data, nil
}
