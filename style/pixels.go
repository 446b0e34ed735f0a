package style

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"strconv"
	"strings"
)

// Pixels interprets a property value as an absolute CSS length and
// returns its pixel count. Keyword values ("auto", "inherit", …),
// relative units and percentages cannot be resolved without a layout
// pass; for those ok is false.
func (p Property) Pixels() (float64, bool) {
	v := strings.TrimSpace(string(p))
	if v == "" || v == "auto" || v == "inherit" || v == "initial" || v == "none" {
		return 0, false
	}
	unit := 1.0
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "pt"):
		v, unit = strings.TrimSuffix(v, "pt"), 96.0/72.0
	case strings.HasSuffix(v, "in"):
		v, unit = strings.TrimSuffix(v, "in"), 96.0
	case strings.HasSuffix(v, "mm"):
		v, unit = strings.TrimSuffix(v, "mm"), 96.0/25.4
	case strings.HasSuffix(v, "cm"):
		v, unit = strings.TrimSuffix(v, "cm"), 96.0/2.54
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return n * unit, true
}
