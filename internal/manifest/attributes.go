// Package manifest turns HLS (M3U8) and DASH (MPD) manifest documents
// into normalized media.Format lists. Parsers are pure functions over
// one in-memory document: they perform no network I/O, tolerate
// malformed individual entries, and only fail whole when the document
// itself is not a manifest.
package manifest

import (
	"regexp"
	"strings"
)

// attrPairPattern matches one KEY=VALUE pair of an M3U8 attribute
// list. Values are either quoted (and may then contain commas) or run
// until the next comma. Pairs that do not match (missing '=', trailing
// garbage) are simply not captured, so a single bad pair never aborts
// the rest of the line.
var attrPairPattern = regexp.MustCompile(`([A-Z0-9-]+)=("[^"]*"|[^",]*)(?:,|$)`)

// ParseAttributes parses the attribute list of an M3U8 tag line such
// as #EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=720x404 into a
// key/value map. Unknown keys are preserved as-is; no filtering
// happens at this layer.
func ParseAttributes(line string) map[string]string {
	if i := strings.IndexByte(line, ':'); i >= 0 && strings.HasPrefix(line, "#EXT") {
		line = line[i+1:]
	}
	attrs := make(map[string]string)
	for _, m := range attrPairPattern.FindAllStringSubmatch(line, -1) {
		key, val := m[1], m[2]
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) && len(val) >= 2 {
			val = val[1 : len(val)-1]
		}
		attrs[key] = val
	}
	return attrs
}
