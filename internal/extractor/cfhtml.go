package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// header keys of the Windows "HTML Format" clipboard payload
const (
	headerVersion       = "Version"
	headerStartHTML     = "StartHTML"
	headerStartFragment = "StartFragment"
	headerEndFragment   = "EndFragment"
	headerSourceURL     = "SourceURL"
)

var (
	startFragmentMarker = regexp.MustCompile(`(?i)<!--\s*StartFragment\s*-->`)
	endFragmentMarker   = regexp.MustCompile(`(?i)<!--\s*EndFragment\s*-->`)
)

// cfHeader is the key/value preamble before the markup.
type cfHeader struct {
	values map[string]string
	// length is the byte length of the preamble
	length int
}

// parseCFHeader reads "Key:Value" lines at the start of payload. ok is false
// when payload does not open with a Version line.
func parseCFHeader(payload string) (cfHeader, bool) {
	if !strings.HasPrefix(payload, headerVersion+":") {
		return cfHeader{}, false
	}
	h := cfHeader{values: map[string]string{}}
	rest := payload
	for rest != "" && !strings.HasPrefix(strings.TrimLeft(rest, " \t"), "<") {
		line, tail, found := strings.Cut(rest, "\n")
		key, val, isPair := strings.Cut(strings.TrimRight(line, "\r"), ":")
		if !isPair {
			break
		}
		h.values[strings.TrimSpace(key)] = strings.TrimSpace(val)
		h.length += len(line)
		if !found {
			rest = ""
			break
		}
		h.length++
		rest = tail
	}
	return h, true
}

// offset returns a header byte offset when it is a valid index into payload.
func (h cfHeader) offset(key string, payloadLen int) (int, bool) {
	raw, ok := h.values[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > payloadLen {
		return 0, false
	}
	return n, true
}

// stripCFHTML removes the clipboard preamble and returns the markup that
// follows it. When the header carries usable fragment offsets the fragment
// is returned directly and fromOffsets is true.
func stripCFHTML(payload string) (markup string, sourceURL string, fromOffsets bool) {
	h, ok := parseCFHeader(payload)
	if !ok {
		return payload, "", false
	}
	sourceURL = h.values[headerSourceURL]

	start, okStart := h.offset(headerStartFragment, len(payload))
	end, okEnd := h.offset(headerEndFragment, len(payload))
	if okStart && okEnd && start >= h.length && start < end {
		return payload[start:end], sourceURL, true
	}

	if startHTML, ok := h.offset(headerStartHTML, len(payload)); ok && startHTML >= h.length {
		return payload[startHTML:], sourceURL, false
	}
	return payload[h.length:], sourceURL, false
}

// cutFragment returns the markup between the fragment comments. A missing
// end marker runs to the end of the input.
func cutFragment(markup string) (string, bool) {
	startLoc := startFragmentMarker.FindStringIndex(markup)
	if startLoc == nil {
		return markup, false
	}
	rest := markup[startLoc[1]:]
	if endLoc := endFragmentMarker.FindStringIndex(rest); endLoc != nil {
		rest = rest[:endLoc[0]]
	}
	return rest, true
}
