package assets

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/rohmanhakim/clipmd/pkg/failure"
)

// dataURIFilename is the stem given to embedded images, which carry no name.
const dataURIFilename = "pasted-image"

// EstimateBase64Size returns the decoded length of a base64 payload without
// decoding it: len*3/4 minus padding.
func EstimateBase64Size(payload string) int64 {
	n := int64(len(payload))
	if n == 0 {
		return 0
	}
	padding := int64(0)
	if strings.HasSuffix(payload, "==") {
		padding = 2
	} else if strings.HasSuffix(payload, "=") {
		padding = 1
	}
	return n*3/4 - padding
}

// decodeDataURI parses data:[<mediatype>][;base64],<data>. The size limit is
// checked against the estimate before any decode buffer is allocated.
func decodeDataURI(raw string, maxBytes int64) (ParsedImageData, failure.ClassifiedError) {
	trimmed := strings.TrimSpace(raw)
	header, payload, found := strings.Cut(trimmed[len("data:"):], ",")
	if !found {
		return ParsedImageData{}, &AssetsError{
			Message:   "data uri has no payload separator",
			Retryable: false,
			Cause:     ErrCauseMalformedDataURI,
		}
	}

	isBase64 := false
	mediaType := header
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		isBase64 = true
		mediaType = header[:len(header)-len(";base64")]
	}
	mimeType := "text/plain"
	if strings.TrimSpace(mediaType) != "" {
		mt, _, err := mime.ParseMediaType(mediaType)
		if err != nil {
			return ParsedImageData{}, &AssetsError{
				Message:   fmt.Sprintf("bad media type %q: %v", mediaType, err),
				Retryable: false,
				Cause:     ErrCauseMalformedDataURI,
			}
		}
		mimeType = strings.ToLower(mt)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return ParsedImageData{}, &AssetsError{
			Message:   fmt.Sprintf("data uri media type %s is not an image", mimeType),
			Retryable: false,
			Cause:     ErrCauseUnsupportedMediaType,
		}
	}

	var data []byte
	if isBase64 {
		payload = stripWhitespace(payload)
		if size := EstimateBase64Size(payload); maxBytes > 0 && size > maxBytes {
			return ParsedImageData{}, &AssetsError{
				Message:   fmt.Sprintf("estimated %d bytes exceeds limit %d", size, maxBytes),
				Retryable: false,
				Cause:     ErrCauseOversize,
			}
		}
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some producers drop the padding
			decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return ParsedImageData{}, &AssetsError{
				Message:   fmt.Sprintf("invalid base64: %v", err),
				Retryable: false,
				Cause:     ErrCauseMalformedDataURI,
			}
		}
		data = decoded
	} else {
		if maxBytes > 0 && int64(len(payload)) > maxBytes*3 {
			return ParsedImageData{}, &AssetsError{
				Message:   fmt.Sprintf("payload of %d bytes exceeds limit %d", len(payload), maxBytes),
				Retryable: false,
				Cause:     ErrCauseOversize,
			}
		}
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return ParsedImageData{}, &AssetsError{
				Message:   fmt.Sprintf("invalid percent encoding: %v", err),
				Retryable: false,
				Cause:     ErrCauseMalformedDataURI,
			}
		}
		data = []byte(unescaped)
	}

	if len(data) == 0 {
		return ParsedImageData{}, &AssetsError{
			Message:   "data uri is empty",
			Retryable: false,
			Cause:     ErrCauseMalformedDataURI,
		}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return ParsedImageData{}, &AssetsError{
			Message:   fmt.Sprintf("decoded %d bytes exceeds limit %d", len(data), maxBytes),
			Retryable: false,
			Cause:     ErrCauseOversize,
		}
	}

	return ParsedImageData{
		Data:     data,
		MimeType: mimeType,
		Filename: dataURIFilename,
		Size:     len(data),
	}, nil
}

func stripWhitespace(s string) string {
	if !strings.ContainsAny(s, " \t\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
