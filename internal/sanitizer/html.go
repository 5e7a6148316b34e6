/*
Responsibilities
- Enforce the tag and attribute allow-list
- Drop script-capable URLs
- Keep the text of removed elements when asked

This is the only security boundary of a conversion.
*/
package sanitizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"golang.org/x/net/html"
)

type HTMLSanitizer struct {
	metadataSink metadata.MetadataSink
}

func NewHTMLSanitizer(metadataSink metadata.MetadataSink) HTMLSanitizer {
	return HTMLSanitizer{
		metadataSink: metadataSink,
	}
}

func (h *HTMLSanitizer) Sanitize(input string, param SanitizeParam) (string, failure.ClassifiedError) {
	output, err := sanitize(input, param)
	if err != nil {
		var sanitizationError *SanitizationError
		errors.As(err, &sanitizationError)
		h.metadataSink.RecordError(
			time.Now(),
			"sanitizer",
			"HTMLSanitizer.Sanitize",
			mapSanitizationErrorToMetadataCause(*sanitizationError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrMessage, sanitizationError.Message),
			},
		)
		return "", sanitizationError
	}
	return output, nil
}

func sanitize(input string, param SanitizeParam) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SanitizationError{
				Message:   fmt.Sprintf("%v", r),
				Retryable: false,
				Cause:     ErrCauseSanitizerPanic,
			}
		}
	}()

	if !param.KeepContent {
		input, err = dropDisallowed(input, param.AllowedTags)
		if err != nil {
			return "", err
		}
	}
	return buildPolicy(param).Sanitize(input), nil
}

// buildPolicy turns param into a bluemonday policy. URLs must parse and be
// relative or http, https, mailto; images may also use data URIs.
func buildPolicy(param SanitizeParam) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(param.AllowedTags...)
	if attrs := allowed(param.AllowedAttrs, param.ForbiddenAttrs); len(attrs) > 0 {
		p.AllowAttrs(attrs...).Globally()
	}
	if attrs := allowed(param.ImageAttrs, param.ForbiddenAttrs); len(attrs) > 0 {
		p.AllowAttrs(attrs...).OnElements("img", "source")
		p.AllowDataURIImages()
	}
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AddSpaceWhenStrippingTag(false)
	return p
}

// dropDisallowed removes elements outside tags together with their content.
func dropDisallowed(input string, tags []string) (string, error) {
	body, err := domutil.ParseBody(strings.NewReader(input), html.Parse)
	if err != nil || body == nil {
		return "", &SanitizationError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCauseUnparseable,
		}
	}
	allowedTags := map[string]bool{}
	for _, t := range tags {
		allowedTags[strings.ToLower(t)] = true
	}
	for _, el := range domutil.Elements(body) {
		if el.Parent != nil && !allowedTags[el.Data] {
			domutil.Remove(el)
		}
	}
	return domutil.InnerHTML(body), nil
}
