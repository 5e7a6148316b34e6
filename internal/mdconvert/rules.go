package mdconvert

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/clipmd/internal/cleanup"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/pipeline"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Conversion Rules
- Headings are ATX, bullets use "-", code blocks are fenced with ```
- The language-X class on <code> becomes the fence info string
- Tables convert to GFM, <del>/<s> to ~~strike~~
- Images with width or height stay raw <img> HTML so the size survives
- <u>/<ins> inside links render their children only
- NBSP sentinels are restored to &nbsp; after rendering

A converter is built per call; nothing is shared between conversions.
*/

// ConvertRule turns a pipeline result into Markdown.
type ConvertRule interface {
	Convert(ctx context.Context, doc pipeline.Result, param ConvertParam) (ConversionResult, failure.ClassifiedError)
}

var _ ConvertRule = (*ClipboardConversionRule)(nil)

type ClipboardConversionRule struct {
	metadataSink metadata.MetadataSink
}

func NewRule(metadataSink metadata.MetadataSink) *ClipboardConversionRule {
	return &ClipboardConversionRule{
		metadataSink: metadataSink,
	}
}

// sizedImageAttrs is the attribute order of a raw <img> in the output.
var sizedImageAttrs = []string{"src", "alt", "title", "width", "height"}

func (r *ClipboardConversionRule) Convert(
	ctx context.Context,
	doc pipeline.Result,
	param ConvertParam,
) (ConversionResult, failure.ClassifiedError) {
	result, err := convert(ctx, doc, param)
	if err != nil {
		var conversionError *ConversionError
		errors.As(err, &conversionError)

		r.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"ClipboardConversionRule.Convert",
			mapConversionErrorToMetadataCause(conversionError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, param.Domain()),
			},
		)
		return ConversionResult{}, conversionError
	}
	return result, nil
}

// newConverter builds a fresh converter with the plugin set and the
// renderer overrides.
func newConverter() *converter.Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithCodeBlockFence("```"),
				commonmark.WithBulletListMarker("-"),
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				commonmark.WithListEndComment(false),
			),
			table.NewTablePlugin(),
			strikethrough.NewStrikethroughPlugin(),
		),
	)

	conv.Register.RendererFor("img", converter.TagTypeInline, renderSizedImage, converter.PriorityEarly)
	conv.Register.RendererFor("u", converter.TagTypeInline, renderUnderlineInLink, converter.PriorityEarly)
	conv.Register.RendererFor("ins", converter.TagTypeInline, renderUnderlineInLink, converter.PriorityEarly)
	return conv
}

func convert(ctx context.Context, doc pipeline.Result, param ConvertParam) (ConversionResult, *ConversionError) {
	root := doc.Body
	if root == nil {
		if doc.SanitizedHTML == "" && !doc.Degraded {
			return ConversionResult{}, &ConversionError{
				Message:   "result has neither a body nor sanitized html",
				Retryable: false,
				Cause:     ErrCauseNothingToConvert,
			}
		}
		parsed, err := domutil.ParseBody(strings.NewReader(doc.SanitizedHTML), html.Parse)
		if err != nil || parsed == nil {
			return ConversionResult{}, &ConversionError{
				Message:   "cannot parse sanitized html",
				Retryable: false,
				Cause:     ErrCauseConversionFailure,
			}
		}
		root = parsed
	}

	opts := []converter.ConvertOptionFunc{converter.WithContext(ctx)}
	if param.Domain() != "" {
		opts = append(opts, converter.WithDomain(param.Domain()))
	}

	markdown, err := newConverter().ConvertNode(root, opts...)
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}
	markdown = []byte(cleanup.RestoreNBSP(string(markdown)))

	return NewConversionResult(markdown, extractLinkRefs(root)), nil
}

// renderSizedImage keeps images with explicit dimensions as raw HTML,
// since Markdown image syntax cannot carry a size.
func renderSizedImage(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	_, hasWidth := domutil.GetAttr(n, "width")
	_, hasHeight := domutil.GetAttr(n, "height")
	if !hasWidth && !hasHeight {
		return converter.RenderTryNext
	}
	if strings.TrimSpace(domutil.AttrOr(n, "src", "")) == "" {
		return converter.RenderTryNext
	}

	img := domutil.NewElement("img")
	for _, key := range sizedImageAttrs {
		if val, ok := domutil.GetAttr(n, key); ok {
			if key == "src" {
				val = ctx.AssembleAbsoluteURL(ctx, "img", val)
			}
			img.Attr = append(img.Attr, html.Attribute{Key: key, Val: val})
		}
	}
	return base.RenderAsHTML(ctx, w, img)
}

func renderUnderlineInLink(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	if !domutil.IsInside(n, "a") {
		return converter.RenderTryNext
	}
	ctx.RenderChildNodes(ctx, w, n)
	return converter.RenderSuccess
}

// extractLinkRefs lists links and images of the converted tree in
// document order.
func extractLinkRefs(root *html.Node) []LinkRef {
	var linkRefs []LinkRef

	doc := goquery.NewDocumentFromNode(root)
	doc.Find("a[href], img[src]").Each(func(i int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "a":
			href, _ := s.Attr("href")
			linkRefs = append(linkRefs, toLinkRef("a", href))
		case "img":
			src, _ := s.Attr("src")
			linkRefs = append(linkRefs, toLinkRef("img", src))
		}
	})

	return linkRefs
}

func toLinkRef(tagName, raw string) LinkRef {
	var kind LinkKind
	switch tagName {
	case "img":
		kind = KindImage
		if urlutil.IsResourceRef(raw) {
			kind = KindResource
		}
	default:
		kind = KindNavigation
		if strings.HasPrefix(raw, "#") {
			kind = KindAnchor
		}
	}
	return NewLinkRef(raw, kind)
}
