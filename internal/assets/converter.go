package assets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/fetcher"
	"github.com/rohmanhakim/clipmd/internal/images"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/storage"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Find images whose src can be persisted locally
- Decode embedded data URIs, download remote images
- Hand the bytes to the resource store
- Rewrite src to the returned resource reference

Conversion Policies
- Images are processed one at a time, in document order
- A failed image keeps its src and never stops the batch
- Oversize payloads are rejected before they are fully buffered
- Converted images are marked for the link unwrap pass
*/
type Converter interface {
	Convert(ctx context.Context, root *html.Node, param ConvertParam) ResourceConversionMeta
}

var _ Converter = (*ResourceConverter)(nil)

type ResourceConverter struct {
	metadataSink metadata.MetadataSink
	fetcher      fetcher.Fetcher
	store        storage.ResourceStore
}

// NewResourceConverter wires a converter. A nil store makes Convert a no-op;
// a nil fetcher leaves remote images untouched.
func NewResourceConverter(
	metadataSink metadata.MetadataSink,
	imageFetcher fetcher.Fetcher,
	store storage.ResourceStore,
) ResourceConverter {
	return ResourceConverter{
		metadataSink: metadataSink,
		fetcher:      imageFetcher,
		store:        store,
	}
}

// Available reports whether a store is configured.
func (r *ResourceConverter) Available() bool {
	return r.store != nil
}

func (r *ResourceConverter) Convert(ctx context.Context, root *html.Node, param ConvertParam) ResourceConversionMeta {
	meta := ResourceConversionMeta{}
	if !r.Available() {
		return meta
	}

	for _, img := range domutil.Elements(root, "img") {
		src := strings.TrimSpace(domutil.AttrOr(img, "src", ""))
		if !r.isEligible(src) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		meta.Attempted++

		id, filename, err := r.convertOne(ctx, src, param)
		if err != nil {
			meta.Failed++
			r.recordConvertError(src, err)
			continue
		}

		domutil.SetAttr(img, "src", urlutil.ResourceRef(id))
		domutil.SetAttr(img, images.ConvertedAttr, "1")
		if filename != "" {
			domutil.SetAttr(img, images.FilenameAttr, filename)
		}
		meta.ResourcesCreated++
		meta.ResourceIDs = append(meta.ResourceIDs, id)
	}
	return meta
}

func (r *ResourceConverter) isEligible(src string) bool {
	if src == "" || urlutil.IsResourceRef(src) {
		return false
	}
	if urlutil.IsDataURI(src) {
		return true
	}
	return r.fetcher != nil && urlutil.IsHTTPURL(src)
}

// convertOne returns the resource id and, for remote images, the original
// filename.
func (r *ResourceConverter) convertOne(ctx context.Context, src string, param ConvertParam) (string, string, failure.ClassifiedError) {
	parsed, err := r.load(ctx, src, param)
	if err != nil {
		return "", "", err
	}

	storeName := parsed.Filename
	if !strings.Contains(storeName, ".") {
		storeName += storage.ExtensionFor(parsed.MimeType, "")
	}
	id, saveErr := r.store.Save(ctx, parsed.Data, parsed.MimeType, storeName)
	if saveErr != nil {
		return "", "", &AssetsError{
			Message:   saveErr.Error(),
			Retryable: false,
			Cause:     ErrCausePersistFailure,
		}
	}

	var original string
	if !urlutil.IsDataURI(src) {
		original = parsed.Filename
	}
	return id, original, nil
}

func (r *ResourceConverter) load(ctx context.Context, src string, param ConvertParam) (ParsedImageData, failure.ClassifiedError) {
	if urlutil.IsDataURI(src) {
		return decodeDataURI(src, param.maxBytes)
	}

	u, err := url.Parse(src)
	if err != nil {
		return ParsedImageData{}, &AssetsError{
			Message:   fmt.Sprintf("unparseable image url: %v", err),
			Retryable: false,
			Cause:     ErrCauseImageDownloadFailure,
		}
	}
	fetchParam := fetcher.NewFetchParam(*u, param.userAgent, param.maxBytes, param.timeout)
	result, fetchErr := r.fetcher.Fetch(ctx, fetchParam, param.retryParam)
	if fetchErr != nil {
		cause := ErrCauseImageDownloadFailure
		var fe *fetcher.FetchError
		if errors.As(fetchErr, &fe) && fe.Cause == fetcher.ErrCauseTooLarge {
			cause = ErrCauseOversize
		}
		return ParsedImageData{}, &AssetsError{
			Message:   fetchErr.Error(),
			Retryable: false,
			Cause:     cause,
		}
	}

	return ParsedImageData{
		Data:     result.Body(),
		MimeType: result.ContentType(),
		Filename: urlutil.FilenameFromURL(src),
		Size:     len(result.Body()),
	}, nil
}

func (r *ResourceConverter) recordConvertError(src string, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var assetsErr *AssetsError
	if errors.As(err, &assetsErr) {
		cause = mapAssetsErrorToMetadataCause(assetsErr)
	}
	r.metadataSink.RecordError(
		time.Now(),
		"assets",
		"ResourceConverter.Convert",
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, truncateSource(src)),
			metadata.NewAttr(metadata.AttrMessage, assetsMessage(err)),
		},
	)
}

// data URIs can be megabytes long; only the head is worth logging
func truncateSource(src string) string {
	const maxLogged = 96
	if len(src) <= maxLogged {
		return src
	}
	return src[:maxLogged] + "..."
}

func assetsMessage(err failure.ClassifiedError) string {
	var assetsErr *AssetsError
	if errors.As(err, &assetsErr) {
		return assetsErr.Message
	}
	return err.Error()
}
