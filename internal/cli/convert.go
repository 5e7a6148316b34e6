package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rohmanhakim/clipmd/internal/assets"
	"github.com/rohmanhakim/clipmd/internal/build"
	"github.com/rohmanhakim/clipmd/internal/config"
	"github.com/rohmanhakim/clipmd/internal/extractor"
	"github.com/rohmanhakim/clipmd/internal/fetcher"
	"github.com/rohmanhakim/clipmd/internal/mdconvert"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/normalize"
	"github.com/rohmanhakim/clipmd/internal/pass"
	"github.com/rohmanhakim/clipmd/internal/pipeline"
	"github.com/rohmanhakim/clipmd/internal/sanitizer"
	"github.com/rohmanhakim/clipmd/internal/storage"
	"github.com/rohmanhakim/clipmd/pkg/hashutil"
	"github.com/rohmanhakim/clipmd/pkg/limiter"
	"github.com/rohmanhakim/clipmd/pkg/retry"
	"github.com/rohmanhakim/clipmd/pkg/timeutil"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

// boltFileName is the database file inside the resource dir.
const boltFileName = "resources.db"

var (
	outputPath  string
	previewPath string
	sourceURL   string
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert clipboard HTML to Markdown",
	Long: `Convert reads clipboard HTML from file, or from stdin when no file is
given, and writes Markdown to stdout or --output.

Windows CF_HTML clipboard payloads are accepted as-is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening input: %w", err)
			}
			defer f.Close()
			in = f
		}

		out := cmd.OutOrStdout()
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("error creating output: %w", err)
			}
			defer f.Close()
			out = f
		}

		return runConvert(cmd.Context(), cfg, convertRequest{
			in:          in,
			out:         out,
			logOut:      cmd.ErrOrStderr(),
			sourceURL:   sourceURL,
			previewPath: previewPath,
		})
	},
}

func init() {
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write markdown to this file instead of stdout")
	convertCmd.Flags().StringVar(&previewPath, "preview", "", "also write an HTML preview of the markdown to this file")
	convertCmd.Flags().StringVar(&sourceURL, "source-url", "", "page the HTML was copied from; resolves relative links")
}

type convertRequest struct {
	in          io.Reader
	out         io.Writer
	logOut      io.Writer
	sourceURL   string
	previewPath string
}

// runConvert drives extraction, the normalization pipeline, rendering and
// markdown post-processing for one payload.
func runConvert(ctx context.Context, cfg config.Config, req convertRequest) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sink := metadata.NewRecorder(newLogger(cfg, req.logOut))
	startTime := time.Now()

	payload, err := io.ReadAll(req.in)
	if err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	clipExtractor := extractor.NewClipboardExtractor(sink)
	fragment, extractErr := clipExtractor.Extract(payload, extractor.NewExtractParam(cfg.IsolateMain(), cfg.ContentSelectors()))
	if extractErr != nil {
		return extractErr
	}

	source := req.sourceURL
	if source == "" {
		source = fragment.SourceURL
	}

	var converter assets.Converter
	if cfg.IncludeImages() && cfg.ConvertImagesToResources() {
		store, closeStore, err := openStore(sink, cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		converter = newResourceConverter(sink, cfg, store)
	}

	htmlSanitizer := sanitizer.NewHTMLSanitizer(sink)
	p, pipelineErr := pipeline.NewPipeline(sink, html.Parse, &htmlSanitizer, converter, newAssetsParam(cfg))
	if pipelineErr != nil {
		return pipelineErr
	}

	result, processErr := p.ProcessHTML(ctx, fragment.HTML, cfg.PasteOptions(), pass.Context{IsGoogleDocs: fragment.IsGoogleDocs})
	if processErr != nil {
		return processErr
	}

	rule := mdconvert.NewRule(sink)
	conversion, convErr := rule.Convert(ctx, result, mdconvert.NewConvertParam(source))
	if convErr != nil {
		return convErr
	}

	constraint := normalize.NewMarkdownConstraint(sink)
	doc, normErr := constraint.Normalize(
		conversion.GetMarkdownContent(),
		conversion.ResourceRefs(),
		normalize.NewNormalizeParam(
			cfg.ForceTightLists(),
			cfg.Frontmatter(),
			source,
			startTime,
			build.FullVersion(),
			hashutil.HashAlgoBLAKE3,
		),
	)
	if normErr != nil {
		return normErr
	}

	if _, err := req.out.Write(doc.Bytes()); err != nil {
		return fmt.Errorf("error writing markdown: %w", err)
	}

	if req.previewPath != "" {
		page := renderPreview(doc.Content(), previewTitle(doc), newResourceLinker(cfg))
		if err := os.WriteFile(req.previewPath, page, 0o644); err != nil {
			return fmt.Errorf("error writing preview: %w", err)
		}
	}
	return nil
}

// openStore opens the configured resource store and returns its closer.
func openStore(sink metadata.MetadataSink, cfg config.Config) (storage.ResourceStore, func(), error) {
	switch cfg.StoreBackend() {
	case config.StoreBolt:
		if err := os.MkdirAll(cfg.ResourceDir(), 0o755); err != nil {
			return nil, nil, fmt.Errorf("error creating resource dir: %w", err)
		}
		store, err := storage.OpenBoltStore(sink, filepath.Join(cfg.ResourceDir(), boltFileName))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		store := storage.NewFileStore(sink, cfg.ResourceDir())
		return &store, func() {}, nil
	}
}

func newResourceConverter(sink metadata.MetadataSink, cfg config.Config, store storage.ResourceStore) assets.Converter {
	backoff := timeutil.NewBackoffParam(cfg.BackoffInitialDuration(), cfg.BackoffMultiplier(), cfg.BackoffMaxDuration())
	hostLimiter := limiter.NewHostLimiter(cfg.HostDelay(), cfg.Jitter(), cfg.RandomSeed(), backoff)
	imageFetcher := fetcher.NewImageFetcher(sink, &http.Client{}, hostLimiter)
	converter := assets.NewResourceConverter(sink, &imageFetcher, store)
	return &converter
}

func newAssetsParam(cfg config.Config) assets.ConvertParam {
	backoff := timeutil.NewBackoffParam(cfg.BackoffInitialDuration(), cfg.BackoffMultiplier(), cfg.BackoffMaxDuration())
	return assets.NewConvertParam(
		cfg.MaxImageBytes(),
		cfg.UserAgent(),
		cfg.FetchTimeout(),
		retry.NewRetryParam(cfg.Jitter(), cfg.RandomSeed(), cfg.MaxAttempt(), backoff),
	)
}

func previewTitle(doc normalize.NormalizedMarkdownDoc) string {
	if fm := doc.Frontmatter(); fm != nil && fm.Title() != "" {
		return fm.Title()
	}
	return "clipmd preview"
}
