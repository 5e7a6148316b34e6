package pass

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

const tracerName = "github.com/rohmanhakim/clipmd/internal/pass"

// Runner executes an ordered pass list against one DOM root.
// A failing pass never aborts the batch; passes are not transactional.
type Runner struct {
	metadataSink metadata.MetadataSink
	tracer       trace.Tracer
}

func NewRunner(metadataSink metadata.MetadataSink) Runner {
	return Runner{
		metadataSink: metadataSink,
		tracer:       otel.Tracer(tracerName),
	}
}

// Run executes passes in slice order. Skipped passes produce nothing;
// failed passes produce one "<name>: <message>" warning each.
func (r Runner) Run(
	ctx context.Context,
	passes []ProcessingPass,
	root *html.Node,
	opts Options,
	pctx Context,
) RunResult {
	var result RunResult
	for _, p := range passes {
		if !p.Applies(opts, pctx) {
			continue
		}

		_, span := r.tracer.Start(ctx, "pass."+p.Name, trace.WithAttributes(
			attribute.String("pass.phase", p.Phase.String()),
			attribute.Int("pass.priority", p.Priority),
		))
		err := execute(p, root, opts, pctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Message)

			warning := err.Error()
			result.Warnings = append(result.Warnings, warning)
			r.metadataSink.RecordPassWarning(p.Name, p.Phase.String(), err.Message)
			r.metadataSink.RecordError(
				time.Now(),
				"pass",
				"Runner.Run",
				mapPassErrorToMetadataCause(err),
				warning,
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrPass, p.Name),
					metadata.NewAttr(metadata.AttrPhase, p.Phase.String()),
				},
			)
		}
		span.End()
	}
	return result
}

// execute isolates one pass, converting returned errors and panics into a PassError.
func execute(p ProcessingPass, root *html.Node, opts Options, pctx Context) (passErr *PassError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			passErr = &PassError{
				PassName: p.Name,
				Message:  panicMessage(recovered),
				Panicked: true,
			}
		}
	}()

	if err := p.Execute(root, opts, pctx); err != nil {
		return &PassError{
			PassName: p.Name,
			Message:  err.Error(),
		}
	}
	return nil
}

func panicMessage(recovered any) string {
	var err error
	switch v := recovered.(type) {
	case error:
		err = v
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
	var passErr *PassError
	if errors.As(err, &passErr) {
		return passErr.Message
	}
	return err.Error()
}
