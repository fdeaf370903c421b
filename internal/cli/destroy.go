package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudmelt/webstack/internal/o11y"
)

// NewCmdDestroy creates the destroy command.
func NewCmdDestroy(out io.Writer, opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "tear down every resource the stack created",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := o11y.Tracer().Start(cmd.Context(), "destroy",
				trace.WithAttributes(attribute.String(o11y.AttrVerb, "destroy")))
			defer span.End()

			p, err := opts.provisioner(ctx)
			if err != nil {
				return err
			}
			if err := p.Destroy(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Stack destroyed.")
			return nil
		},
	}
}
