package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudmelt/webstack/internal/o11y"
)

// NewCmdApply creates the apply command.
func NewCmdApply(out io.Writer, opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "create or update the stack to match its declaration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := o11y.Tracer().Start(cmd.Context(), "apply",
				trace.WithAttributes(attribute.String(o11y.AttrVerb, "apply")))
			defer span.End()

			p, err := opts.provisioner(ctx)
			if err != nil {
				return err
			}

			result, err := p.Apply(ctx)
			if err != nil {
				return err
			}

			if len(result.Created) == 0 {
				fmt.Fprintln(out, "Nothing to do, the stack is up to date.")
			} else {
				fmt.Fprintf(out, "Created %d resource(s):\n", len(result.Created))
				for _, kind := range result.Created {
					fmt.Fprintf(out, "  + %s\n", kind)
				}
			}
			fmt.Fprintf(out, "Instance IP: %s\n", result.PublicIP)
			fmt.Fprintf(out, "Web service: %s\n", result.URL)
			return nil
		},
	}
}
