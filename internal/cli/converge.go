package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudmelt/webstack/internal/ec2"
	"github.com/cloudmelt/webstack/internal/o11y"
)

// NewCmdConverge creates the converge command.
func NewCmdConverge(out io.Writer, opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "converge",
		Short: "repair the web container on a running instance",
		Long: `Converge repairs drift at the container level without touching cloud
resources: a stopped container is started, a container running the wrong
image is recreated, and a missing container is created from the declared
image. The instance must be running; use apply to rebuild anything below
the container.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := o11y.Tracer().Start(cmd.Context(), "converge",
				trace.WithAttributes(attribute.String(o11y.AttrVerb, "converge")))
			defer span.End()

			p, err := opts.provisioner(ctx)
			if err != nil {
				return err
			}
			action, err := p.Converge(ctx)
			if err != nil {
				return err
			}

			switch action {
			case ec2.ConvergeNone:
				fmt.Fprintln(out, "Web container is already converged.")
			default:
				fmt.Fprintf(out, "Web container %s.\n", action)
			}
			return nil
		},
	}
}
