package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudmelt/webstack/internal/o11y"
)

// NewCmdStatus creates the status command.
func NewCmdStatus(out io.Writer, opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "report the live health of an applied stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := o11y.Tracer().Start(cmd.Context(), "status",
				trace.WithAttributes(attribute.String(o11y.AttrVerb, "status")))
			defer span.End()

			p, err := opts.provisioner(ctx)
			if err != nil {
				return err
			}
			status, err := p.Status(ctx)
			if err != nil {
				return err
			}

			if !status.Applied {
				fmt.Fprintln(out, "Stack has not been applied.")
				return nil
			}

			fmt.Fprintf(out, "Resources:    %d\n", len(status.Resources))
			for _, r := range status.Resources {
				fmt.Fprintf(out, "  %-20s %s\n", r.Kind, r.ID)
			}
			fmt.Fprintf(out, "Instance:     %s\n", status.InstanceState)
			if status.PublicIP != "" {
				fmt.Fprintf(out, "Public IP:    %s\n", status.PublicIP)
			}
			if status.URL != "" {
				fmt.Fprintf(out, "Web service:  %s (HTTP %d)\n", status.URL, status.HTTPStatus)
			}
			fmt.Fprintf(out, "SSH:          %s\n", yesNo(status.SSHReachable))
			fmt.Fprintf(out, "Docker:       %s\n", yesNo(status.DockerActive))

			if !status.Healthy() {
				return fmt.Errorf("stack is not healthy, run 'webstack converge' to repair the container or 'webstack apply' to rebuild")
			}
			fmt.Fprintln(out, "Stack is healthy.")
			return nil
		},
	}
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
