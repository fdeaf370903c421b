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

// NewCmdPlan creates the plan command.
func NewCmdPlan(out io.Writer, opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "show what apply would do, without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := o11y.Tracer().Start(cmd.Context(), "plan",
				trace.WithAttributes(attribute.String(o11y.AttrVerb, "plan")))
			defer span.End()

			p, err := opts.provisioner(ctx)
			if err != nil {
				return err
			}
			ops, err := p.Plan(ctx)
			if err != nil {
				return err
			}

			if len(ops) == 0 {
				fmt.Fprintln(out, "Nothing to do, the stack is up to date.")
				return nil
			}
			for _, op := range ops {
				marker := "+"
				if op.Action == ec2.ActionReplace {
					marker = "~"
				}
				fmt.Fprintf(out, "  %s %-20s %s\n", marker, op.Kind, op.Reason)
			}
			fmt.Fprintf(out, "\nPlan: %d operation(s). Run 'webstack apply' to execute.\n", len(ops))
			return nil
		},
	}
}
