package ec2

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudmelt/webstack/internal/o11y"
	"github.com/cloudmelt/webstack/internal/state"
)

var ErrUnknownKind = fmt.Errorf("state file records a resource kind this version does not know")

// Destroy tears down every resource the state file records, newest first, and
// removes the state file once the ledger is empty. Resources that are already
// gone (deleted out of band) are dropped from the ledger without error, so a
// partially failed destroy can be re-run.
//
// A stack with no state file is already destroyed.
func (p *Provisioner) Destroy(ctx context.Context) error {
	log := clog.FromContext(ctx).With("stack", p.cfg.StackName())

	st, err := p.loadState()
	if errors.Is(err, state.ErrNotFound) {
		log.Info("nothing to destroy")
		return nil
	} else if err != nil {
		return err
	}

	var errs error
	for _, r := range st.Reversed() {
		log.Info("destroying resource", "kind", r.Kind, "id", r.ID)
		if err := p.destroyResource(ctx, st, r); err != nil {
			log.Error("failed to destroy resource", "kind", r.Kind, "id", r.ID, "error", err)
			errs = errors.Join(errs, err)
			continue
		}
		if err := st.Drop(r.Kind, r.ID); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if errs != nil {
		return fmt.Errorf("destroy left %d resource(s) behind, re-run to retry: %w", len(st.Resources), errs)
	}

	log.Info("stack destroyed")
	return st.Remove()
}

func (p *Provisioner) destroyResource(ctx context.Context, st *state.State, r state.Resource) error {
	ctx, span := o11y.Tracer().Start(ctx, "delete "+string(r.Kind),
		trace.WithAttributes(
			attribute.String(o11y.AttrStack, p.cfg.StackName()),
			attribute.String(o11y.AttrRunID, st.RunID),
			attribute.String(o11y.AttrResource, string(r.Kind)),
		))
	defer span.End()

	switch r.Kind {
	case state.KindInstance:
		return p.instanceTerminate(ctx, r.ID)
	case state.KindKeyPair:
		return p.keyPairDelete(ctx, r.ID, st.KeyFile)
	case state.KindSecurityGroup:
		return p.sgDelete(ctx, r.ID)
	case state.KindRoute:
		return p.routeDelete(ctx, r.ID, r.Attrs[state.AttrDestCIDR])
	case state.KindGatewayAttachment:
		return p.igwDetach(ctx, r.Attrs[state.AttrVPCID], r.ID)
	case state.KindInternetGateway:
		return p.igwDelete(ctx, r.ID)
	case state.KindSubnet:
		return p.subnetDelete(ctx, r.ID)
	case state.KindVPC:
		return p.vpcDelete(ctx, r.ID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
}
