package ec2

import (
	"context"
	"errors"

	"github.com/cloudmelt/webstack/internal/bootstrap"
	"github.com/cloudmelt/webstack/internal/state"
)

// Action is what an apply would do to one resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionReplace Action = "replace"
)

// Op is one step of a plan.
type Op struct {
	Action Action
	Kind   state.Kind
	Reason string
}

// applyOrder is the creation sequence Apply follows; Plan reports missing
// resources in the same order.
var applyOrder = []state.Kind{
	state.KindVPC,
	state.KindSubnet,
	state.KindInternetGateway,
	state.KindGatewayAttachment,
	state.KindRoute,
	state.KindSecurityGroup,
	state.KindKeyPair,
	state.KindInstance,
}

// Plan compares the declared stack against the state file and returns the
// operations an apply would perform, without touching the cloud. An empty
// plan means the stack is up to date.
func (p *Provisioner) Plan(ctx context.Context) ([]Op, error) {
	script, err := bootstrap.Render(bootstrap.Params{
		User:          p.cfg.SSHUser,
		Image:         p.cfg.Image,
		ContainerName: p.cfg.ContainerName,
		WebPort:       p.cfg.WebPort,
		ContainerPort: p.cfg.ContainerPort,
	})
	if err != nil {
		return nil, err
	}

	st, err := p.loadState()
	if errors.Is(err, state.ErrNotFound) {
		st = &state.State{}
	} else if err != nil {
		return nil, err
	}

	return planOps(st, bootstrap.Fingerprint(script)), nil
}

func planOps(st *state.State, scriptHash string) []Op {
	var ops []Op
	for _, kind := range applyOrder {
		if st.Has(kind) {
			if kind == state.KindInstance && st.UserDataHash != scriptHash {
				ops = append(ops, Op{
					Action: ActionReplace,
					Kind:   kind,
					Reason: "boot script changed",
				})
			}
			continue
		}
		ops = append(ops, Op{Action: ActionCreate, Kind: kind, Reason: "not recorded in state"})
	}
	return ops
}
