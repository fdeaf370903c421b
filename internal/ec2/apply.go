package ec2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/cloudmelt/webstack/internal/bootstrap"
	"github.com/cloudmelt/webstack/internal/state"
)

// Result summarizes a completed apply.
type Result struct {
	// Created lists the resource kinds this apply actually created, in
	// creation order. Empty when the stack was already fully up.
	Created []state.Kind

	PublicIP string
	URL      string
}

// unwindTimeout bounds the cleanup of a failed apply, which runs on a fresh
// context because the original one may already be canceled.
const unwindTimeout = 10 * time.Minute

// Apply brings the stack to its declared shape. It is resumable: resources
// already recorded in the state file are skipped, so a crashed or interrupted
// apply can simply be run again. Resources created during a failed apply are
// unwound before returning.
//
// A recorded instance whose boot script no longer matches the declared one is
// replaced; the network resources around it are left alone.
func (p *Provisioner) Apply(ctx context.Context) (*Result, error) {
	log := clog.FromContext(ctx).With("stack", p.cfg.StackName())

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
	scriptHash := bootstrap.Fingerprint(script)

	st, err := p.loadState()
	if err == nil {
		log.Info("resuming from existing state", "resources", len(st.Resources))
	} else if errors.Is(err, state.ErrNotFound) {
		st = state.New(p.statePath(), p.cfg.StackName(), p.cfg.Region, p.runID)
	} else {
		return nil, err
	}

	if inst, ok := st.Lookup(state.KindInstance); ok {
		switch {
		// An up-to-date stack is a no-op.
		case upToDate(st, scriptHash):
			log.Info("stack is up to date", "instance", inst.ID, "ip", st.PublicIP)
			return &Result{PublicIP: st.PublicIP, URL: p.webURL(st.PublicIP)}, nil

		// A recorded instance without a public IP means a previous apply
		// crashed between the launch and the readiness verification; pick the
		// wait back up instead of declaring the stack done.
		case st.UserDataHash == scriptHash:
			log.Info("resuming readiness verification", "instance", inst.ID)
			publicIP, err := p.instanceVerify(ctx, st, inst.ID)
			if err != nil {
				return nil, err
			}
			return &Result{PublicIP: publicIP, URL: p.webURL(publicIP)}, nil

		default:
			log.Info("boot script changed, replacing instance", "instance", inst.ID)
			if err := p.instanceTerminate(ctx, inst.ID); err != nil {
				return nil, err
			}
			st.PublicIP = ""
			st.UserDataHash = ""
			if err := st.Drop(state.KindInstance, inst.ID); err != nil {
				return nil, err
			}
		}
	}

	res, err := p.applyResources(ctx, st, script, scriptHash)
	if err != nil {
		// Unwind only what this invocation created; anything recorded by an
		// earlier apply stays for the operator to destroy or resume.
		if p.stack.Len() > 0 {
			log.Error("apply failed, unwinding resources created by this run", "error", err)
			cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unwindTimeout)
			defer cancel()
			if uerr := p.stack.Unwind(cleanupCtx); uerr != nil {
				log.Error("unwind left resources behind, destroy the stack to retry", "error", uerr)
			}
		}
		if len(st.Resources) == 0 {
			_ = st.Remove()
		}
		return nil, err
	}

	// The stack is committed to the state file now, nothing left to unwind.
	p.stack = Stack{}
	return res, nil
}

// applyResources walks the creation sequence, skipping recorded resources and
// pushing a destructor for each new one.
func (p *Provisioner) applyResources(ctx context.Context, st *state.State, script, scriptHash string) (*Result, error) {
	log := clog.FromContext(ctx).With("stack", p.cfg.StackName())
	result := &Result{}

	record := func(r state.Resource, destroy Destructor) error {
		if err := st.Append(r); err != nil {
			return err
		}
		result.Created = append(result.Created, r.Kind)
		p.stack.Push(func(ctx context.Context) error {
			if err := destroy(ctx); err != nil {
				return err
			}
			return st.Drop(r.Kind, r.ID)
		})
		return nil
	}

	// VPC.
	vpcRes, ok := st.Lookup(state.KindVPC)
	if !ok {
		vpcID, err := p.vpcCreate(ctx)
		if err != nil {
			return nil, err
		}
		vpcRes = state.Resource{Kind: state.KindVPC, ID: vpcID}
		if err := record(vpcRes, func(ctx context.Context) error {
			return p.vpcDelete(ctx, vpcID)
		}); err != nil {
			return nil, err
		}
	}
	vpcID := vpcRes.ID

	// Subnet.
	subnetRes, ok := st.Lookup(state.KindSubnet)
	if !ok {
		subnetID, err := p.subnetCreate(ctx, vpcID)
		if err != nil {
			return nil, err
		}
		subnetRes = state.Resource{Kind: state.KindSubnet, ID: subnetID}
		if err := record(subnetRes, func(ctx context.Context) error {
			return p.subnetDelete(ctx, subnetID)
		}); err != nil {
			return nil, err
		}
	}

	// Internet gateway.
	igwRes, ok := st.Lookup(state.KindInternetGateway)
	if !ok {
		igwID, err := p.igwCreate(ctx)
		if err != nil {
			return nil, err
		}
		igwRes = state.Resource{Kind: state.KindInternetGateway, ID: igwID}
		if err := record(igwRes, func(ctx context.Context) error {
			return p.igwDelete(ctx, igwID)
		}); err != nil {
			return nil, err
		}
	}
	igwID := igwRes.ID

	// Gateway attachment, recorded separately so teardown detaches before
	// deleting either side.
	if !st.Has(state.KindGatewayAttachment) {
		if err := p.igwAttach(ctx, vpcID, igwID); err != nil {
			return nil, err
		}
		r := state.Resource{
			Kind:  state.KindGatewayAttachment,
			ID:    igwID,
			Attrs: map[string]string{state.AttrVPCID: vpcID},
		}
		if err := record(r, func(ctx context.Context) error {
			return p.igwDetach(ctx, vpcID, igwID)
		}); err != nil {
			return nil, err
		}
	}

	// Default route through the gateway, on the VPC's main route table.
	if !st.Has(state.KindRoute) {
		rtbID, err := p.routeTableForVPC(ctx, vpcID)
		if err != nil {
			return nil, err
		}
		if err := p.routeCreate(ctx, rtbID, igwID); err != nil {
			return nil, err
		}
		r := state.Resource{
			Kind:  state.KindRoute,
			ID:    rtbID,
			Attrs: map[string]string{state.AttrDestCIDR: defaultRouteCIDR},
		}
		if err := record(r, func(ctx context.Context) error {
			return p.routeDelete(ctx, rtbID, defaultRouteCIDR)
		}); err != nil {
			return nil, err
		}
	}

	// Security group.
	sgRes, ok := st.Lookup(state.KindSecurityGroup)
	if !ok {
		cidr, err := p.operatorCIDR(ctx)
		if err != nil {
			return nil, err
		}
		log.Info("granting SSH access", "cidr", cidr)
		sgID, err := p.sgCreate(ctx, vpcID, cidr)
		if err != nil {
			return nil, err
		}
		sgRes = state.Resource{Kind: state.KindSecurityGroup, ID: sgID}
		if err := record(sgRes, func(ctx context.Context) error {
			return p.sgDelete(ctx, sgID)
		}); err != nil {
			return nil, err
		}
	}

	// Key pair.
	keyRes, ok := st.Lookup(state.KindKeyPair)
	if !ok {
		keyName, keyFile, err := p.keyPairCreate(ctx)
		if err != nil {
			return nil, err
		}
		st.KeyFile = keyFile
		keyRes = state.Resource{Kind: state.KindKeyPair, ID: keyName}
		if err := record(keyRes, func(ctx context.Context) error {
			return p.keyPairDelete(ctx, keyName, keyFile)
		}); err != nil {
			return nil, err
		}
	}

	// Instance.
	instanceID, err := p.instanceLaunch(ctx, subnetRes.ID, sgRes.ID, keyRes.ID, bootstrap.Encode(script))
	if err != nil {
		return nil, err
	}
	log.Info("launched instance", "id", instanceID)
	st.UserDataHash = scriptHash
	if err := record(state.Resource{Kind: state.KindInstance, ID: instanceID}, func(ctx context.Context) error {
		return p.instanceTerminate(ctx, instanceID)
	}); err != nil {
		return nil, err
	}

	publicIP, err := p.instanceVerify(ctx, st, instanceID)
	if err != nil {
		return nil, err
	}

	result.PublicIP = publicIP
	result.URL = p.webURL(publicIP)
	log.Info("stack is ready", "url", result.URL)
	return result, nil
}

// upToDate reports whether the recorded stack already matches the declared
// boot script. A recorded instance alone is not enough: the public IP is
// persisted only once the readiness verification got underway, so its
// absence means the launch was never seen through.
func upToDate(st *state.State, scriptHash string) bool {
	if !st.Has(state.KindInstance) {
		return false
	}
	return st.UserDataHash == scriptHash && st.PublicIP != ""
}

// instanceVerify waits for the instance to run, pass its status checks, and
// answer on the SSH and web ports, all bounded by the configured readiness
// timeout. The public IP is persisted as soon as it is known, so a crash
// mid-verification resumes here on the next apply.
func (p *Provisioner) instanceVerify(ctx context.Context, st *state.State, instanceID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.ReadyTimeoutSeconds)*time.Second)
	defer cancel()

	publicIP, err := p.instanceAwaitRunning(ctx, instanceID)
	if err != nil {
		return "", err
	}
	st.PublicIP = publicIP
	if err := st.Save(); err != nil {
		return "", err
	}

	if err := p.awaitReady(ctx, publicIP); err != nil {
		return "", err
	}
	return publicIP, nil
}

// awaitReady blocks until both the SSH port and the web service answer or
// the context expires. The web check doubles as confirmation that the boot
// script finished: docker is installed and the container is serving.
func (p *Provisioner) awaitReady(ctx context.Context, publicIP string) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return waitTCP(ctx, publicIP, p.cfg.SSHPort)
	})
	eg.Go(func() error {
		return waitHTTP(ctx, p.webURL(publicIP))
	})
	return eg.Wait()
}

func (p *Provisioner) webURL(publicIP string) string {
	if publicIP == "" {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", publicIP, p.cfg.WebPort)
}
