package ec2

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/google/uuid"

	"github.com/cloudmelt/webstack/internal/state"
)

// Provisioner drives the lifecycle of one stack: Plan, Apply, Destroy,
// Status and Converge.
type Provisioner struct {
	cfg      *Config
	client   *ec2.Client
	stateDir string

	// runID distinguishes resources from separate applies of the same stack
	// name in tags and logs.
	runID string

	// stack accumulates destructors for resources created during the current
	// Apply, so a failed or canceled apply can unwind what it just made.
	stack Stack
}

// New builds a provisioner for the given stack declaration. The AWS
// credential chain is the SDK default (env, shared config, IMDS).
func New(ctx context.Context, cfg *Config, stateDir string) (*Provisioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	return &Provisioner{
		cfg:      cfg,
		client:   ec2.NewFromConfig(awsCfg),
		stateDir: stateDir,
		runID:    uuid.NewString()[:8],
	}, nil
}

func (p *Provisioner) statePath() string {
	return state.Path(p.stateDir, p.cfg.StackName())
}

// loadState reads the stack's state file; ErrNotFound passes through for
// callers that treat a missing file as "never applied".
func (p *Provisioner) loadState() (*state.State, error) {
	return state.Load(p.statePath())
}
