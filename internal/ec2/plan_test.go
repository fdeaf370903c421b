package ec2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmelt/webstack/internal/state"
)

func TestPlanOpsFreshStack(t *testing.T) {
	ops := planOps(&state.State{}, "abc")

	require.Len(t, ops, len(applyOrder))
	for i, op := range ops {
		assert.Equal(t, ActionCreate, op.Action)
		assert.Equal(t, applyOrder[i], op.Kind)
	}
}

func TestPlanOpsUpToDate(t *testing.T) {
	st := &state.State{UserDataHash: "abc"}
	for _, kind := range applyOrder {
		st.Resources = append(st.Resources, state.Resource{Kind: kind, ID: "id-" + string(kind)})
	}

	assert.Empty(t, planOps(st, "abc"))
}

func TestPlanOpsPartialState(t *testing.T) {
	st := &state.State{
		Resources: []state.Resource{
			{Kind: state.KindVPC, ID: "vpc-1"},
			{Kind: state.KindSubnet, ID: "subnet-1"},
		},
	}

	ops := planOps(st, "abc")

	require.Len(t, ops, len(applyOrder)-2)
	assert.Equal(t, state.KindInternetGateway, ops[0].Kind)
	for _, op := range ops {
		assert.Equal(t, ActionCreate, op.Action)
		assert.NotEqual(t, state.KindVPC, op.Kind)
		assert.NotEqual(t, state.KindSubnet, op.Kind)
	}
}

func TestPlanOpsScriptChangeReplacesInstanceOnly(t *testing.T) {
	st := &state.State{UserDataHash: "old"}
	for _, kind := range applyOrder {
		st.Resources = append(st.Resources, state.Resource{Kind: kind, ID: "id-" + string(kind)})
	}

	ops := planOps(st, "new")

	require.Len(t, ops, 1)
	assert.Equal(t, ActionReplace, ops[0].Action)
	assert.Equal(t, state.KindInstance, ops[0].Kind)
}
