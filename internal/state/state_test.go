package state

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, "demo")

	st := New(path, "demo", "us-west-2", "a1b2c3d4")
	require.NoError(t, st.Append(Resource{Kind: KindVPC, ID: "vpc-0abc"}))
	require.NoError(t, st.Append(Resource{
		Kind:  KindSubnet,
		ID:    "subnet-0def",
		Attrs: map[string]string{AttrVPCID: "vpc-0abc"},
	}))
	st.PublicIP = "198.51.100.7"
	require.NoError(t, st.Save())

	loaded, err := Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(st, loaded, cmpopts.IgnoreUnexported(State{})); diff != "" {
		t.Errorf("state changed across save/load (-want +got):\n%s", diff)
	}
}

func TestStateLoadMissing(t *testing.T) {
	_, err := Load(Path(t.TempDir(), "nope"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStateLoadCorrupt(t *testing.T) {
	path := Path(t.TempDir(), "demo")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Load(path)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestStateVersionMismatch(t *testing.T) {
	path := Path(t.TempDir(), "demo")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o644))
	_, err := Load(path)
	require.ErrorIs(t, err, ErrVersion)
}

func TestStateReversedOrder(t *testing.T) {
	st := New(Path(t.TempDir(), "demo"), "demo", "us-west-2", "run")
	require.NoError(t, st.Append(Resource{Kind: KindVPC, ID: "vpc-1"}))
	require.NoError(t, st.Append(Resource{Kind: KindSubnet, ID: "subnet-1"}))
	require.NoError(t, st.Append(Resource{Kind: KindInstance, ID: "i-1"}))

	var seen []Kind
	for _, r := range st.Reversed() {
		seen = append(seen, r.Kind)
	}
	assert.Equal(t, []Kind{KindInstance, KindSubnet, KindVPC}, seen)

	// Reversed is a copy; dropping while iterating must be safe.
	for _, r := range st.Reversed() {
		require.NoError(t, st.Drop(r.Kind, r.ID))
	}
	assert.Empty(t, st.Resources)
}

func TestStateDrop(t *testing.T) {
	st := New(Path(t.TempDir(), "demo"), "demo", "us-west-2", "run")
	require.NoError(t, st.Append(Resource{Kind: KindVPC, ID: "vpc-1"}))
	require.NoError(t, st.Append(Resource{Kind: KindSubnet, ID: "subnet-1"}))

	require.NoError(t, st.Drop(KindSubnet, "subnet-1"))
	assert.Equal(t, []Resource{{Kind: KindVPC, ID: "vpc-1"}}, st.Resources)

	// Unknown drops are no-ops.
	require.NoError(t, st.Drop(KindInstance, "i-404"))
	assert.Len(t, st.Resources, 1)
}

func TestStateRemove(t *testing.T) {
	path := Path(t.TempDir(), "demo")
	st := New(path, "demo", "us-west-2", "run")
	require.NoError(t, st.Save())

	require.NoError(t, st.Remove())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	require.NoError(t, st.Remove())
}
