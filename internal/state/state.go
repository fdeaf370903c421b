// state persists the ordered list of resources a stack apply has created, so
// a later invocation (or a recovery after a crashed apply) can destroy them
// in reverse order. The file is plain JSON, one file per stack.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// Kind identifies a resource class recorded in the state file.
type Kind string

const (
	KindVPC               Kind = "vpc"
	KindSubnet            Kind = "subnet"
	KindInternetGateway   Kind = "internet-gateway"
	KindGatewayAttachment Kind = "gateway-attachment"
	KindRoute             Kind = "route"
	KindSecurityGroup     Kind = "security-group"
	KindKeyPair           Kind = "key-pair"
	KindInstance          Kind = "instance"
)

// Attribute keys used in Resource.Attrs.
const (
	AttrVPCID        = "vpc_id"
	AttrRouteTableID = "route_table_id"
	AttrDestCIDR     = "destination_cidr"
	AttrName         = "name"
)

// Resource is one created cloud resource. Attrs carries the kind-specific
// identifiers teardown needs beyond the primary ID (e.g. the VPC ID for a
// gateway attachment, or the destination CIDR for a route).
type Resource struct {
	Kind  Kind              `json:"kind"`
	ID    string            `json:"id"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// State is the on-disk ledger for a single stack.
type State struct {
	Version   int        `json:"version"`
	Name      string     `json:"name"`
	Region    string     `json:"region"`
	RunID     string     `json:"run_id"`
	CreatedAt time.Time  `json:"created_at"`
	PublicIP  string     `json:"public_ip,omitempty"`
	KeyFile   string     `json:"key_file,omitempty"`
	// UserDataHash fingerprints the boot script the instance was launched
	// with; a differing fingerprint on a later apply replaces the instance.
	UserDataHash string     `json:"user_data_hash,omitempty"`
	Resources    []Resource `json:"resources"`

	path string
}

const currentVersion = 1

var (
	ErrNotFound = fmt.Errorf("no state file for this stack")
	ErrCorrupt  = fmt.Errorf("state file is not readable")
	ErrVersion  = fmt.Errorf("state file was written by an incompatible version")
)

// Path returns the state file location for a stack name within 'dir'.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".webstack.json")
}

// New initializes an empty in-memory state. Nothing is written until the
// first Append or Save.
func New(path, name, region, runID string) *State {
	return &State{
		Version:   currentVersion,
		Name:      name,
		Region:    region,
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		path:      path,
	}
}

// Load reads a state file from 'path'. A missing file is reported as
// ErrNotFound so callers can distinguish "never applied" from real failures.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	st := new(State)
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if st.Version != currentVersion {
		return nil, fmt.Errorf("%w: version %d", ErrVersion, st.Version)
	}
	st.path = path
	return st, nil
}

// Append records a newly created resource and immediately persists the file,
// so a crash between resource creations never loses track of anything
// already created.
func (s *State) Append(r Resource) error {
	s.Resources = append(s.Resources, r)
	return s.Save()
}

// Lookup returns the first recorded resource of the given kind.
func (s *State) Lookup(kind Kind) (Resource, bool) {
	for _, r := range s.Resources {
		if r.Kind == kind {
			return r, true
		}
	}
	return Resource{}, false
}

// Has reports whether a resource of the given kind is recorded.
func (s *State) Has(kind Kind) bool {
	_, ok := s.Lookup(kind)
	return ok
}

// Reversed returns a copy of the recorded resources in reverse creation
// order, the order they must be destroyed in. Callers mutate the ledger via
// Drop while iterating the copy.
func (s *State) Reversed() []Resource {
	out := make([]Resource, 0, len(s.Resources))
	for _, r := range slices.Backward(s.Resources) {
		out = append(out, r)
	}
	return out
}

// Drop removes a resource from the ledger and persists the file. Dropping a
// resource that is not recorded is a no-op.
func (s *State) Drop(kind Kind, id string) error {
	kept := s.Resources[:0]
	for _, r := range s.Resources {
		if r.Kind == kind && r.ID == id {
			continue
		}
		kept = append(kept, r)
	}
	s.Resources = kept
	return s.Save()
}

// Save writes the state atomically (temp file + rename in the same
// directory).
func (s *State) Save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".webstack-state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Remove deletes the state file after a complete destroy. A file that is
// already gone is not an error.
func (s *State) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}
