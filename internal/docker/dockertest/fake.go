// Package dockertest provides an in-memory container runtime that records
// every call it receives.
package dockertest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/stackify/cli/internal/docker"
)

// Operation names recorded by the fake.
const (
	OpCreateNetwork   = "create-network"
	OpRemoveNetwork   = "remove-network"
	OpCreateContainer = "create-container"
	OpStartContainer  = "start-container"
	OpStopContainer   = "stop-container"
	OpRemoveContainer = "remove-container"
	OpConnectNetwork  = "connect-network"
	OpCopyFiles       = "copy-files"

	// List operations are not recorded but can be failed with FailOn(op, "").
	OpListContainers = "list-containers"
	OpListNetworks   = "list-networks"
)

// Call is one mutating call received by the fake. Target is the resource name.
type Call struct {
	Op     string
	Target string
}

func (c Call) String() string {
	return c.Op + " " + c.Target
}

type fakeContainer struct {
	docker.Container
	spec     docker.ContainerSpec
	networks []string
	files    map[string][]byte
	logs     string
}

// Runtime is a fake container runtime safe for concurrent use.
type Runtime struct {
	mu         sync.Mutex
	seq        int
	containers map[string]*fakeContainer
	networks   map[string]docker.Network
	failures   map[string]error
	calls      []Call

	Rootless bool
	// OnCall, when set, sees every recorded call. It runs with the runtime
	// lock held and must not call back into the runtime.
	OnCall func(Call)
}

// New returns an empty fake runtime.
func New() *Runtime {
	return &Runtime{
		containers: map[string]*fakeContainer{},
		networks:   map[string]docker.Network{},
		failures:   map[string]error{},
	}
}

// FailOn makes every later op against target return err.
func (r *Runtime) FailOn(op, target string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op+" "+target] = err
}

// AddNetwork seeds a pre-existing network.
func (r *Runtime) AddNetwork(name string, labels map[string]string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID("net")
	r.networks[id] = docker.Network{ID: id, Name: name, Labels: copyLabels(labels)}
	return id
}

// AddContainer seeds a pre-existing container in the given state.
func (r *Runtime) AddContainer(name, state string, labels map[string]string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID("ctr")
	r.containers[id] = &fakeContainer{
		Container: docker.Container{ID: id, Name: name, State: state, Labels: copyLabels(labels)},
		files:     map[string][]byte{},
	}
	return id
}

// SetLogs sets the output ContainerLogs returns for the named container.
func (r *Runtime) SetLogs(name, logs string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.byName(name); c != nil {
		c.logs = logs
	}
}

// Calls returns a copy of the recorded mutating calls.
func (r *Runtime) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls for one target, in order.
func (r *Runtime) CallsTo(target string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ops []string
	for _, c := range r.calls {
		if c.Target == target {
			ops = append(ops, c.Op)
		}
	}
	return ops
}

// CountOp returns how many times op was called.
func (r *Runtime) CountOp(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Containers returns every container sorted by name.
func (r *Runtime) Containers() []docker.Container {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]docker.Container, 0, len(r.containers))
	for _, c := range r.containers {
		out = append(out, c.Container)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Networks returns every network sorted by name.
func (r *Runtime) Networks() []docker.Network {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]docker.Network, 0, len(r.networks))
	for _, n := range r.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Spec returns the create spec of the named container.
func (r *Runtime) Spec(name string) (docker.ContainerSpec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byName(name)
	if c == nil {
		return docker.ContainerSpec{}, false
	}
	return c.spec, true
}

// File returns the bytes copied to path in the named container.
func (r *Runtime) File(name, path string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byName(name)
	if c == nil {
		return nil, false
	}
	b, ok := c.files[path]
	return b, ok
}

// ConnectedNetworks returns the network ids the named container was connected to.
func (r *Runtime) ConnectedNetworks(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byName(name)
	if c == nil {
		return nil
	}
	return append([]string(nil), c.networks...)
}

func (r *Runtime) ListContainers(_ context.Context, f docker.Filter) ([]docker.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(OpListContainers, ""); err != nil {
		return nil, err
	}
	var out []docker.Container
	for _, c := range r.containers {
		if f.Name != "" && c.Name != f.Name {
			continue
		}
		if !labelsMatch(c.Labels, f.Labels) {
			continue
		}
		if f.RunningOnly && !c.Running() {
			continue
		}
		cc := c.Container
		cc.Labels = copyLabels(c.Labels)
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Runtime) ListNetworks(_ context.Context, f docker.Filter) ([]docker.Network, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(OpListNetworks, ""); err != nil {
		return nil, err
	}
	var out []docker.Network
	for _, n := range r.networks {
		if f.Name != "" && n.Name != f.Name {
			continue
		}
		if !labelsMatch(n.Labels, f.Labels) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Runtime) CreateNetwork(_ context.Context, name string, labels map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(OpCreateNetwork, name)
	if err := r.failure(OpCreateNetwork, name); err != nil {
		return "", err
	}
	id := r.nextID("net")
	r.networks[id] = docker.Network{ID: id, Name: name, Labels: copyLabels(labels)}
	return id, nil
}

func (r *Runtime) RemoveNetwork(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.networks[id]
	name := id
	if ok {
		name = n.Name
	}
	r.record(OpRemoveNetwork, name)
	if err := r.failure(OpRemoveNetwork, name); err != nil {
		return err
	}
	delete(r.networks, id)
	return nil
}

func (r *Runtime) CreateContainer(_ context.Context, spec docker.ContainerSpec) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(OpCreateContainer, spec.Name)
	if err := r.failure(OpCreateContainer, spec.Name); err != nil {
		return "", err
	}
	if r.byName(spec.Name) != nil {
		return "", fmt.Errorf("conflict: container name %q already in use", spec.Name)
	}
	id := r.nextID("ctr")
	c := &fakeContainer{
		Container: docker.Container{
			ID:     id,
			Name:   spec.Name,
			Image:  spec.Image,
			State:  docker.StateCreated,
			Labels: copyLabels(spec.Labels),
		},
		spec:  spec,
		files: map[string][]byte{},
	}
	if spec.Network != "" {
		c.networks = append(c.networks, spec.Network)
	}
	r.containers[id] = c
	return id, nil
}

func (r *Runtime) StartContainer(_ context.Context, id string) error {
	return r.mutate(OpStartContainer, id, func(c *fakeContainer) { c.State = docker.StateRunning })
}

func (r *Runtime) StopContainer(_ context.Context, id string, _ int) error {
	return r.mutate(OpStopContainer, id, func(c *fakeContainer) { c.State = docker.StateExited })
}

func (r *Runtime) RemoveContainer(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[id]
	name := id
	if ok {
		name = c.Name
	}
	r.record(OpRemoveContainer, name)
	if err := r.failure(OpRemoveContainer, name); err != nil {
		return err
	}
	delete(r.containers, id)
	return nil
}

func (r *Runtime) ConnectNetwork(_ context.Context, networkID, containerID string, _ []string) error {
	return r.mutate(OpConnectNetwork, containerID, func(c *fakeContainer) {
		c.networks = append(c.networks, networkID)
	})
}

func (r *Runtime) CopyFiles(_ context.Context, containerID string, _, _ int, files []docker.File) error {
	return r.mutate(OpCopyFiles, containerID, func(c *fakeContainer) {
		for _, f := range files {
			c.files[f.Path] = append([]byte(nil), f.Content...)
		}
	})
}

func (r *Runtime) ContainerLogs(_ context.Context, id string, _ bool, stdout, _ io.Writer) error {
	r.mu.Lock()
	c, ok := r.containers[id]
	var logs string
	if ok {
		logs = c.logs
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("no such container: %s", id)
	}
	_, err := io.Copy(stdout, strings.NewReader(logs))
	return err
}

func (r *Runtime) IsRootless(context.Context) (bool, error) {
	return r.Rootless, nil
}

func (r *Runtime) mutate(op, id string, fn func(*fakeContainer)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[id]
	if !ok {
		r.record(op, id)
		return fmt.Errorf("no such container: %s", id)
	}
	r.record(op, c.Name)
	if err := r.failure(op, c.Name); err != nil {
		return err
	}
	fn(c)
	return nil
}

func (r *Runtime) record(op, target string) {
	c := Call{Op: op, Target: target}
	r.calls = append(r.calls, c)
	if r.OnCall != nil {
		r.OnCall(c)
	}
}

func (r *Runtime) failure(op, target string) error {
	return r.failures[op+" "+target]
}

func (r *Runtime) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *Runtime) byName(name string) *fakeContainer {
	for _, c := range r.containers {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func labelsMatch(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func copyLabels(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
