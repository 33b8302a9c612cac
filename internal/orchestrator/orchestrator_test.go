package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackify/cli/internal/docker"
	"github.com/stackify/cli/internal/docker/dockertest"
	"github.com/stackify/cli/internal/domain"
	"github.com/stackify/cli/internal/naming"
	"github.com/stackify/cli/internal/store"
)

const bitcoinConf = "/home/stackify/.bitcoin/bitcoin.conf"

// memStore is an in-memory ConfigStore.
type memStore struct {
	envs      map[string]*domain.Environment
	files     map[domain.ServiceType][]domain.ServiceFile
	overrides map[int64][]domain.ServiceFile
	loadErr   error
	deleted   []string
}

func newMemStore() *memStore {
	return &memStore{
		envs: map[string]*domain.Environment{},
		files: map[domain.ServiceType][]domain.ServiceFile{
			domain.ServiceTypeBitcoinMiner:    {bitcoinTemplate()},
			domain.ServiceTypeBitcoinFollower: {bitcoinTemplate()},
		},
		overrides: map[int64][]domain.ServiceFile{},
	}
}

func bitcoinTemplate() domain.ServiceFile {
	return domain.ServiceFile{
		ServiceFileHeader: domain.ServiceFileHeader{Name: "bitcoin.conf", Destination: bitcoinConf, Template: true},
		Content:           []byte("# {{ .Service }}\n{{ range .Peers }}addnode={{ . }}\n{{ end }}"),
	}
}

func (m *memStore) LoadEnvironment(_ context.Context, name domain.EnvironmentName) (*domain.Environment, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	env, ok := m.envs[name.String()]
	if !ok {
		return nil, store.ErrEnvironmentNotFound
	}
	return env, nil
}

func (m *memStore) ListServiceTypeFiles(_ context.Context, t domain.ServiceType) ([]domain.ServiceFile, error) {
	return m.files[t], nil
}

func (m *memStore) ListServiceFileOverrides(_ context.Context, id int64) ([]domain.ServiceFile, error) {
	return m.overrides[id], nil
}

func (m *memStore) DeleteEnvironment(_ context.Context, name domain.EnvironmentName) error {
	if _, ok := m.envs[name.String()]; !ok {
		return store.ErrEnvironmentNotFound
	}
	delete(m.envs, name.String())
	m.deleted = append(m.deleted, name.String())
	return nil
}

func (m *memStore) addEnvironment(name string, services ...domain.EnvironmentService) domain.EnvironmentName {
	env := domain.MustEnvironmentName(name)
	m.envs[name] = &domain.Environment{ID: int64(len(m.envs) + 1), Name: env, Services: services}
	return env
}

func bitcoinService(id int64, name string, t domain.ServiceType) domain.EnvironmentService {
	return domain.EnvironmentService{
		ID:      id,
		Type:    t,
		Name:    name,
		Version: domain.ServiceVersion{ID: 1, Type: t, Version: "26.2"},
		Files:   []domain.ServiceFileHeader{bitcoinTemplate().ServiceFileHeader},
		Params:  []domain.ServiceParam{{Key: "rpc_username", Value: "stackify"}},
	}
}

// recorder is a Reporter that keeps every message.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) log(level, msg string, kv ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+" "+msg+" "+fmt.Sprint(kv...))
}

func (r *recorder) Step(msg string, kv ...any)    { r.log("step", msg, kv...) }
func (r *recorder) Success(msg string, kv ...any) { r.log("success", msg, kv...) }
func (r *recorder) Warn(msg string, kv ...any)    { r.log("warn", msg, kv...) }
func (r *recorder) Fail(msg string, kv ...any)    { r.log("fail", msg, kv...) }

func (r *recorder) contains(level, fragment string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if strings.HasPrefix(l, level+" ") && strings.Contains(l, fragment) {
			return true
		}
	}
	return false
}

func newTestOrchestrator(rt *dockertest.Runtime, st *memStore, rep Reporter) *Orchestrator {
	o := New(rt, st, rep, Options{BinDir: "/opt/stackify/bin", AssetsDir: "/opt/stackify/assets"})
	o.currentUser = func() (int, int) { return 1000, 1000 }
	return o
}

func TestStartAlphaScenario(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	miner := bitcoinService(1, "alpha-bitcoin-miner-a1b2", domain.ServiceTypeBitcoinMiner)
	follower := bitcoinService(2, "alpha-bitcoin-follower-c3d4", domain.ServiceTypeBitcoinFollower)
	env := st.addEnvironment("alpha", miner, follower)
	o := newTestOrchestrator(rt, st, nil)

	result, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Failed())
	assert.Equal(t, 3, result.Count(OutcomeStarted))
	assert.Len(t, result.Resources, 4)
	anchors := 0
	for _, res := range result.Resources {
		if res.Kind == KindAnchor {
			anchors++
			assert.Equal(t, OutcomeStarted, res.Outcome)
		}
	}
	assert.Equal(t, 1, anchors)

	networks := rt.Networks()
	require.Len(t, networks, 1)
	assert.Equal(t, "stx-alpha", networks[0].Name)

	containers := rt.Containers()
	require.Len(t, containers, 3)
	for _, c := range containers {
		assert.True(t, c.Running(), "%s should be running", c.Name)
	}
	assert.Equal(t, []string{
		dockertest.OpCreateNetwork,
		dockertest.OpCreateContainer,
		dockertest.OpStartContainer,
	}, rt.CallsTo("stx-alpha"))

	minerConf, ok := rt.File(miner.Name, bitcoinConf)
	require.True(t, ok)
	assert.Contains(t, string(minerConf), "addnode=alpha-bitcoin-follower-c3d4")
	assert.NotContains(t, string(minerConf), "addnode=alpha-bitcoin-miner-a1b2")

	followerConf, ok := rt.File(follower.Name, bitcoinConf)
	require.True(t, ok)
	assert.Contains(t, string(followerConf), "addnode=alpha-bitcoin-miner-a1b2")
	assert.NotContains(t, string(followerConf), "addnode=alpha-bitcoin-follower-c3d4")

	for _, name := range []string{miner.Name, follower.Name} {
		assert.Equal(t, []string{networks[0].ID}, rt.ConnectedNetworks(name))
	}
}

func TestStartIsIdempotent(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	env := st.addEnvironment("empty")
	o := newTestOrchestrator(rt, st, nil)
	ctx := context.Background()

	_, err := o.Start(ctx, env, StartOptions{})
	require.ErrorIs(t, err, ErrNoServicesDefined)
	assert.Empty(t, rt.Calls())

	_, err = o.Start(ctx, env, StartOptions{AllowEmpty: true})
	require.NoError(t, err)
	mutations := len(rt.Calls())

	_, err = o.Start(ctx, env, StartOptions{AllowEmpty: true})
	require.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Len(t, rt.Calls(), mutations)
	assert.Len(t, rt.Networks(), 1)
	assert.Len(t, rt.Containers(), 1)
}

func TestStartDetectsAmbiguousNetworks(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	env := st.addEnvironment("beta", bitcoinService(1, "beta-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner))
	rt.AddNetwork("stx-beta", naming.EnvironmentLabels(env))
	rt.AddNetwork("stx-beta-copy", naming.EnvironmentLabels(env))
	o := newTestOrchestrator(rt, st, nil)

	_, err := o.Start(context.Background(), env, StartOptions{})
	var ambiguous *AmbiguousResourceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, KindNetwork, ambiguous.Kind)
	assert.Equal(t, 2, ambiguous.Count)
	assert.Empty(t, rt.Calls())
	assert.Len(t, rt.Networks(), 2)
}

func TestStartDetectsAmbiguousAnchors(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	env := st.addEnvironment("gamma", bitcoinService(1, "gamma-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner))
	rt.AddContainer("stx-gamma", docker.StateExited, naming.EnvironmentLabels(env))
	rt.AddContainer("stx-gamma", docker.StateExited, naming.EnvironmentLabels(env))
	o := newTestOrchestrator(rt, st, nil)

	_, err := o.Start(context.Background(), env, StartOptions{})
	var ambiguous *AmbiguousResourceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, KindAnchor, ambiguous.Kind)
	assert.Empty(t, rt.Calls())
}

func TestStartProvisioningOrder(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	svc := bitcoinService(1, "delta-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner)
	env := st.addEnvironment("delta", svc)
	o := newTestOrchestrator(rt, st, nil)

	_, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		dockertest.OpCreateContainer,
		dockertest.OpCopyFiles,
		dockertest.OpConnectNetwork,
		dockertest.OpStartContainer,
	}, rt.CallsTo(svc.Name))

	calls := rt.Calls()
	anchorStart, serviceCreate := -1, -1
	for i, c := range calls {
		if c.Op == dockertest.OpStartContainer && c.Target == "stx-delta" {
			anchorStart = i
		}
		if c.Op == dockertest.OpCreateContainer && c.Target == svc.Name {
			serviceCreate = i
		}
	}
	assert.Less(t, anchorStart, serviceCreate, "anchor must start before services are created")
}

func TestStartPartialFailureIsolation(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	first := bitcoinService(1, "eps-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner)
	second := bitcoinService(2, "eps-bitcoin-follower-0002", domain.ServiceTypeBitcoinFollower)
	env := st.addEnvironment("eps", first, second)
	rt.FailOn(dockertest.OpCreateContainer, first.Name, errors.New("daemon exploded"))
	rep := &recorder{}
	o := newTestOrchestrator(rt, st, rep)

	result, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, first.Name, failed[0].Name)
	assert.ErrorContains(t, failed[0].Err, "daemon exploded")

	res, ok := result.Lookup(KindContainer, second.Name)
	require.True(t, ok)
	assert.Equal(t, OutcomeStarted, res.Outcome)
	assert.Equal(t, []string{
		dockertest.OpCreateContainer,
		dockertest.OpCopyFiles,
		dockertest.OpConnectNetwork,
		dockertest.OpStartContainer,
	}, rt.CallsTo(second.Name))
	assert.True(t, rep.contains("fail", first.Name))
}

func TestStartSkipsUnsupportedServices(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	stacks := domain.EnvironmentService{ID: 1, Type: domain.ServiceTypeStacksMiner, Name: "zeta-stacks-miner-0001"}
	env := st.addEnvironment("zeta", stacks)
	rep := &recorder{}
	o := newTestOrchestrator(rt, st, rep)

	result, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)
	res, ok := result.Lookup(KindContainer, stacks.Name)
	require.True(t, ok)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, rt.CallsTo(stacks.Name))
	assert.True(t, rep.contains("warn", stacks.Name))
}

func TestStartReusesExistingState(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	svc := bitcoinService(1, "eta-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner)
	env := st.addEnvironment("eta", svc)
	rt.AddNetwork("stx-eta", naming.EnvironmentLabels(env))
	rt.AddContainer("stx-eta", docker.StateExited, naming.EnvironmentLabels(env))
	rt.AddContainer(svc.Name, docker.StateExited, naming.ServiceLabels(env, svc))
	o := newTestOrchestrator(rt, st, nil)

	result, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)
	assert.Zero(t, rt.CountOp(dockertest.OpCreateNetwork))
	assert.Zero(t, rt.CountOp(dockertest.OpCreateContainer))
	assert.Equal(t, []string{dockertest.OpStartContainer}, rt.CallsTo(svc.Name))

	res, _ := result.Lookup(KindContainer, svc.Name)
	assert.Equal(t, OutcomeReused, res.Outcome)
	res, _ = result.Lookup(KindNetwork, "stx-eta")
	assert.Equal(t, OutcomeReused, res.Outcome)
}

func TestStartLoadErrorsAbortBeforeMutation(t *testing.T) {
	missing := &store.MissingRequiredParameterError{Environment: "theta", Service: "theta-stacks-miner-0001", Param: "mining_key"}
	tests := []struct {
		name    string
		loadErr error
		target  error
	}{
		{name: "not found", target: store.ErrEnvironmentNotFound},
		{name: "missing parameter", loadErr: missing, target: missing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := dockertest.New()
			st := newMemStore()
			st.loadErr = tt.loadErr
			o := newTestOrchestrator(rt, st, nil)

			_, err := o.Start(context.Background(), domain.MustEnvironmentName("theta"), StartOptions{})
			assert.ErrorIs(t, err, tt.target)
			assert.Empty(t, rt.Calls())
		})
	}
}

func TestStartNetworkFailureIsFatal(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	env := st.addEnvironment("iota", bitcoinService(1, "iota-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner))
	rt.FailOn(dockertest.OpCreateNetwork, "stx-iota", errors.New("permission denied"))
	o := newTestOrchestrator(rt, st, nil)

	_, err := o.Start(context.Background(), env, StartOptions{})
	assert.ErrorContains(t, err, "permission denied")
	assert.Zero(t, rt.CountOp(dockertest.OpCreateContainer))
}

func TestStartCancellation(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	env := st.addEnvironment("kappa", bitcoinService(1, "kappa-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner))
	o := newTestOrchestrator(rt, st, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Start(ctx, env, StartOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rt.Calls())
}

func TestStartCancelledMidRun(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	svc := bitcoinService(1, "nu-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner)
	env := st.addEnvironment("nu", svc)
	o := newTestOrchestrator(rt, st, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rt.OnCall = func(c dockertest.Call) {
		if c == (dockertest.Call{Op: dockertest.OpStartContainer, Target: "stx-nu"}) {
			cancel()
		}
	}

	result, err := o.Start(ctx, env, StartOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)

	anchor, ok := result.Lookup(KindAnchor, "stx-nu")
	require.True(t, ok)
	assert.Equal(t, OutcomeStarted, anchor.Outcome)
	for _, c := range rt.Containers() {
		if c.Name == "stx-nu" {
			assert.True(t, c.Running())
		}
	}
	assert.Equal(t, 1, rt.CountOp(dockertest.OpCreateContainer))
	assert.Empty(t, rt.CallsTo(svc.Name))
	_, ok = result.Lookup(KindContainer, svc.Name)
	assert.False(t, ok)
}

func TestStartIgnoresSameNamedContainerOfOtherEnvironment(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	other := bitcoinService(1, "stx-bitcoin-miner-ab12", domain.ServiceTypeBitcoinMiner)
	otherEnv := st.addEnvironment("stx", other)
	rt.AddContainer(other.Name, docker.StateExited, naming.ServiceLabels(otherEnv, other))

	env := st.addEnvironment("bitcoin-miner-ab12", bitcoinService(2, "bitcoin-miner-ab12-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner))
	o := newTestOrchestrator(rt, st, nil)

	_, err := o.Start(context.Background(), env, StartOptions{})
	assert.ErrorContains(t, err, "conflict")

	assert.NotContains(t, rt.CallsTo(other.Name), dockertest.OpStartContainer)
	for _, c := range rt.Containers() {
		if c.Name == other.Name {
			assert.Equal(t, docker.StateExited, c.State)
			assert.Equal(t, "stx", c.Labels[naming.LabelEnvironment])
		}
	}
}

func TestServiceContainerSpec(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	svc := bitcoinService(1, "lambda-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner)
	svc.Ports = []domain.PortMapping{{HostPort: 18443, ContainerPort: 18443}}
	env := st.addEnvironment("lambda", svc)
	o := newTestOrchestrator(rt, st, nil)

	_, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)

	spec, ok := rt.Spec(svc.Name)
	require.True(t, ok)
	assert.Equal(t, svc.Name, spec.Hostname)
	assert.Equal(t, "1000:1000", spec.User)
	assert.Equal(t, []string{EntrypointMountPath}, spec.Cmd)
	assert.Contains(t, spec.Env, "SERVICE_VERSION=26.2")
	assert.Contains(t, spec.Env, "BITCOIN_VERSION=26.2")
	assert.Contains(t, spec.Env, "BITCOIN_MINER=true")
	assert.Contains(t, spec.Env, "PARAM_RPC_USERNAME=stackify")
	assert.Equal(t, "service", spec.Labels[naming.LabelRole])
	assert.Equal(t, "lambda", spec.Labels[naming.LabelEnvironment])
	assert.Equal(t, "1", spec.Labels[naming.LabelServiceID])
	assert.Contains(t, spec.Mounts, docker.Mount{Source: "/opt/stackify/bin", Target: BinMountPath, ReadOnly: true})
	assert.Contains(t, spec.Mounts, docker.Mount{
		Source:   "/opt/stackify/assets/bitcoin-miner/entrypoint.sh",
		Target:   EntrypointMountPath,
		ReadOnly: true,
	})
	require.Len(t, spec.Ports, 1)
	for port, bindings := range spec.Ports {
		assert.Equal(t, "18443/tcp", string(port))
		assert.Equal(t, "18443", bindings[0].HostPort)
	}
}

func TestRootlessRunsAsRoot(t *testing.T) {
	rt := dockertest.New()
	rt.Rootless = true
	st := newMemStore()
	svc := bitcoinService(1, "mu-bitcoin-follower-0001", domain.ServiceTypeBitcoinFollower)
	env := st.addEnvironment("mu", svc)
	o := newTestOrchestrator(rt, st, nil)

	_, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)
	spec, _ := rt.Spec(svc.Name)
	assert.Equal(t, "0:0", spec.User)
	assert.Contains(t, spec.Env, "BITCOIN_MINER=false")
}

func TestFileOverridesReplaceDefaults(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	svc := bitcoinService(1, "nu-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner)
	env := st.addEnvironment("nu", svc)
	st.overrides[svc.ID] = []domain.ServiceFile{{
		ServiceFileHeader: domain.ServiceFileHeader{Name: "bitcoin.conf", Destination: bitcoinConf, Template: true},
		Content:           []byte("rpcuser={{ index .Params \"rpc_username\" }}\n"),
	}}
	st.files[domain.ServiceTypeBitcoinMiner] = append(st.files[domain.ServiceTypeBitcoinMiner], domain.ServiceFile{
		ServiceFileHeader: domain.ServiceFileHeader{Name: "raw.txt", Destination: "/etc/raw.txt"},
		Content:           []byte("{{ not rendered }}"),
	})
	o := newTestOrchestrator(rt, st, nil)

	_, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)

	conf, _ := rt.File(svc.Name, bitcoinConf)
	assert.Equal(t, "rpcuser=stackify\n", string(conf))
	raw, _ := rt.File(svc.Name, "/etc/raw.txt")
	assert.Equal(t, "{{ not rendered }}", string(raw))
}

func TestBrokenTemplateFailsOnlyThatService(t *testing.T) {
	rt := dockertest.New()
	st := newMemStore()
	svc := bitcoinService(1, "xi-bitcoin-miner-0001", domain.ServiceTypeBitcoinMiner)
	env := st.addEnvironment("xi", svc)
	st.overrides[svc.ID] = []domain.ServiceFile{{
		ServiceFileHeader: domain.ServiceFileHeader{Name: "bitcoin.conf", Destination: bitcoinConf, Template: true},
		Content:           []byte("{{ .Missing"),
	}}
	o := newTestOrchestrator(rt, st, nil)

	result, err := o.Start(context.Background(), env, StartOptions{})
	require.NoError(t, err)
	require.Len(t, result.Failed(), 1)
	assert.Empty(t, rt.CallsTo(svc.Name), "nothing is created for a service whose files cannot render")
}

func TestRenderFile(t *testing.T) {
	data := TemplateData{
		Environment: "alpha",
		Service:     "alpha-stacks-miner-0001",
		Version:     "2.5",
		Peers:       []string{"a", "b"},
		Params:      map[string]string{"mining_key": "k"},
	}
	out, err := RenderFile("t", []byte(`{{ .Environment }} {{ join .Peers "," }} {{ index .Params "mining_key" }} {{ index .Params "absent" }}.`), data)
	require.NoError(t, err)
	assert.Equal(t, "alpha a,b k .", string(out))
}

func TestPrefixWriter(t *testing.T) {
	var buf bytes.Buffer
	pw := &prefixWriter{prefix: "svc | ", out: &buf}
	_, err := pw.Write([]byte("one\ntw"))
	require.NoError(t, err)
	_, err = pw.Write([]byte("o\nthree"))
	require.NoError(t, err)
	require.NoError(t, pw.Flush())
	assert.Equal(t, "svc | one\nsvc | two\nsvc | three\n", buf.String())
	assert.NoError(t, pw.Flush())
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestPrefixWriterFlushReportsWriteError(t *testing.T) {
	closed := errors.New("broken pipe")
	pw := &prefixWriter{prefix: "svc | ", out: failingWriter{err: closed}}
	_, err := pw.Write([]byte("partial"))
	require.NoError(t, err)
	assert.ErrorIs(t, pw.Flush(), closed)
}
