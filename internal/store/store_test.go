package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/stackify/cli/internal/catalog"
	"github.com/stackify/cli/internal/domain"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stackify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c, err := catalog.Default()
	require.NoError(t, err)
	seeded, err := s.Seed(context.Background(), c)
	require.NoError(t, err)
	require.True(t, seeded)
	return s
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	c, err := catalog.Default()
	require.NoError(t, err)
	seeded, err := s.Seed(ctx, c)
	require.NoError(t, err)
	assert.False(t, seeded)

	epochs, err := s.ListEpochs(ctx)
	require.NoError(t, err)
	assert.Len(t, epochs, len(c.Epochs))
	for i := 1; i < len(epochs); i++ {
		assert.LessOrEqual(t, epochs[i-1].DefaultBlockHeight, epochs[i].DefaultBlockHeight)
	}
}

func TestListServiceTypes(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	types, err := s.ListServiceTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, len(domain.AllServiceTypes()))
	assert.Equal(t, domain.ServiceTypeBitcoinMiner, types[0].Type)

	versions, err := s.ListServiceVersions(ctx, domain.ServiceTypeBitcoinMiner)
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "25.2", versions[0].Version)

	stacks, err := s.ListServiceVersions(ctx, domain.ServiceTypeStacksMiner)
	require.NoError(t, err)
	for _, v := range stacks {
		require.NotNil(t, v.GitTarget)
		require.NotNil(t, v.MinEpoch)
	}

	files, err := s.ListServiceTypeFiles(ctx, domain.ServiceTypeBitcoinFollower)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "bitcoin.conf", files[0].Name)
	assert.NotEmpty(t, files[0].Content)
}

func TestEnvironmentLifecycle(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	name := domain.MustEnvironmentName("alpha")

	env, err := s.CreateEnvironment(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name, env.Name)
	assert.NotEmpty(t, env.Epochs)
	assert.Empty(t, env.Services)

	_, err = s.CreateEnvironment(ctx, name)
	assert.ErrorIs(t, err, ErrEnvironmentExists)

	miner, err := s.AddService(ctx, name, AddServiceRequest{Type: domain.ServiceTypeBitcoinMiner, Version: "26.2"})
	require.NoError(t, err)
	assert.Regexp(t, `^alpha-bitcoin-miner-[0-9a-f]{4}$`, miner.Name)
	_, err = s.AddService(ctx, name, AddServiceRequest{Type: domain.ServiceTypeBitcoinFollower, Version: "26.2", Remark: "follower"})
	require.NoError(t, err)

	env, err = s.LoadEnvironment(ctx, name)
	require.NoError(t, err)
	require.Len(t, env.Services, 2)
	assert.Equal(t, miner.Name, env.Services[0].Name)
	value, ok := env.Services[0].Param("rpc_username")
	assert.True(t, ok)
	assert.Equal(t, "stackify", value)
	require.Len(t, env.Services[0].Files, 1)

	require.NoError(t, s.SetServiceParam(ctx, name, miner.Name, "rpc_username", "alice"))
	env, err = s.LoadEnvironment(ctx, name)
	require.NoError(t, err)
	value, _ = env.Services[0].Param("rpc_username")
	assert.Equal(t, "alice", value)

	list, err := s.ListEnvironments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ServiceCount)

	require.NoError(t, s.RemoveService(ctx, name, miner.Name))
	env, err = s.LoadEnvironment(ctx, name)
	require.NoError(t, err)
	assert.Len(t, env.Services, 1)

	require.NoError(t, s.DeleteEnvironment(ctx, name))
	_, err = s.LoadEnvironment(ctx, name)
	assert.ErrorIs(t, err, ErrEnvironmentNotFound)
	assert.ErrorIs(t, s.DeleteEnvironment(ctx, name), ErrEnvironmentNotFound)
}

func TestAddServiceUnknownVersion(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	name := domain.MustEnvironmentName("beta")
	_, err := s.CreateEnvironment(ctx, name)
	require.NoError(t, err)

	_, err = s.AddService(ctx, name, AddServiceRequest{Type: domain.ServiceTypeBitcoinMiner, Version: "0.1"})
	assert.ErrorIs(t, err, ErrVersionNotFound)

	_, err = s.AddService(ctx, domain.MustEnvironmentName("missing"), AddServiceRequest{Type: domain.ServiceTypeBitcoinMiner, Version: "26.2"})
	assert.ErrorIs(t, err, ErrEnvironmentNotFound)
}

func TestLoadEnvironmentMissingRequiredParameter(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	name := domain.MustEnvironmentName("gamma")
	_, err := s.CreateEnvironment(ctx, name)
	require.NoError(t, err)
	svc, err := s.AddService(ctx, name, AddServiceRequest{Type: domain.ServiceTypeStacksMiner, Version: "2.5.0.0.7"})
	require.NoError(t, err)

	_, err = s.LoadEnvironment(ctx, name)
	var missing *MissingRequiredParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "mining_key", missing.Param)
	assert.Equal(t, svc.Name, missing.Service)

	env, err := s.InspectEnvironment(ctx, name)
	require.NoError(t, err)
	assert.Len(t, env.Services, 1)

	require.NoError(t, s.SetServiceParam(ctx, name, svc.Name, "mining_key", "abcd"))
	_, err = s.LoadEnvironment(ctx, name)
	assert.NoError(t, err)

	err = s.SetServiceParam(ctx, name, svc.Name, "nope", "1")
	assert.ErrorIs(t, err, ErrUnknownParam)
}

func TestLoadEnvironmentEpochConstraint(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	name := domain.MustEnvironmentName("delta")
	_, err := s.CreateEnvironment(ctx, name)
	require.NoError(t, err)
	svc, err := s.AddService(ctx, name, AddServiceRequest{Type: domain.ServiceTypeStacksFollower, Version: "2.5.0.0.7"})
	require.NoError(t, err)

	// Drop every epoch binding from the timeline.
	err = s.db.Update(func(tx *bolt.Tx) error {
		rec, _, err := findEnvironment(tx, name)
		require.NoError(t, err)
		rec.Epochs = nil
		return putJSON(tx.Bucket(environmentsBucket), itob(rec.ID), rec)
	})
	require.NoError(t, err)

	_, err = s.LoadEnvironment(ctx, name)
	var constraint *MissingEpochOrVersionConstraintError
	require.ErrorAs(t, err, &constraint)
	assert.Equal(t, svc.Name, constraint.Service)
	assert.Contains(t, constraint.Reason, "2.5")
}

func TestServiceFileOverrides(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	name := domain.MustEnvironmentName("epsilon")
	_, err := s.CreateEnvironment(ctx, name)
	require.NoError(t, err)
	svc, err := s.AddService(ctx, name, AddServiceRequest{Type: domain.ServiceTypeBitcoinMiner, Version: "27.1"})
	require.NoError(t, err)

	err = s.SetServiceFile(ctx, name, svc.Name, "unknown.conf", []byte("x"))
	assert.ErrorIs(t, err, ErrUnknownFile)

	require.NoError(t, s.SetServiceFile(ctx, name, svc.Name, "bitcoin.conf", []byte("regtest=1\n")))
	require.NoError(t, s.SetServiceFile(ctx, name, svc.Name, "bitcoin.conf", []byte("regtest=1\nserver=1\n")))

	overrides, err := s.ListServiceFileOverrides(ctx, svc.ID)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "/home/stackify/.bitcoin/bitcoin.conf", overrides[0].Destination)
	assert.True(t, overrides[0].Template)
	assert.Equal(t, "regtest=1\nserver=1\n", string(overrides[0].Content))

	require.NoError(t, s.RemoveService(ctx, name, svc.Name))
	_, err = s.ListServiceFileOverrides(ctx, svc.ID)
	assert.ErrorIs(t, err, ErrServiceNotFound)
	err = s.db.View(func(tx *bolt.Tx) error {
		assert.Nil(t, tx.Bucket(overridesBucket).Get(childKey(svc.ID, "bitcoin.conf")))
		return nil
	})
	require.NoError(t, err)
}

func TestEpochsAndKeychains(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	name := domain.MustEnvironmentName("zeta")
	_, err := s.CreateEnvironment(ctx, name)
	require.NoError(t, err)

	_, err = s.InsertEpoch(ctx, "2.0", 5)
	assert.ErrorIs(t, err, ErrEpochExists)
	ep, err := s.InsertEpoch(ctx, "3.1", 200)
	require.NoError(t, err)
	assert.Equal(t, "3.1", ep.Name)

	require.NoError(t, s.SetEnvironmentEpoch(ctx, name, "3.1", 250))
	require.NoError(t, s.SetEnvironmentEpoch(ctx, name, "2.05", 90))
	assert.ErrorIs(t, s.SetEnvironmentEpoch(ctx, name, "9.9", 1), ErrEpochNotFound)

	env, err := s.InspectEnvironment(ctx, name)
	require.NoError(t, err)
	last := env.Epochs[len(env.Epochs)-1]
	assert.Equal(t, "3.1", last.Epoch.Name)
	assert.Equal(t, uint64(250), last.StartsAtHeight)
	assert.True(t, env.HasEpoch(ep.ID))

	kc, err := s.AddKeychain(ctx, name, domain.Keychain{Name: "faucet", StxAddress: "ST1", Balance: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(1), kc.ID)
	_, err = s.AddKeychain(ctx, name, domain.Keychain{Name: "faucet"})
	assert.Error(t, err)

	env, err = s.InspectEnvironment(ctx, name)
	require.NoError(t, err)
	require.Len(t, env.Keychains, 1)
	assert.Equal(t, "ST1", env.Keychains[0].StxAddress)
}

func TestCanceledContext(t *testing.T) {
	s := newSeededStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ListEnvironments(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
