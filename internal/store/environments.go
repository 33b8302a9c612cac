package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/stackify/cli/internal/domain"
)

// EnvironmentSummary is a listing row.
type EnvironmentSummary struct {
	Name         string    `json:"name" yaml:"name"`
	ServiceCount int       `json:"service_count" yaml:"service_count"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// CreateEnvironment records a new environment whose timeline binds every
// known epoch at its default height.
func (s *Store) CreateEnvironment(ctx context.Context, name domain.EnvironmentName) (*domain.Environment, error) {
	var rec environmentRecord
	err := s.update(ctx, func(tx *bolt.Tx) error {
		if _, ok, err := findEnvironment(tx, name); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: %s", ErrEnvironmentExists, name)
		}

		b := tx.Bucket(environmentsBucket)
		id, err := nextID(b)
		if err != nil {
			return err
		}
		rec = environmentRecord{ID: id, Name: name.String(), CreatedAt: time.Now().UTC()}

		err = forEach(tx.Bucket(epochsBucket), func(e domain.Epoch) error {
			rec.Epochs = append(rec.Epochs, environmentEpoch{
				ID:             int64(len(rec.Epochs) + 1),
				EpochID:        e.ID,
				StartsAtHeight: e.DefaultBlockHeight,
			})
			return nil
		})
		if err != nil {
			return err
		}
		return putJSON(b, itob(id), rec)
	})
	if err != nil {
		return nil, err
	}
	return s.InspectEnvironment(ctx, name)
}

// ListEnvironments returns a summary of every environment, sorted by name.
func (s *Store) ListEnvironments(ctx context.Context) ([]EnvironmentSummary, error) {
	var out []EnvironmentSummary
	err := s.view(ctx, func(tx *bolt.Tx) error {
		counts := map[int64]int{}
		err := forEach(tx.Bucket(servicesBucket), func(rec serviceRecord) error {
			counts[rec.EnvironmentID]++
			return nil
		})
		if err != nil {
			return err
		}
		return forEach(tx.Bucket(environmentsBucket), func(rec environmentRecord) error {
			out = append(out, EnvironmentSummary{
				Name:         rec.Name,
				ServiceCount: counts[rec.ID],
				CreatedAt:    rec.CreatedAt,
			})
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// LoadEnvironment reads the full environment and validates it for start:
// every service must resolve its version, fall inside the timeline and
// carry a value for each required parameter.
func (s *Store) LoadEnvironment(ctx context.Context, name domain.EnvironmentName) (*domain.Environment, error) {
	var env *domain.Environment
	err := s.view(ctx, func(tx *bolt.Tx) error {
		rec, ok, err := findEnvironment(tx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
		}
		env, err = toEnvironment(tx, name, rec, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// InspectEnvironment reads the environment without validating it, so that
// incomplete configurations can still be shown and edited.
func (s *Store) InspectEnvironment(ctx context.Context, name domain.EnvironmentName) (*domain.Environment, error) {
	var env *domain.Environment
	err := s.view(ctx, func(tx *bolt.Tx) error {
		rec, ok, err := findEnvironment(tx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
		}
		env, err = toEnvironment(tx, name, rec, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// DeleteEnvironment removes the environment record, its services and their
// file overrides.
func (s *Store) DeleteEnvironment(ctx context.Context, name domain.EnvironmentName) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		rec, ok, err := findEnvironment(tx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
		}
		services, err := environmentServices(tx, rec.ID)
		if err != nil {
			return err
		}
		for _, svc := range services {
			if err := deleteService(tx, svc.ID); err != nil {
				return err
			}
		}
		return tx.Bucket(environmentsBucket).Delete(itob(rec.ID))
	})
}

// AddKeychain appends an account record to the environment.
func (s *Store) AddKeychain(ctx context.Context, name domain.EnvironmentName, kc domain.Keychain) (domain.Keychain, error) {
	err := s.update(ctx, func(tx *bolt.Tx) error {
		rec, ok, err := findEnvironment(tx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
		}
		var maxID int64
		for _, existing := range rec.Keychains {
			if existing.Name == kc.Name {
				return fmt.Errorf("keychain %q already exists in %s", kc.Name, name)
			}
			maxID = max(maxID, existing.ID)
		}
		kc.ID = maxID + 1
		rec.Keychains = append(rec.Keychains, kc)
		return putJSON(tx.Bucket(environmentsBucket), itob(rec.ID), rec)
	})
	return kc, err
}

// SetEnvironmentEpoch moves the starting height of epoch within the
// environment's timeline, adding the binding if it is missing.
func (s *Store) SetEnvironmentEpoch(ctx context.Context, name domain.EnvironmentName, epoch string, height uint64) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		rec, ok, err := findEnvironment(tx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
		}
		ep, ok, err := findEpoch(tx, epoch)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEpochNotFound, epoch)
		}

		found := false
		var maxID int64
		for i := range rec.Epochs {
			maxID = max(maxID, rec.Epochs[i].ID)
			if rec.Epochs[i].EpochID == ep.ID {
				rec.Epochs[i].StartsAtHeight = height
				found = true
			}
		}
		if !found {
			rec.Epochs = append(rec.Epochs, environmentEpoch{ID: maxID + 1, EpochID: ep.ID, StartsAtHeight: height})
		}
		return putJSON(tx.Bucket(environmentsBucket), itob(rec.ID), rec)
	})
}

func findEnvironment(tx *bolt.Tx, name domain.EnvironmentName) (environmentRecord, bool, error) {
	var found environmentRecord
	ok := false
	err := forEach(tx.Bucket(environmentsBucket), func(rec environmentRecord) error {
		if rec.Name == name.String() {
			found, ok = rec, true
		}
		return nil
	})
	return found, ok, err
}

func environmentServices(tx *bolt.Tx, envID int64) ([]serviceRecord, error) {
	var out []serviceRecord
	err := forEach(tx.Bucket(servicesBucket), func(rec serviceRecord) error {
		if rec.EnvironmentID == envID {
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func toEnvironment(tx *bolt.Tx, name domain.EnvironmentName, rec environmentRecord, strict bool) (*domain.Environment, error) {
	env := &domain.Environment{
		ID:        rec.ID,
		Name:      name,
		Keychains: rec.Keychains,
		CreatedAt: rec.CreatedAt,
	}

	for _, ee := range rec.Epochs {
		ep, ok, err := getEpoch(tx, ee.EpochID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		env.Epochs = append(env.Epochs, domain.EnvironmentEpoch{ID: ee.ID, Epoch: ep, StartsAtHeight: ee.StartsAtHeight})
	}
	sort.SliceStable(env.Epochs, func(i, j int) bool {
		return env.Epochs[i].StartsAtHeight < env.Epochs[j].StartsAtHeight
	})

	services, err := environmentServices(tx, rec.ID)
	if err != nil {
		return nil, err
	}
	for _, sr := range services {
		svc, err := toService(tx, env, sr, strict)
		if err != nil {
			return nil, err
		}
		env.Services = append(env.Services, svc)
	}
	return env, nil
}

func toService(tx *bolt.Tx, env *domain.Environment, rec serviceRecord, strict bool) (domain.EnvironmentService, error) {
	t, err := domain.ServiceTypeFromStore(rec.TypeID)
	if err != nil {
		return domain.EnvironmentService{}, err
	}
	svc := domain.EnvironmentService{
		ID:     rec.ID,
		Type:   t,
		Name:   rec.Name,
		Remark: rec.Remark,
		Ports:  rec.Ports,
	}

	version, ok, err := getVersion(tx, rec.VersionID)
	if err != nil {
		return svc, err
	}
	if (!ok || version.Type != t) && strict {
		return svc, &MissingEpochOrVersionConstraintError{
			Environment: env.Name.String(),
			Service:     rec.Name,
			Reason:      fmt.Sprintf("version %d is not a known %s version", rec.VersionID, t.CLIName()),
		}
	}
	for _, bound := range []*domain.Epoch{version.MinEpoch, version.MaxEpoch} {
		if strict && bound != nil && !env.HasEpoch(bound.ID) {
			return svc, &MissingEpochOrVersionConstraintError{
				Environment: env.Name.String(),
				Service:     rec.Name,
				Reason:      fmt.Sprintf("version %s requires epoch %s which is not in the timeline", version.Version, bound.Name),
			}
		}
	}
	svc.Version = version

	typeRec, err := getTypeRecord(tx, t)
	if err != nil {
		return svc, err
	}
	set := map[string]string{}
	for _, p := range rec.Params {
		set[p.Key] = p.Value
	}
	for _, decl := range typeRec.Params {
		value, ok := set[decl.Key]
		if !ok {
			value = decl.Default
		}
		if strict && decl.Required && value == "" {
			return svc, &MissingRequiredParameterError{
				Environment: env.Name.String(),
				Service:     rec.Name,
				Param:       decl.Key,
			}
		}
		svc.Params = append(svc.Params, domain.ServiceParam{Key: decl.Key, Value: value})
	}

	files, err := listTypeFiles(tx, t)
	if err != nil {
		return svc, err
	}
	for _, f := range files {
		svc.Files = append(svc.Files, f.ServiceFileHeader)
	}
	return svc, nil
}
