package store

import (
	"bytes"
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/stackify/cli/internal/domain"
)

// AddServiceRequest describes a service to add to an environment.
type AddServiceRequest struct {
	Type    domain.ServiceType
	Version string
	Remark  string
	Ports   []domain.PortMapping
}

// AddService records a new service instance and generates its unique name.
func (s *Store) AddService(ctx context.Context, env domain.EnvironmentName, req AddServiceRequest) (domain.EnvironmentService, error) {
	var svc domain.EnvironmentService
	err := s.update(ctx, func(tx *bolt.Tx) error {
		envRec, ok, err := findEnvironment(tx, env)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, env)
		}

		versions, err := listVersions(tx, req.Type)
		if err != nil {
			return err
		}
		var version *domain.ServiceVersion
		for i := range versions {
			if versions[i].Version == req.Version {
				version = &versions[i]
			}
		}
		if version == nil {
			return fmt.Errorf("%w: %s %s", ErrVersionNotFound, req.Type.CLIName(), req.Version)
		}

		existing, err := environmentServices(tx, envRec.ID)
		if err != nil {
			return err
		}
		name := domain.NewServiceName(env, req.Type)
		for nameTaken(existing, name) {
			name = domain.NewServiceName(env, req.Type)
		}

		b := tx.Bucket(servicesBucket)
		id, err := nextID(b)
		if err != nil {
			return err
		}
		rec := serviceRecord{
			ID:            id,
			EnvironmentID: envRec.ID,
			TypeID:        req.Type.StoreValue(),
			VersionID:     version.ID,
			Name:          name,
			Remark:        req.Remark,
			Ports:         req.Ports,
		}
		if err := putJSON(b, itob(id), rec); err != nil {
			return err
		}
		svc = domain.EnvironmentService{
			ID:      id,
			Type:    req.Type,
			Version: *version,
			Name:    name,
			Remark:  req.Remark,
			Ports:   req.Ports,
		}
		return nil
	})
	return svc, err
}

// RemoveService deletes a service and its file overrides.
func (s *Store) RemoveService(ctx context.Context, env domain.EnvironmentName, service string) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		rec, err := findService(tx, env, service)
		if err != nil {
			return err
		}
		return deleteService(tx, rec.ID)
	})
}

// SetServiceParam sets a parameter declared by the service's type.
func (s *Store) SetServiceParam(ctx context.Context, env domain.EnvironmentName, service, key, value string) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		rec, err := findService(tx, env, service)
		if err != nil {
			return err
		}
		t, err := domain.ServiceTypeFromStore(rec.TypeID)
		if err != nil {
			return err
		}
		typeRec, err := getTypeRecord(tx, t)
		if err != nil {
			return err
		}
		declared := false
		for _, p := range typeRec.Params {
			declared = declared || p.Key == key
		}
		if !declared {
			return fmt.Errorf("%w %q for %s", ErrUnknownParam, key, t.CLIName())
		}

		replaced := false
		for i := range rec.Params {
			if rec.Params[i].Key == key {
				rec.Params[i].Value = value
				replaced = true
			}
		}
		if !replaced {
			rec.Params = append(rec.Params, domain.ServiceParam{Key: key, Value: value})
		}
		return putJSON(tx.Bucket(servicesBucket), itob(rec.ID), rec)
	})
}

// SetServiceFile stores an environment-specific override for one of the
// service type's files.
func (s *Store) SetServiceFile(ctx context.Context, env domain.EnvironmentName, service, file string, content []byte) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		rec, err := findService(tx, env, service)
		if err != nil {
			return err
		}
		t, err := domain.ServiceTypeFromStore(rec.TypeID)
		if err != nil {
			return err
		}
		if tx.Bucket(typeFilesBucket).Get(childKey(int64(t.StoreValue()), file)) == nil {
			return fmt.Errorf("%w %q for %s", ErrUnknownFile, file, t.CLIName())
		}
		override := overrideRecord{ServiceID: rec.ID, Name: file, Content: content}
		return putJSON(tx.Bucket(overridesBucket), childKey(rec.ID, file), override)
	})
}

// ListServiceFileOverrides returns the overrides of one service. Headers are
// taken from the matching service-type file.
func (s *Store) ListServiceFileOverrides(ctx context.Context, serviceID int64) ([]domain.ServiceFile, error) {
	var out []domain.ServiceFile
	err := s.view(ctx, func(tx *bolt.Tx) error {
		var rec serviceRecord
		ok, err := getJSON(tx.Bucket(servicesBucket), itob(serviceID), &rec)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: id %d", ErrServiceNotFound, serviceID)
		}
		prefix := append(itob(serviceID), '/')
		return forEachPrefix(tx.Bucket(overridesBucket), prefix, func(o overrideRecord) error {
			var header typeFileRecord
			if _, err := getJSON(tx.Bucket(typeFilesBucket), childKey(int64(rec.TypeID), o.Name), &header); err != nil {
				return err
			}
			out = append(out, domain.ServiceFile{
				ServiceFileHeader: domain.ServiceFileHeader{
					Name:        o.Name,
					Destination: header.Destination,
					Template:    header.Template,
				},
				Content: o.Content,
			})
			return nil
		})
	})
	return out, err
}

func findService(tx *bolt.Tx, env domain.EnvironmentName, service string) (serviceRecord, error) {
	envRec, ok, err := findEnvironment(tx, env)
	if err != nil {
		return serviceRecord{}, err
	}
	if !ok {
		return serviceRecord{}, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, env)
	}
	services, err := environmentServices(tx, envRec.ID)
	if err != nil {
		return serviceRecord{}, err
	}
	for _, rec := range services {
		if rec.Name == service {
			return rec, nil
		}
	}
	return serviceRecord{}, fmt.Errorf("%w: %s in %s", ErrServiceNotFound, service, env)
}

func deleteService(tx *bolt.Tx, id int64) error {
	overrides := tx.Bucket(overridesBucket)
	prefix := append(itob(id), '/')
	var keys [][]byte
	c := overrides.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := overrides.Delete(k); err != nil {
			return err
		}
	}
	return tx.Bucket(servicesBucket).Delete(itob(id))
}

func nameTaken(services []serviceRecord, name string) bool {
	for _, s := range services {
		if s.Name == name {
			return true
		}
	}
	return false
}
