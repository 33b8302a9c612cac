package store

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/stackify/cli/internal/catalog"
	"github.com/stackify/cli/internal/domain"
)

// ServiceTypeInfo is the catalog entry of one service type.
type ServiceTypeInfo struct {
	Type     domain.ServiceType         `json:"type" yaml:"type"`
	Versions []domain.ServiceVersion    `json:"versions" yaml:"versions"`
	Params   []domain.ServiceTypeParam  `json:"params,omitempty" yaml:"params,omitempty"`
	Files    []domain.ServiceFileHeader `json:"files,omitempty" yaml:"files,omitempty"`
}

// Seed loads c into an empty store. It reports whether anything was written;
// a store that was seeded before is left untouched.
func (s *Store) Seed(ctx context.Context, c *catalog.Catalog) (bool, error) {
	seeded := false
	err := s.update(ctx, func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta.Get(seededKey) != nil {
			return nil
		}

		epochIDs := map[string]int64{}
		for _, e := range c.Epochs {
			ep, err := insertEpoch(tx, e.Name, e.Height)
			if err != nil {
				return err
			}
			epochIDs[e.Name] = ep.ID
		}

		types := tx.Bucket(serviceTypesBucket)
		versions := tx.Bucket(versionsBucket)
		files := tx.Bucket(typeFilesBucket)
		for _, def := range c.ServiceTypes {
			typeID := def.Type.StoreValue()
			if err := putJSON(types, itob(int64(typeID)), serviceTypeRecord{TypeID: typeID, Params: def.Params}); err != nil {
				return err
			}
			for _, v := range def.Versions {
				id, err := nextID(versions)
				if err != nil {
					return err
				}
				rec := versionRecord{
					ID:         id,
					TypeID:     typeID,
					Version:    v.Version,
					GitTarget:  v.GitTarget,
					MinEpochID: epochIDs[v.MinEpoch],
					MaxEpochID: epochIDs[v.MaxEpoch],
				}
				if err := putJSON(versions, itob(id), rec); err != nil {
					return err
				}
			}
			for _, f := range def.Files {
				rec := typeFileRecord{
					TypeID:      typeID,
					Name:        f.Name,
					Destination: f.Destination,
					Template:    f.Template,
					Content:     f.Content,
				}
				if err := putJSON(files, childKey(int64(typeID), f.Name), rec); err != nil {
					return err
				}
			}
		}

		seeded = true
		return meta.Put(seededKey, []byte("1"))
	})
	if err != nil {
		return false, fmt.Errorf("seed catalog: %w", err)
	}
	return seeded, nil
}

// ListServiceTypes returns every catalogued service type in declaration order.
func (s *Store) ListServiceTypes(ctx context.Context) ([]ServiceTypeInfo, error) {
	var out []ServiceTypeInfo
	err := s.view(ctx, func(tx *bolt.Tx) error {
		for _, t := range domain.AllServiceTypes() {
			var rec serviceTypeRecord
			ok, err := getJSON(tx.Bucket(serviceTypesBucket), itob(int64(t.StoreValue())), &rec)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			versions, err := listVersions(tx, t)
			if err != nil {
				return err
			}
			files, err := listTypeFiles(tx, t)
			if err != nil {
				return err
			}
			info := ServiceTypeInfo{Type: t, Versions: versions, Params: rec.Params}
			for _, f := range files {
				info.Files = append(info.Files, f.ServiceFileHeader)
			}
			out = append(out, info)
		}
		return nil
	})
	return out, err
}

// ListServiceVersions returns the versions of t, oldest first.
func (s *Store) ListServiceVersions(ctx context.Context, t domain.ServiceType) ([]domain.ServiceVersion, error) {
	var out []domain.ServiceVersion
	err := s.view(ctx, func(tx *bolt.Tx) error {
		var err error
		out, err = listVersions(tx, t)
		return err
	})
	return out, err
}

// ListServiceTypeFiles returns the default files of t.
func (s *Store) ListServiceTypeFiles(ctx context.Context, t domain.ServiceType) ([]domain.ServiceFile, error) {
	var out []domain.ServiceFile
	err := s.view(ctx, func(tx *bolt.Tx) error {
		var err error
		out, err = listTypeFiles(tx, t)
		return err
	})
	return out, err
}

func listTypeFiles(tx *bolt.Tx, t domain.ServiceType) ([]domain.ServiceFile, error) {
	var out []domain.ServiceFile
	prefix := append(itob(int64(t.StoreValue())), '/')
	err := forEachPrefix(tx.Bucket(typeFilesBucket), prefix, func(rec typeFileRecord) error {
		out = append(out, domain.ServiceFile{
			ServiceFileHeader: domain.ServiceFileHeader{
				Name:        rec.Name,
				Destination: rec.Destination,
				Template:    rec.Template,
			},
			Content: rec.Content,
		})
		return nil
	})
	return out, err
}

func listVersions(tx *bolt.Tx, t domain.ServiceType) ([]domain.ServiceVersion, error) {
	var out []domain.ServiceVersion
	err := forEach(tx.Bucket(versionsBucket), func(rec versionRecord) error {
		if rec.TypeID != t.StoreValue() {
			return nil
		}
		v, err := toVersion(tx, rec)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	domain.SortVersions(out)
	return out, err
}

func getVersion(tx *bolt.Tx, id int64) (domain.ServiceVersion, bool, error) {
	var rec versionRecord
	ok, err := getJSON(tx.Bucket(versionsBucket), itob(id), &rec)
	if err != nil || !ok {
		return domain.ServiceVersion{}, ok, err
	}
	v, err := toVersion(tx, rec)
	return v, true, err
}

func toVersion(tx *bolt.Tx, rec versionRecord) (domain.ServiceVersion, error) {
	t, err := domain.ServiceTypeFromStore(rec.TypeID)
	if err != nil {
		return domain.ServiceVersion{}, err
	}
	v := domain.ServiceVersion{ID: rec.ID, Type: t, Version: rec.Version, GitTarget: rec.GitTarget}
	if rec.MinEpochID != 0 {
		ep, ok, err := getEpoch(tx, rec.MinEpochID)
		if err != nil {
			return v, err
		}
		if ok {
			v.MinEpoch = &ep
		}
	}
	if rec.MaxEpochID != 0 {
		ep, ok, err := getEpoch(tx, rec.MaxEpochID)
		if err != nil {
			return v, err
		}
		if ok {
			v.MaxEpoch = &ep
		}
	}
	return v, nil
}

func getTypeRecord(tx *bolt.Tx, t domain.ServiceType) (serviceTypeRecord, error) {
	var rec serviceTypeRecord
	ok, err := getJSON(tx.Bucket(serviceTypesBucket), itob(int64(t.StoreValue())), &rec)
	if err != nil {
		return rec, err
	}
	if !ok {
		return serviceTypeRecord{TypeID: t.StoreValue()}, nil
	}
	return rec, nil
}
