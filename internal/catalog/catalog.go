// Package catalog holds the built-in service-type catalog that seeds a fresh
// configuration store.
package catalog

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/stackify/cli/internal/domain"
)

//go:embed catalog.yaml templates
var assets embed.FS

// Catalog is the decoded catalog.
type Catalog struct {
	Epochs       []EpochDef       `yaml:"epochs"`
	ServiceTypes []ServiceTypeDef `yaml:"service_types"`
}

// EpochDef declares an epoch and its default starting height.
type EpochDef struct {
	Name   string `yaml:"name"`
	Height uint64 `yaml:"height"`
}

// ServiceTypeDef declares the versions, params and files of a service type.
type ServiceTypeDef struct {
	Type     domain.ServiceType        `yaml:"-"`
	RawType  string                    `yaml:"type"`
	Versions []VersionDef              `yaml:"versions"`
	Params   []domain.ServiceTypeParam `yaml:"params"`
	Files    []FileDef                 `yaml:"files"`
}

// VersionDef declares one version. Epochs are referenced by name.
type VersionDef struct {
	Version   string            `yaml:"version"`
	GitTarget *domain.GitTarget `yaml:"git_target"`
	MinEpoch  string            `yaml:"min_epoch"`
	MaxEpoch  string            `yaml:"max_epoch"`
}

// FileDef declares a default file; Source is a path inside the embedded assets.
type FileDef struct {
	Name        string `yaml:"name"`
	Destination string `yaml:"destination"`
	Template    bool   `yaml:"template"`
	Source      string `yaml:"source"`
	Content     []byte `yaml:"-"`
}

// Header returns the file's header.
func (f FileDef) Header() domain.ServiceFileHeader {
	return domain.ServiceFileHeader{Name: f.Name, Destination: f.Destination, Template: f.Template}
}

// Default decodes the embedded catalog and loads every file source.
func Default() (*Catalog, error) {
	raw, err := assets.ReadFile("catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	return Parse(raw, func(source string) ([]byte, error) {
		return assets.ReadFile(source)
	})
}

// Parse decodes a catalog document, resolving file sources through read.
func Parse(raw []byte, read func(source string) ([]byte, error)) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	epochs := map[string]bool{}
	for _, e := range c.Epochs {
		if epochs[e.Name] {
			return nil, fmt.Errorf("catalog: duplicate epoch %q", e.Name)
		}
		epochs[e.Name] = true
	}

	for i := range c.ServiceTypes {
		def := &c.ServiceTypes[i]
		t, err := domain.ParseServiceType(def.RawType)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		def.Type = t
		for _, v := range def.Versions {
			for _, ref := range []string{v.MinEpoch, v.MaxEpoch} {
				if ref != "" && !epochs[ref] {
					return nil, fmt.Errorf("catalog: %s %s references unknown epoch %q", def.RawType, v.Version, ref)
				}
			}
		}
		for j := range def.Files {
			f := &def.Files[j]
			if f.Source == "" {
				continue
			}
			content, err := read(f.Source)
			if err != nil {
				return nil, fmt.Errorf("catalog: read %s: %w", f.Source, err)
			}
			f.Content = content
		}
	}
	return &c, nil
}
