package domain

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// GitTargetKind identifies what a GitTarget points at.
type GitTargetKind string

const (
	GitTargetTag    GitTargetKind = "tag"
	GitTargetBranch GitTargetKind = "branch"
	GitTargetCommit GitTargetKind = "commit"
)

// GitTarget is the source revision of a source-built service version.
type GitTarget struct {
	Kind   GitTargetKind `json:"kind" yaml:"kind"`
	Target string        `json:"target" yaml:"target"`
}

func (g GitTarget) String() string {
	return fmt.Sprintf("%s:%s", g.Kind, g.Target)
}

// ServiceVersion is a runnable version of a service type.
type ServiceVersion struct {
	ID        int64       `json:"id" yaml:"id"`
	Type      ServiceType `json:"type" yaml:"type"`
	Version   string      `json:"version" yaml:"version"`
	GitTarget *GitTarget  `json:"git_target,omitempty" yaml:"git_target,omitempty"`
	MinEpoch  *Epoch      `json:"min_epoch,omitempty" yaml:"min_epoch,omitempty"`
	MaxEpoch  *Epoch      `json:"max_epoch,omitempty" yaml:"max_epoch,omitempty"`
}

// Less orders versions semantically when both parse, otherwise lexically.
func (v ServiceVersion) Less(other ServiceVersion) bool {
	a, errA := semver.NewVersion(v.Version)
	b, errB := semver.NewVersion(other.Version)
	if errA == nil && errB == nil {
		return a.LessThan(b)
	}
	return v.Version < other.Version
}

// SortVersions sorts versions ascending in place.
func SortVersions(versions []ServiceVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
}
