package store

import (
	"time"

	"github.com/stackify/cli/internal/domain"
)

// Records are what is persisted. Service types are stored as integers and
// converted with domain.ServiceTypeFromStore on the way out.

type environmentRecord struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Epochs    []environmentEpoch `json:"epochs"`
	Keychains []domain.Keychain  `json:"keychains"`
	CreatedAt time.Time          `json:"created_at"`
}

type environmentEpoch struct {
	ID             int64  `json:"id"`
	EpochID        int64  `json:"epoch_id"`
	StartsAtHeight uint64 `json:"starts_at_height"`
}

type serviceRecord struct {
	ID            int64                 `json:"id"`
	EnvironmentID int64                 `json:"environment_id"`
	TypeID        int                   `json:"type_id"`
	VersionID     int64                 `json:"version_id"`
	Name          string                `json:"name"`
	Remark        string                `json:"remark,omitempty"`
	Params        []domain.ServiceParam `json:"params,omitempty"`
	Ports         []domain.PortMapping  `json:"ports,omitempty"`
}

type serviceTypeRecord struct {
	TypeID int                       `json:"type_id"`
	Params []domain.ServiceTypeParam `json:"params,omitempty"`
}

type versionRecord struct {
	ID         int64             `json:"id"`
	TypeID     int               `json:"type_id"`
	Version    string            `json:"version"`
	GitTarget  *domain.GitTarget `json:"git_target,omitempty"`
	MinEpochID int64             `json:"min_epoch_id,omitempty"`
	MaxEpochID int64             `json:"max_epoch_id,omitempty"`
}

type typeFileRecord struct {
	TypeID      int    `json:"type_id"`
	Name        string `json:"name"`
	Destination string `json:"destination"`
	Template    bool   `json:"template"`
	Content     []byte `json:"content"`
}

type overrideRecord struct {
	ServiceID int64  `json:"service_id"`
	Name      string `json:"name"`
	Content   []byte `json:"content"`
}
