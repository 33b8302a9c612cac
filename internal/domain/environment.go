package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Epoch is a named segment of the chain timeline.
type Epoch struct {
	ID                 int64  `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	DefaultBlockHeight uint64 `json:"default_block_height" yaml:"default_block_height"`
}

// EnvironmentEpoch binds an epoch to a starting height within one environment.
type EnvironmentEpoch struct {
	ID             int64  `json:"id" yaml:"id"`
	Epoch          Epoch  `json:"epoch" yaml:"epoch"`
	StartsAtHeight uint64 `json:"starts_at_height" yaml:"starts_at_height"`
}

// ServiceTypeParam declares a parameter a service type understands.
type ServiceTypeParam struct {
	Key         string `json:"key" yaml:"key"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ServiceParam is a resolved parameter value for one service instance.
type ServiceParam struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ServiceFileHeader describes a configuration file without its content.
type ServiceFileHeader struct {
	Name        string `json:"name" yaml:"name"`
	Destination string `json:"destination" yaml:"destination"`
	Template    bool   `json:"template" yaml:"template"`
}

// ServiceFile is a file header plus its bytes.
type ServiceFile struct {
	ServiceFileHeader `yaml:",inline"`
	Content           []byte `json:"content" yaml:"-"`
}

// PortMapping publishes a container port on the host.
type PortMapping struct {
	HostPort      uint16 `json:"host_port" yaml:"host_port"`
	ContainerPort uint16 `json:"container_port" yaml:"container_port"`
	Protocol      string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

func (p PortMapping) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	return fmt.Sprintf("%d:%d/%s", p.HostPort, p.ContainerPort, proto)
}

// ParsePortMapping parses "host:container[/protocol]".
func ParsePortMapping(s string) (PortMapping, error) {
	spec, proto, hasProto := strings.Cut(s, "/")
	if hasProto && proto != "tcp" && proto != "udp" {
		return PortMapping{}, fmt.Errorf("invalid port mapping %q: protocol must be tcp or udp", s)
	}
	hostPart, containerPart, ok := strings.Cut(spec, ":")
	if !ok {
		return PortMapping{}, fmt.Errorf("invalid port mapping %q: expected host:container", s)
	}
	host, err := strconv.ParseUint(hostPart, 10, 16)
	if err != nil || host == 0 {
		return PortMapping{}, fmt.Errorf("invalid host port in %q", s)
	}
	container, err := strconv.ParseUint(containerPart, 10, 16)
	if err != nil || container == 0 {
		return PortMapping{}, fmt.Errorf("invalid container port in %q", s)
	}
	return PortMapping{HostPort: uint16(host), ContainerPort: uint16(container), Protocol: proto}, nil
}

// EnvironmentService is one configured service instance.
type EnvironmentService struct {
	ID      int64               `json:"id" yaml:"id"`
	Type    ServiceType         `json:"type" yaml:"type"`
	Version ServiceVersion      `json:"version" yaml:"version"`
	Name    string              `json:"name" yaml:"name"`
	Remark  string              `json:"remark,omitempty" yaml:"remark,omitempty"`
	Files   []ServiceFileHeader `json:"files,omitempty" yaml:"files,omitempty"`
	Params  []ServiceParam      `json:"params,omitempty" yaml:"params,omitempty"`
	Ports   []PortMapping       `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// Param returns the resolved value for key.
func (s EnvironmentService) Param(key string) (string, bool) {
	for _, p := range s.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Keychain is an account record funded at genesis.
type Keychain struct {
	ID         int64  `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	StxAddress string `json:"stx_address,omitempty" yaml:"stx_address,omitempty"`
	BtcAddress string `json:"btc_address,omitempty" yaml:"btc_address,omitempty"`
	Balance    uint64 `json:"balance" yaml:"balance"`
}

// Environment is the full configuration of a named environment.
type Environment struct {
	ID        int64                `json:"id" yaml:"id"`
	Name      EnvironmentName      `json:"-" yaml:"-"`
	Epochs    []EnvironmentEpoch   `json:"epochs" yaml:"epochs"`
	Services  []EnvironmentService `json:"services" yaml:"services"`
	Keychains []Keychain           `json:"keychains" yaml:"keychains"`
	CreatedAt time.Time            `json:"created_at" yaml:"created_at"`
}

// Peers returns the names of the other services in svc's family.
func (e *Environment) Peers(svc EnvironmentService) []string {
	var peers []string
	for _, other := range e.Services {
		if other.ID == svc.ID || other.Name == svc.Name {
			continue
		}
		if other.Type.Family() != svc.Type.Family() {
			continue
		}
		peers = append(peers, other.Name)
	}
	return peers
}

// HasEpoch reports whether the timeline contains an epoch with id.
func (e *Environment) HasEpoch(id int64) bool {
	for _, ee := range e.Epochs {
		if ee.Epoch.ID == id {
			return true
		}
	}
	return false
}

// NewServiceName generates "{env}-{type}-{suffix}" with a random 4-hex suffix.
func NewServiceName(env EnvironmentName, t ServiceType) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return fmt.Sprintf("%s-%s-%s", env, t.CLIName(), suffix)
}
