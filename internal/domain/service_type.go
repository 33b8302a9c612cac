package domain

import (
	"fmt"
	"strings"
)

// ServiceType is the closed set of service kinds an environment can contain.
type ServiceType int

const (
	ServiceTypeBitcoinMiner ServiceType = iota + 1
	ServiceTypeBitcoinFollower
	ServiceTypeStacksMiner
	ServiceTypeStacksFollower
	ServiceTypeStacksSigner
	ServiceTypeStacksStackerSelf
	ServiceTypeStacksStackerPool
)

// ServiceFamily groups service types that peer with each other.
type ServiceFamily string

const (
	FamilyBitcoin ServiceFamily = "bitcoin"
	FamilyStacks  ServiceFamily = "stacks"
)

type serviceTypeInfo struct {
	storeValue  int
	cliName     string
	displayName string
	family      ServiceFamily
	leader      bool
	runnable    bool
}

// serviceTypes is the single mapping between variants and their store
// integers. Every variant must appear exactly once.
var serviceTypes = map[ServiceType]serviceTypeInfo{
	ServiceTypeBitcoinMiner:      {storeValue: 0, cliName: "bitcoin-miner", displayName: "Bitcoin Miner", family: FamilyBitcoin, leader: true, runnable: true},
	ServiceTypeBitcoinFollower:   {storeValue: 1, cliName: "bitcoin-follower", displayName: "Bitcoin Follower", family: FamilyBitcoin, runnable: true},
	ServiceTypeStacksMiner:       {storeValue: 2, cliName: "stacks-miner", displayName: "Stacks Miner", family: FamilyStacks, leader: true},
	ServiceTypeStacksFollower:    {storeValue: 3, cliName: "stacks-follower", displayName: "Stacks Follower", family: FamilyStacks},
	ServiceTypeStacksSigner:      {storeValue: 4, cliName: "stacks-signer", displayName: "Stacks Signer", family: FamilyStacks},
	ServiceTypeStacksStackerSelf: {storeValue: 5, cliName: "stacks-stacker-self", displayName: "Stacks Self-Stacker", family: FamilyStacks},
	ServiceTypeStacksStackerPool: {storeValue: 6, cliName: "stacks-stacker-pool", displayName: "Stacks Pool-Stacker", family: FamilyStacks},
}

// AllServiceTypes returns every variant in declaration order.
func AllServiceTypes() []ServiceType {
	return []ServiceType{
		ServiceTypeBitcoinMiner,
		ServiceTypeBitcoinFollower,
		ServiceTypeStacksMiner,
		ServiceTypeStacksFollower,
		ServiceTypeStacksSigner,
		ServiceTypeStacksStackerSelf,
		ServiceTypeStacksStackerPool,
	}
}

// ServiceTypeFromStore converts the store's integer representation.
func ServiceTypeFromStore(v int) (ServiceType, error) {
	for t, info := range serviceTypes {
		if info.storeValue == v {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown service type id %d", v)
}

// ParseServiceType resolves a CLI name such as "bitcoin-miner".
func ParseServiceType(s string) (ServiceType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllServiceTypes() {
		if serviceTypes[t].cliName == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown service type %q", s)
}

func (t ServiceType) info() serviceTypeInfo {
	info, ok := serviceTypes[t]
	if !ok {
		panic(fmt.Sprintf("domain: invalid service type %d", int(t)))
	}
	return info
}

// Valid reports whether t is one of the declared variants.
func (t ServiceType) Valid() bool {
	_, ok := serviceTypes[t]
	return ok
}

// StoreValue is the integer persisted by the configuration store.
func (t ServiceType) StoreValue() int { return t.info().storeValue }

// CLIName is the kebab-case name used on the command line and in container names.
func (t ServiceType) CLIName() string { return t.info().cliName }

func (t ServiceType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ServiceType(%d)", int(t))
	}
	return t.info().displayName
}

// Family returns the peer group of t.
func (t ServiceType) Family() ServiceFamily { return t.info().family }

// IsLeader reports whether t is the mining variant of its family.
func (t ServiceType) IsLeader() bool { return t.info().leader }

// Runnable reports whether the orchestrator knows how to run t.
func (t ServiceType) Runnable() bool { return t.info().runnable }

// MarshalText encodes t as its CLI name.
func (t ServiceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid service type %d", int(t))
	}
	return []byte(t.CLIName()), nil
}

// UnmarshalText decodes a CLI name.
func (t *ServiceType) UnmarshalText(text []byte) error {
	parsed, err := ParseServiceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
