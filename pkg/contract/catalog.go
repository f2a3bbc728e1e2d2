// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"fmt"
)

// Pattern is how a contract gets deployed
type Pattern int

const (
	Direct Pattern = iota
	// Proxied deploys an implementation behind an ERC1967 proxy. The proxy is the address
	// every other contract refers to.
	Proxied
)

func (p Pattern) String() string {
	if p == Proxied {
		return "proxied"
	}
	return "direct"
}

// Capability declares which optional entry points a contract exposes. It is part of the
// catalog and is never discovered from the chain.
type Capability int

const (
	None Capability = iota
	AddressWireable
	Ownable
	Both
)

func (c Capability) AddressWireable() bool {
	return c == AddressWireable || c == Both
}

func (c Capability) Ownable() bool {
	return c == Ownable || c == Both
}

func (c Capability) String() string {
	switch c {
	case AddressWireable:
		return "address-wireable"
	case Ownable:
		return "ownable"
	case Both:
		return "address-wireable,ownable"
	}
	return "none"
}

// Link is a point to point setter a core contract exposes for the auxiliary token family
type Link int

const (
	LinkCommunityIssuance Link = 1 << iota
	LinkLNDRStaking
)

func (l Link) Has(other Link) bool {
	return l&other != 0
}

// Entry describes one contract of a deployment
type Entry struct {
	// Name of the artifact and key of the deployment record
	Name       string
	Role       string
	Pattern    Pattern
	Capability Capability
	Links      Link
}

// Catalog is the ordered list of contracts of a deployment. The order is the deployment order.
type Catalog struct {
	entries []Entry
	byName  map[string]int
	// Layout is the ordered list of roles passed to setAddresses
	Layout []string
}

func NewCatalog(layout []string, entries ...Entry) (*Catalog, error) {
	c := &Catalog{byName: map[string]int{}, Layout: layout}
	roles := map[string]struct{}{}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry without name")
		}
		if _, ok := c.byName[e.Name]; ok {
			return nil, fmt.Errorf("duplicated catalog entry %s", e.Name)
		}
		if e.Role != "" {
			if _, ok := roles[e.Role]; ok {
				return nil, fmt.Errorf("duplicated catalog role %s", e.Role)
			}
			roles[e.Role] = struct{}{}
		}
		c.byName[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	for _, role := range layout {
		if role == TreasurySlot {
			continue
		}
		if _, ok := roles[role]; !ok {
			return nil, fmt.Errorf("address layout references unknown role %s", role)
		}
	}
	return c, nil
}

func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Entry(name string) (Entry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// ByRole returns the entry playing [role]
func (c *Catalog) ByRole(role string) (Entry, bool) {
	for _, e := range c.entries {
		if e.Role == role {
			return e, true
		}
	}
	return Entry{}, false
}

// Lendr core roles, in the order of the address list every core contract receives
const (
	RoleActivePool              = "activePool"
	RoleAdminContract           = "adminContract"
	RoleBorrowerOperations      = "borrowerOperations"
	RoleCollSurplusPool         = "collSurplusPool"
	RoleDebtToken               = "debtToken"
	RoleDefaultPool             = "defaultPool"
	RoleFeeCollector            = "feeCollector"
	RoleGasPool                 = "gasPool"
	RolePriceFeed               = "priceFeed"
	RoleSortedVessels           = "sortedVessels"
	RoleStakedDebtToken         = "stakedDebtToken"
	RoleTimelock                = "timelock"
	TreasurySlot                = "treasury"
	RoleVesselManager           = "vesselManager"
	RoleVesselManagerOperations = "vesselManagerOperations"

	RoleLNDRToken         = "lndrToken"
	RoleCommunityIssuance = "communityIssuance"
	RoleLNDRStaking       = "lndrStaking"

	RoleFixedPriceAggregator      = "fixedPriceAggregator"
	RoleWstEth2UsdPriceAggregator = "wstEth2UsdPriceAggregator"
)

// CoreAddressLayout is the setAddresses argument layout of the Lendr core.
// The treasury wallet sits at index 12.
var CoreAddressLayout = []string{
	RoleActivePool,
	RoleAdminContract,
	RoleBorrowerOperations,
	RoleCollSurplusPool,
	RoleDebtToken,
	RoleDefaultPool,
	RoleFeeCollector,
	RoleGasPool,
	RolePriceFeed,
	RoleSortedVessels,
	RoleStakedDebtToken,
	RoleTimelock,
	TreasurySlot,
	RoleVesselManager,
	RoleVesselManagerOperations,
}

const (
	ActivePool              = "ActivePool"
	AdminContract           = "AdminContract"
	BorrowerOperations      = "BorrowerOperations"
	CollSurplusPool         = "CollSurplusPool"
	DefaultPool             = "DefaultPool"
	FeeCollector            = "FeeCollector"
	SortedVessels           = "SortedVessels"
	VesselManager           = "VesselManager"
	VesselManagerOperations = "VesselManagerOperations"
	GasPool                 = "GasPool"
	DebtToken               = "DebtToken"
	StakedDebtToken         = "StakedDebtToken"
	PriceFeed               = "PriceFeed"

	LNDRToken         = "LNDRToken"
	CommunityIssuance = "CommunityIssuance"
	LNDRStaking       = "LNDRStaking"

	FixedPriceAggregator      = "FixedPriceAggregator"
	WstEth2UsdPriceAggregator = "WstEth2UsdPriceAggregator"

	ERC1967Proxy = "ERC1967Proxy"
)

// CoreCatalog returns the Lendr core in deployment order. The price feed and the timelock
// contracts depend on the network profile.
func CoreCatalog(priceFeed string, timelock string) *Catalog {
	priceFeedCapability := None
	if priceFeed == PriceFeed {
		priceFeedCapability = Ownable
	}
	c, err := NewCatalog(CoreAddressLayout,
		Entry{Name: ActivePool, Role: RoleActivePool, Pattern: Proxied, Capability: Both},
		Entry{Name: AdminContract, Role: RoleAdminContract, Pattern: Proxied, Capability: Both},
		Entry{Name: BorrowerOperations, Role: RoleBorrowerOperations, Pattern: Proxied, Capability: Both},
		Entry{Name: CollSurplusPool, Role: RoleCollSurplusPool, Pattern: Proxied, Capability: Both},
		Entry{Name: DefaultPool, Role: RoleDefaultPool, Pattern: Proxied, Capability: Both},
		Entry{Name: FeeCollector, Role: RoleFeeCollector, Pattern: Proxied, Capability: Both, Links: LinkLNDRStaking},
		Entry{Name: SortedVessels, Role: RoleSortedVessels, Pattern: Proxied, Capability: Both},
		Entry{Name: VesselManager, Role: RoleVesselManager, Pattern: Proxied, Capability: Both},
		Entry{Name: VesselManagerOperations, Role: RoleVesselManagerOperations, Pattern: Proxied, Capability: Both},
		Entry{Name: GasPool, Role: RoleGasPool, Pattern: Direct, Capability: None},
		Entry{Name: priceFeed, Role: RolePriceFeed, Pattern: Direct, Capability: priceFeedCapability},
		Entry{Name: timelock, Role: RoleTimelock, Pattern: Direct, Capability: None},
		Entry{Name: DebtToken, Role: RoleDebtToken, Pattern: Direct, Capability: Ownable},
		Entry{Name: StakedDebtToken, Role: RoleStakedDebtToken, Pattern: Proxied, Capability: Both},
	)
	if err != nil {
		// static definition
		panic(err)
	}
	return c
}

// LndrCatalog returns the auxiliary LNDR token family
func LndrCatalog() *Catalog {
	c, err := NewCatalog(nil,
		Entry{Name: LNDRToken, Role: RoleLNDRToken, Pattern: Direct, Capability: Ownable},
		Entry{Name: CommunityIssuance, Role: RoleCommunityIssuance, Pattern: Proxied, Capability: Ownable},
		Entry{Name: LNDRStaking, Role: RoleLNDRStaking, Pattern: Proxied, Capability: Ownable},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// PriceFeedsCatalog returns the price aggregators used as collateral oracles
func PriceFeedsCatalog() *Catalog {
	c, err := NewCatalog(nil,
		Entry{Name: FixedPriceAggregator, Role: RoleFixedPriceAggregator, Pattern: Direct},
		Entry{Name: WstEth2UsdPriceAggregator, Role: RoleWstEth2UsdPriceAggregator, Pattern: Direct},
	)
	if err != nil {
		panic(err)
	}
	return c
}
