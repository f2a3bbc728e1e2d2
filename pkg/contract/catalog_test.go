// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoreCatalogOrder(t *testing.T) {
	require := require.New(t)
	c := CoreCatalog("PriceFeedTestnet", "TimelockTester")
	names := []string{}
	for _, e := range c.Entries() {
		names = append(names, e.Name)
	}
	require.Equal([]string{
		ActivePool,
		AdminContract,
		BorrowerOperations,
		CollSurplusPool,
		DefaultPool,
		FeeCollector,
		SortedVessels,
		VesselManager,
		VesselManagerOperations,
		GasPool,
		"PriceFeedTestnet",
		"TimelockTester",
		DebtToken,
		StakedDebtToken,
	}, names)
	require.Equal(TreasurySlot, c.Layout[12])
	require.Len(c.Layout, 15)
}

func TestCoreCatalogEntries(t *testing.T) {
	require := require.New(t)
	c := CoreCatalog(PriceFeed, "Timelock")

	e, ok := c.Entry(StakedDebtToken)
	require.True(ok)
	require.Equal(Proxied, e.Pattern)
	require.True(e.Capability.AddressWireable())
	require.True(e.Capability.Ownable())

	e, ok = c.Entry(DebtToken)
	require.True(ok)
	require.Equal(Direct, e.Pattern)
	require.False(e.Capability.AddressWireable())
	require.True(e.Capability.Ownable())

	e, ok = c.ByRole(RolePriceFeed)
	require.True(ok)
	require.Equal(PriceFeed, e.Name)
	require.Equal(Ownable, e.Capability)

	e, ok = c.ByRole(RoleTimelock)
	require.True(ok)
	require.Equal("Timelock", e.Name)
	require.Equal(None, e.Capability)

	e, ok = c.Entry(FeeCollector)
	require.True(ok)
	require.True(e.Links.Has(LinkLNDRStaking))
	require.False(e.Links.Has(LinkCommunityIssuance))

	_, ok = c.Entry("StabilityPool")
	require.False(ok)
}

func TestNewCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		layout  []string
		entries []Entry
	}{
		{
			name:    "missing name",
			entries: []Entry{{Role: "a"}},
		},
		{
			name:    "duplicated name",
			entries: []Entry{{Name: "A", Role: "a"}, {Name: "A", Role: "b"}},
		},
		{
			name:    "duplicated role",
			entries: []Entry{{Name: "A", Role: "a"}, {Name: "B", Role: "a"}},
		},
		{
			name:    "unknown layout role",
			layout:  []string{"a", TreasurySlot, "c"},
			entries: []Entry{{Name: "A", Role: "a"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.layout, tt.entries...)
			require.Error(t, err)
		})
	}
}

func TestCapability(t *testing.T) {
	require := require.New(t)
	require.False(None.AddressWireable())
	require.False(None.Ownable())
	require.True(AddressWireable.AddressWireable())
	require.False(AddressWireable.Ownable())
	require.True(Both.AddressWireable())
	require.True(Both.Ownable())
	require.Equal("address-wireable,ownable", Both.String())
	require.Equal("proxied", Proxied.String())
}
