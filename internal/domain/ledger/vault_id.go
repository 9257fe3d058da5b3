package ledger

import (
	"strings"

	"github.com/vaultledger/backend/internal/domain/shared"
)

// VaultID identifies one of the seven fixed vaults
type VaultID string

const (
	VaultBovedaMonte VaultID = "boveda_monte" // Cost recovery
	VaultBovedaUSA   VaultID = "boveda_usa"
	VaultProfit      VaultID = "profit"
	VaultLeftie      VaultID = "leftie"
	VaultAzteca      VaultID = "azteca"
	VaultFleteSur    VaultID = "flete_sur" // Freight
	VaultUtilidades  VaultID = "utilidades"
)

var vaultNames = map[VaultID]string{
	VaultBovedaMonte: "Bóveda Monte",
	VaultBovedaUSA:   "Bóveda USA",
	VaultProfit:      "Profit",
	VaultLeftie:      "Leftie",
	VaultAzteca:      "Azteca",
	VaultFleteSur:    "Flete Sur",
	VaultUtilidades:  "Utilidades",
}

// AllVaultIDs returns the seven vault ids in their global lock order
func AllVaultIDs() []VaultID {
	return []VaultID{
		VaultAzteca,
		VaultBovedaMonte,
		VaultBovedaUSA,
		VaultFleteSur,
		VaultLeftie,
		VaultProfit,
		VaultUtilidades,
	}
}

// ParseVaultID validates a raw vault id
func ParseVaultID(raw string) (VaultID, error) {
	id := VaultID(strings.TrimSpace(strings.ToLower(raw)))
	if !id.IsValid() {
		return "", shared.ErrInvalidVault.WithDetail("unknown vault %q", raw)
	}
	return id, nil
}

// IsValid reports whether the id is one of the seven vaults
func (id VaultID) IsValid() bool {
	_, ok := vaultNames[id]
	return ok
}

// Name returns the display name of the vault
func (id VaultID) Name() string {
	return vaultNames[id]
}

// String returns the string representation of VaultID
func (id VaultID) String() string {
	return string(id)
}

// LockKey returns the mutual-exclusion key for this vault
func (id VaultID) LockKey() string {
	return "vault:" + string(id)
}

// SplitTargets names the vaults receiving each share of a sale
type SplitTargets struct {
	Cost    VaultID
	Freight VaultID
	Profit  VaultID
}

// DefaultSplitTargets returns the standard cost/freight/profit vaults
func DefaultSplitTargets() SplitTargets {
	return SplitTargets{
		Cost:    VaultBovedaMonte,
		Freight: VaultFleteSur,
		Profit:  VaultUtilidades,
	}
}

// ParseSplitTargets validates configured target vault ids
func ParseSplitTargets(cost, freight, profit string) (SplitTargets, error) {
	var t SplitTargets
	var err error
	if t.Cost, err = ParseVaultID(cost); err != nil {
		return SplitTargets{}, err
	}
	if t.Freight, err = ParseVaultID(freight); err != nil {
		return SplitTargets{}, err
	}
	if t.Profit, err = ParseVaultID(profit); err != nil {
		return SplitTargets{}, err
	}
	return t, nil
}

// Validate checks every target is a known vault
func (t SplitTargets) Validate() error {
	for _, id := range []VaultID{t.Cost, t.Freight, t.Profit} {
		if !id.IsValid() {
			return shared.ErrInvalidVault.WithDetail("unknown split target vault %q", id)
		}
	}
	return nil
}
