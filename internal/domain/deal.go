package domain

// DealType classifies the kind of economic event a deal represents.
type DealType string

const (
	DealTypeInvestment      DealType = "INVESTMENT"
	DealTypeCloudCommitment DealType = "CLOUD_COMMITMENT"
	DealTypeSupply          DealType = "SUPPLY"
	DealTypePartnership     DealType = "PARTNERSHIP"
	DealTypeAcquisition     DealType = "ACQUISITION"
	DealTypeRevenueShare    DealType = "REVENUE_SHARE"
	DealTypeOther           DealType = "OTHER"
)

// String returns the string representation of DealType.
func (d DealType) String() string {
	return string(d)
}

// IsValid checks if the deal type is a valid value.
func (d DealType) IsValid() bool {
	switch d {
	case DealTypeInvestment, DealTypeCloudCommitment, DealTypeSupply,
		DealTypePartnership, DealTypeAcquisition, DealTypeRevenueShare, DealTypeOther:
		return true
	}
	return false
}

// FlowType classifies what kind of value moves along a deal edge.
type FlowType string

const (
	FlowTypeMoney           FlowType = "MONEY"
	FlowTypeComputeHardware FlowType = "COMPUTE_HARDWARE"
	FlowTypeService         FlowType = "SERVICE"
	FlowTypeEquity          FlowType = "EQUITY"
)

// String returns the string representation of FlowType.
func (f FlowType) String() string {
	return string(f)
}

// IsValid checks if the flow type is a valid value.
func (f FlowType) IsValid() bool {
	switch f {
	case FlowTypeMoney, FlowTypeComputeHardware, FlowTypeService, FlowTypeEquity:
		return true
	}
	return false
}

// DataStatus describes how well a deal's terms are substantiated.
type DataStatus string

const (
	DataStatusConfirmed DataStatus = "CONFIRMED"
	DataStatusEstimated DataStatus = "ESTIMATED"
	DataStatusRumored   DataStatus = "RUMORED"
	DataStatusUnknown   DataStatus = "UNKNOWN"
)

// IsValid checks if the data status is a valid value.
func (s DataStatus) IsValid() bool {
	switch s {
	case DataStatusConfirmed, DataStatusEstimated, DataStatusRumored, DataStatusUnknown:
		return true
	}
	return false
}

// PartyRole describes a company's role within a deal.
type PartyRole string

const (
	RoleInvestor PartyRole = "INVESTOR"
	RoleInvestee PartyRole = "INVESTEE"
	RoleCustomer PartyRole = "CUSTOMER"
	RoleSupplier PartyRole = "SUPPLIER"
	RoleAcquirer PartyRole = "ACQUIRER"
	RoleTarget   PartyRole = "TARGET"
	RolePartner  PartyRole = "PARTNER"
	RoleOther    PartyRole = "OTHER"
)

// IsValid checks if the party role is a valid value.
func (r PartyRole) IsValid() bool {
	switch r {
	case RoleInvestor, RoleInvestee, RoleCustomer, RoleSupplier,
		RoleAcquirer, RoleTarget, RolePartner, RoleOther:
		return true
	}
	return false
}

// PartyDirection is an optional explicit flow direction for a party,
// used when roles alone do not determine edge direction.
type PartyDirection string

const (
	DirectionOutbound    PartyDirection = "OUTBOUND"
	DirectionInbound     PartyDirection = "INBOUND"
	DirectionUnspecified PartyDirection = ""
)

// DealParty links a company to a deal with a role.
type DealParty struct {
	CompanyID string
	Role      PartyRole
	Direction PartyDirection
}

// Source is a provenance record backing a deal.
// Reliability and Confidence are 1-5 scales.
type Source struct {
	URL         string
	Publisher   string
	Reliability int
	Confidence  int
}

// Deal represents one economic event between two or more companies.
// Corresponds to deals table in PostgreSQL; parties and sources are
// loaded alongside.
type Deal struct {
	ID          string // PRIMARY KEY
	Title       string // opaque to the engine
	DealType    DealType
	FlowType    FlowType
	AnnouncedAt int64 // Unix timestamp in milliseconds
	DataStatus  DataStatus

	// Amount representations. At most one is authoritative:
	// exact takes priority over range; free text is undetermined.
	AmountUSD    *float64
	AmountUSDMin *float64
	AmountUSDMax *float64
	AmountText   string

	Tags    []string
	Parties []DealParty
	Sources []Source

	CreatedAt int64 // record creation timestamp (ms)
}

// DefaultConfidence is assumed for deals with no attached sources.
const DefaultConfidence = 3

// Confidence returns the mean source confidence for the deal, or
// DefaultConfidence when no sources carry a usable score.
func (d *Deal) Confidence() float64 {
	sum := 0
	n := 0
	for _, s := range d.Sources {
		if s.Confidence >= 1 && s.Confidence <= 5 {
			sum += s.Confidence
			n++
		}
	}
	if n == 0 {
		return DefaultConfidence
	}
	return float64(sum) / float64(n)
}

// DeterminedAmount returns the deal's USD amount when one can be
// established. Exact amounts win over ranges; a range resolves to its
// midpoint; free-text or negative amounts are undetermined.
func (d *Deal) DeterminedAmount() (float64, bool) {
	if d.AmountUSD != nil {
		if v := *d.AmountUSD; v > 0 {
			return v, true
		}
		return 0, false
	}
	if d.AmountUSDMin != nil && d.AmountUSDMax != nil {
		lo, hi := *d.AmountUSDMin, *d.AmountUSDMax
		if lo > 0 && hi >= lo {
			return (lo + hi) / 2, true
		}
	}
	return 0, false
}
