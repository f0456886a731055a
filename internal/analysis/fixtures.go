package analysis

import (
	"context"
	"fmt"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/storage"
)

// SampleCompanies returns a small fixed universe of AI-infrastructure
// companies used by the demo commands and the end-to-end tests.
func SampleCompanies() []*domain.Company {
	return []*domain.Company{
		{ID: "co-chipmaker", Name: "Chipmaker Corp", Slug: "chipmaker", Ticker: "CHIP"},
		{ID: "co-cloudco", Name: "CloudCo", Slug: "cloudco", Ticker: "CLD"},
		{ID: "co-modelworks", Name: "ModelWorks", Slug: "modelworks"},
		{ID: "co-datacenter", Name: "DataCenter One", Slug: "datacenter-one"},
		{ID: "co-searchgiant", Name: "SearchGiant", Slug: "searchgiant", Ticker: "SRCH"},
	}
}

// SampleDeals returns a deterministic deal set that produces at least
// one reciprocal loop and one three-party cycle.
func SampleDeals() []*domain.Deal {
	amount := func(v float64) *float64 { return &v }

	return []*domain.Deal{
		{
			ID: "deal-invest-modelworks", Title: "Chipmaker invests in ModelWorks",
			DealType: domain.DealTypeInvestment, FlowType: domain.FlowTypeMoney,
			AnnouncedAt: 1727740800000, DataStatus: domain.DataStatusConfirmed,
			AmountUSD: amount(10_000_000_000),
			Parties: []domain.DealParty{
				{CompanyID: "co-chipmaker", Role: domain.RoleInvestor},
				{CompanyID: "co-modelworks", Role: domain.RoleInvestee},
			},
			Sources: []domain.Source{{URL: "https://news.example/invest", Publisher: "Wire", Reliability: 4, Confidence: 4}},
		},
		{
			ID: "deal-gpu-purchase", Title: "ModelWorks pays for accelerators",
			DealType: domain.DealTypeSupply, FlowType: domain.FlowTypeMoney,
			AnnouncedAt: 1730419200000, DataStatus: domain.DataStatusEstimated,
			AmountUSDMin: amount(6_000_000_000), AmountUSDMax: amount(9_000_000_000),
			Parties: []domain.DealParty{
				{CompanyID: "co-chipmaker", Role: domain.RoleSupplier},
				{CompanyID: "co-modelworks", Role: domain.RoleCustomer},
			},
			Sources: []domain.Source{{URL: "https://news.example/gpus", Publisher: "Wire", Reliability: 3, Confidence: 3}},
		},
		{
			ID: "deal-cloud-commit", Title: "ModelWorks commits cloud spend",
			DealType: domain.DealTypeCloudCommitment, FlowType: domain.FlowTypeMoney,
			AnnouncedAt: 1733011200000, DataStatus: domain.DataStatusConfirmed,
			AmountUSD: amount(5_000_000_000),
			Parties: []domain.DealParty{
				{CompanyID: "co-cloudco", Role: domain.RoleSupplier},
				{CompanyID: "co-modelworks", Role: domain.RoleCustomer},
			},
			Sources: []domain.Source{{URL: "https://news.example/cloud", Publisher: "Ledger", Reliability: 4, Confidence: 5}},
		},
		{
			ID: "deal-chip-order", Title: "CloudCo orders chips",
			DealType: domain.DealTypeSupply, FlowType: domain.FlowTypeMoney,
			AnnouncedAt: 1735689600000, DataStatus: domain.DataStatusConfirmed,
			AmountUSD: amount(4_000_000_000),
			Parties: []domain.DealParty{
				{CompanyID: "co-cloudco", Role: domain.RoleCustomer},
				{CompanyID: "co-chipmaker", Role: domain.RoleSupplier},
			},
			Sources: []domain.Source{{URL: "https://news.example/order", Publisher: "Wire", Reliability: 4, Confidence: 4}},
		},
		{
			ID: "deal-dc-lease", Title: "SearchGiant leases DataCenter capacity",
			DealType: domain.DealTypeSupply, FlowType: domain.FlowTypeService,
			AnnouncedAt: 1738368000000, DataStatus: domain.DataStatusRumored,
			AmountText: "multi-billion",
			Parties: []domain.DealParty{
				{CompanyID: "co-datacenter", Role: domain.RoleSupplier},
				{CompanyID: "co-searchgiant", Role: domain.RoleCustomer},
			},
		},
		{
			ID: "deal-dc-investment", Title: "SearchGiant invests in DataCenter One",
			DealType: domain.DealTypeInvestment, FlowType: domain.FlowTypeMoney,
			AnnouncedAt: 1740960000000, DataStatus: domain.DataStatusConfirmed,
			AmountUSD: amount(2_000_000_000),
			Parties: []domain.DealParty{
				{CompanyID: "co-searchgiant", Role: domain.RoleInvestor},
				{CompanyID: "co-datacenter", Role: domain.RoleInvestee},
			},
			Sources: []domain.Source{{URL: "https://news.example/dc", Publisher: "Wire", Reliability: 5, Confidence: 4}},
		},
	}
}

// LoadFixtures inserts the sample universe into the given stores.
func LoadFixtures(ctx context.Context, companies storage.CompanyStore, deals storage.DealStore) error {
	for _, c := range SampleCompanies() {
		if err := companies.Insert(ctx, c); err != nil {
			return fmt.Errorf("insert company %s: %w", c.Slug, err)
		}
	}
	if err := deals.InsertBulk(ctx, SampleDeals()); err != nil {
		return fmt.Errorf("insert deals: %w", err)
	}
	return nil
}
