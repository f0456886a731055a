// Package graph derives the directed deal multigraph from raw deal
// records. The builder is pure: it takes in-memory records and has no
// knowledge of where they came from.
package graph

import (
	"fmt"

	"circularity-lab/internal/domain"
)

// PartnershipPolicy controls how undirected PARTNERSHIP deals enter
// the graph.
type PartnershipPolicy string

const (
	// PartnershipBidirectional emits a mirrored edge pair for every
	// partner pair. The pair is then visible to loop/cycle detection
	// like any independently sourced edges.
	PartnershipBidirectional PartnershipPolicy = "bidirectional"

	// PartnershipSkip leaves undirected partnership deals out of the
	// graph entirely.
	PartnershipSkip PartnershipPolicy = "skip"
)

// Options configure a graph build.
type Options struct {
	Partnerships PartnershipPolicy // default: PartnershipBidirectional
}

// directedPair is one resolved (from, to) tuple of a deal.
type directedPair struct {
	from, to string
}

// Build converts deals into an aggregated directed multigraph.
//
// Filtering happens before aggregation, so a filtered deal never
// contributes a partial aggregate. Party roles resolve to directed
// pairs per the fixed direction rule: money and equity flow
// investor→investee (or customer→supplier as payment), hardware and
// service flow supplier→customer, acquisitions flow acquirer→target.
// A deal referencing an unknown company is reported in DataErrors and
// skipped; it never aborts the build.
func Build(deals []*domain.Deal, companies []*domain.Company, filter domain.Filter, opts Options) *domain.Graph {
	if opts.Partnerships == "" {
		opts.Partnerships = PartnershipBidirectional
	}

	byID := make(map[string]*domain.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}

	g := &domain.Graph{
		DealsByID: make(map[string]*domain.Deal),
		SlugByID:  make(map[string]string),
	}

	type bucket struct {
		edge    *domain.Edge
		confSum float64
		confN   int
	}
	buckets := make(map[string]*bucket)
	var order []string
	referenced := make(map[string]bool)

	for _, d := range deals {
		if !filter.Matches(d) {
			continue
		}

		pairs, err := resolvePairs(d, byID, opts)
		if err != nil {
			g.DataErrors = append(g.DataErrors, fmt.Sprintf("deal %s: %v", d.ID, err))
			continue
		}
		if len(pairs) == 0 {
			continue
		}

		amount, determined := d.DeterminedAmount()
		conf := d.Confidence()

		for _, p := range pairs {
			key := p.from + "|" + p.to + "|" + string(d.DealType) + "|" + string(d.FlowType)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{edge: &domain.Edge{
					From:     p.from,
					To:       p.to,
					DealType: d.DealType,
					FlowType: d.FlowType,
				}}
				buckets[key] = b
				order = append(order, key)
			}
			b.edge.DealIDs = append(b.edge.DealIDs, d.ID)
			if determined {
				b.edge.AmountUSD += amount
				b.edge.HasAmount = true
			} else {
				b.edge.Undetermined++
			}
			b.confSum += conf
			b.confN++

			referenced[p.from] = true
			referenced[p.to] = true
		}
		g.DealsByID[d.ID] = d
	}

	for _, key := range order {
		b := buckets[key]
		if b.confN > 0 {
			b.edge.Confidence = b.confSum / float64(b.confN)
		} else {
			b.edge.Confidence = domain.DefaultConfidence
		}
		g.Edges = append(g.Edges, b.edge)
	}

	// Nodes keep the caller's company order for determinism.
	for _, c := range companies {
		if referenced[c.ID] {
			g.Nodes = append(g.Nodes, c)
			g.SlugByID[c.ID] = c.Slug
		}
	}

	return g
}

// resolvePairs turns a deal's party list into directed (from, to)
// tuples. Self-pairs are a modeling error and are dropped rather than
// becoming length-1 cycles.
func resolvePairs(d *domain.Deal, byID map[string]*domain.Company, opts Options) ([]directedPair, error) {
	var investors, investees, customers, suppliers, acquirers, targets, partners []string
	var outbound, inbound []string

	if len(d.Parties) < 2 {
		return nil, fmt.Errorf("fewer than two parties")
	}

	for _, p := range d.Parties {
		if _, ok := byID[p.CompanyID]; !ok {
			return nil, fmt.Errorf("unknown company %q", p.CompanyID)
		}
		switch p.Role {
		case domain.RoleInvestor:
			investors = append(investors, p.CompanyID)
		case domain.RoleInvestee:
			investees = append(investees, p.CompanyID)
		case domain.RoleCustomer:
			customers = append(customers, p.CompanyID)
		case domain.RoleSupplier:
			suppliers = append(suppliers, p.CompanyID)
		case domain.RoleAcquirer:
			acquirers = append(acquirers, p.CompanyID)
		case domain.RoleTarget:
			targets = append(targets, p.CompanyID)
		case domain.RolePartner:
			partners = append(partners, p.CompanyID)
		}
		switch p.Direction {
		case domain.DirectionOutbound:
			outbound = append(outbound, p.CompanyID)
		case domain.DirectionInbound:
			inbound = append(inbound, p.CompanyID)
		}
	}

	var pairs []directedPair
	add := func(from, to string) {
		if from == to {
			return // self-loop, modeling error
		}
		for _, p := range pairs {
			if p.from == from && p.to == to {
				return
			}
		}
		pairs = append(pairs, directedPair{from: from, to: to})
	}

	for _, inv := range investors {
		for _, ee := range investees {
			add(inv, ee)
		}
	}
	for _, acq := range acquirers {
		for _, tgt := range targets {
			add(acq, tgt)
		}
	}
	for _, sup := range suppliers {
		for _, cus := range customers {
			// Money is the customer's payment; value in kind moves
			// supplier to customer.
			if d.FlowType == domain.FlowTypeMoney {
				add(cus, sup)
			} else {
				add(sup, cus)
			}
		}
	}
	hasPartnerPairs := len(partners) >= 2
	if hasPartnerPairs && opts.Partnerships != PartnershipSkip {
		for i := 0; i < len(partners); i++ {
			for j := i + 1; j < len(partners); j++ {
				add(partners[i], partners[j])
				add(partners[j], partners[i])
			}
		}
	}

	// Explicit party directions are the fallback when no role pair
	// resolved (e.g. REVENUE_SHARE deals with OTHER roles).
	if len(pairs) == 0 {
		for _, from := range outbound {
			for _, to := range inbound {
				add(from, to)
			}
		}
	}

	if len(pairs) == 0 {
		if hasPartnerPairs {
			return nil, nil // partnerships deliberately excluded by policy
		}
		return nil, fmt.Errorf("no resolvable direction for roles")
	}
	return pairs, nil
}
