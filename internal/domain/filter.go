package domain

// Filter restricts which deals enter the graph build. Zero values on
// any dimension mean "no restriction on that dimension". Filters are
// applied before edge aggregation, never after.
type Filter struct {
	DealTypes     []DealType
	FlowTypes     []FlowType
	MinConfidence int   // 1-5; 0 disables
	DateFrom      int64 // Unix ms inclusive; 0 disables
	DateTo        int64 // Unix ms inclusive; 0 disables
}

// Matches reports whether the deal passes every active dimension.
func (f Filter) Matches(d *Deal) bool {
	if len(f.DealTypes) > 0 && !containsDealType(f.DealTypes, d.DealType) {
		return false
	}
	if len(f.FlowTypes) > 0 && !containsFlowType(f.FlowTypes, d.FlowType) {
		return false
	}
	if f.MinConfidence > 0 && d.Confidence() < float64(f.MinConfidence) {
		return false
	}
	if f.DateFrom > 0 && d.AnnouncedAt < f.DateFrom {
		return false
	}
	if f.DateTo > 0 && d.AnnouncedAt > f.DateTo {
		return false
	}
	return true
}

func containsDealType(types []DealType, t DealType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsFlowType(types []FlowType, t FlowType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}
