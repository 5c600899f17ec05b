package quota

import "fmt"

// Limits are the caps for one endpoint under one tier. A zero field means
// that window is not limited for the endpoint.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

func (l Limits) forPeriod(p Period) int {
	switch p {
	case PeriodMinute:
		return l.PerMinute
	case PeriodHour:
		return l.PerHour
	case PeriodDay:
		return l.PerDay
	default:
		return 0
	}
}

// EndpointSpec declares the limits for one logical remote operation,
// keyed per tier.
type EndpointSpec struct {
	Endpoint string
	ByTier   map[Tier]Limits
}

// Registry is the static endpoint -> spec table. It is read-only after
// construction; changing limits means shipping a new table.
type Registry struct {
	specs map[string]EndpointSpec
}

func NewRegistry(specs ...EndpointSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]EndpointSpec, len(specs))}
	for _, s := range specs {
		if s.Endpoint == "" {
			return nil, fmt.Errorf("endpoint spec with empty id")
		}
		if _, dup := r.specs[s.Endpoint]; dup {
			return nil, fmt.Errorf("duplicate endpoint spec %q", s.Endpoint)
		}
		for tier, l := range s.ByTier {
			if l.PerMinute < 0 || l.PerHour < 0 || l.PerDay < 0 {
				return nil, fmt.Errorf("endpoint %q tier %s: negative limit", s.Endpoint, tier)
			}
			if l == (Limits{}) {
				return nil, fmt.Errorf("endpoint %q tier %s: no limits set", s.Endpoint, tier)
			}
		}
		r.specs[s.Endpoint] = s
	}
	return r, nil
}

// MustNewRegistry is for compiled-in tables, where a bad entry is a
// programming error.
func MustNewRegistry(specs ...EndpointSpec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(endpoint string) (EndpointSpec, bool) {
	s, ok := r.specs[endpoint]
	return s, ok
}

// Endpoints returns every registered endpoint id.
func (r *Registry) Endpoints() []string {
	out := make([]string, 0, len(r.specs))
	for id := range r.specs {
		out = append(out, id)
	}
	return out
}

// LinkedInRegistry returns the quota table for LinkedIn's REST API. The
// numbers follow LinkedIn's published per-application throttles; treat
// them as a floor, not a guarantee.
func LinkedInRegistry() *Registry {
	return MustNewRegistry(
		EndpointSpec{
			Endpoint: "CREATE_rest_posts",
			ByTier: map[Tier]Limits{
				TierStandard: {PerHour: 250, PerDay: 500},
				TierPartner:  {PerHour: 1000, PerDay: 5000},
			},
		},
		EndpointSpec{
			Endpoint: "GET_rest_posts",
			ByTier: map[Tier]Limits{
				TierStandard: {PerHour: 500, PerDay: 2500},
				TierPartner:  {PerHour: 2000, PerDay: 20000},
			},
		},
		EndpointSpec{
			Endpoint: "DELETE_rest_posts",
			ByTier: map[Tier]Limits{
				TierStandard: {PerHour: 100, PerDay: 500},
				TierPartner:  {PerHour: 500, PerDay: 2500},
			},
		},
		EndpointSpec{
			Endpoint: "CREATE_rest_images",
			ByTier: map[Tier]Limits{
				TierStandard: {PerDay: 500},
				TierPartner:  {PerDay: 5000},
			},
		},
		EndpointSpec{
			Endpoint: "CREATE_rest_videos",
			ByTier: map[Tier]Limits{
				TierStandard: {PerDay: 200},
				TierPartner:  {PerDay: 2000},
			},
		},
		EndpointSpec{
			Endpoint: "GET_rest_me",
			ByTier: map[Tier]Limits{
				TierStandard: {PerHour: 500, PerDay: 5000},
				TierPartner:  {PerHour: 1000, PerDay: 50000},
			},
		},
	)
}
