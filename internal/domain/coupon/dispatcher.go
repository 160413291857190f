package coupon

// Dispatcher maps a coupon kind to the policy that prices it.
type Dispatcher struct {
	policies map[Kind]Policy
}

// DefaultPolicies returns one policy per kind.
func DefaultPolicies(mode RepetitionMode) []Policy {
	return []Policy{
		CartWisePolicy{},
		ProductWisePolicy{},
		NewBuyXGetYPolicy(mode),
	}
}

// NewDispatcher builds a dispatcher and checks that every kind in Kinds()
// is covered. The first policy supporting a kind wins.
func NewDispatcher(policies ...Policy) (*Dispatcher, error) {
	d := &Dispatcher{policies: make(map[Kind]Policy, len(policies))}
	for _, k := range Kinds() {
		for _, p := range policies {
			if p.Supports(k) {
				d.policies[k] = p
				break
			}
		}
		if _, ok := d.policies[k]; !ok {
			return nil, &NoPolicyForKindError{Kind: k}
		}
	}
	return d, nil
}

// Dispatch returns the policy for k.
func (d *Dispatcher) Dispatch(k Kind) (Policy, error) {
	p, ok := d.policies[k]
	if !ok {
		return nil, &NoPolicyForKindError{Kind: k}
	}
	return p, nil
}
