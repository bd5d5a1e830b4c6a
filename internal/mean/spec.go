package mean

import "fmt"

// Spec is the serialisable description of a mean function. Sum, product and
// composite take exactly two Terms; composite applies the first to the
// second. Params is the flattened parameter vector of the whole tree.
type Spec struct {
	Kind   string    `yaml:"kind" json:"kind"`
	Value  float64   `yaml:"value,omitempty" json:"value,omitempty"`
	Index  int       `yaml:"index,omitempty" json:"index,omitempty"`
	Degree int       `yaml:"degree,omitempty" json:"degree,omitempty"`
	Terms  []Spec    `yaml:"terms,omitempty" json:"terms,omitempty"`
	Params []float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// Build returns the Func described by s.
func (s Spec) Build() (Func, error) {
	switch s.Kind {
	case "", "zero":
		return Zero{}, nil
	case "constant":
		return Constant{Value: s.Value}, nil
	case "linear":
		if s.Index < 0 {
			return nil, fmt.Errorf("%w: negative index %d", ErrBadParams, s.Index)
		}
		return Linear{Index: s.Index}, nil
	case "coefficient":
		return Coefficient{}, nil
	case "polynomial":
		if s.Degree < 0 {
			return nil, fmt.Errorf("%w: negative degree %d", ErrBadParams, s.Degree)
		}
		return Polynomial{Degree: s.Degree}, nil
	case "sum", "product", "composite":
		if len(s.Terms) != 2 {
			return nil, fmt.Errorf("%w: %s takes 2 terms, got %d", ErrBadParams, s.Kind, len(s.Terms))
		}
		f1, err := s.Terms[0].Build()
		if err != nil {
			return nil, err
		}
		f2, err := s.Terms[1].Build()
		if err != nil {
			return nil, err
		}
		switch s.Kind {
		case "sum":
			return Sum{F1: f1, F2: f2}, nil
		case "product":
			return Product{F1: f1, F2: f2}, nil
		}
		return Composite{F1: f1, F2: f2}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrBadParams, s.Kind)
}
