package ports

import "context"

// Locality is one suburb/town entry in the postcode gazetteer.
type Locality struct {
	Name     string `json:"name"`
	Region   string `json:"region"`
	Postcode string `json:"postcode"`
}

// Gazetteer resolves the localities that share a postcode.
type Gazetteer interface {
	LocalitiesByPostcode(ctx context.Context, postcode string) ([]Locality, error)
}
