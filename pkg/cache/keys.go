package cache

import "fmt"

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// ModelKey identifies a model snapshot by the hash of its content.
	ModelKey(modelHash string) string
	// LayoutKey identifies a laid-out model.
	LayoutKey(modelHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies one rendered output format of a laid-out model.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the options that change layout results.
type LayoutKeyOpts struct {
	Layout    string  `json:"layout"`
	Direction string  `json:"direction,omitempty"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Padding   float64 `json:"padding"`
}

// ArtifactKeyOpts are the options that change rendered bytes.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer produces keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) ModelKey(modelHash string) string {
	return fmt.Sprintf("model:%s", modelHash)
}

func (DefaultKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", modelHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
