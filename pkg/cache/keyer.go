package cache

// Keyer derives cache keys for the two kinds of cached entries.
type Keyer interface {
	// SourceKey is the key for the raw payload behind a geometry or
	// population reference.
	SourceKey(ref string) string

	// ArtifactKey is the key for a rendered output. inputHash identifies the
	// source payloads the artifact was built from.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds every render option that changes the output bytes.
type ArtifactKeyOpts struct {
	Format      string     `json:"format"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	Margin      [4]float64 `json:"margin"`
	Scale       float64    `json:"scale"`
	Rotate      [3]float64 `json:"rotate"`
	Legend      bool       `json:"legend"`
	Mesh        bool       `json:"mesh"`
	Tooltips    bool       `json:"tooltips"`
	SurfaceID   string     `json:"surface_id,omitempty"`
	Description string     `json:"description,omitempty"`
	PNGScale    float64    `json:"png_scale,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SourceKey returns "source:<sha256(ref)>".
func (DefaultKeyer) SourceKey(ref string) string {
	return hashKey("source", ref)
}

// ArtifactKey returns "artifact:<sha256(inputHash, opts)>".
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", inputHash, opts)
}
