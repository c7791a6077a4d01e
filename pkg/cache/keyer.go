package cache

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// SceneKey identifies the scene produced by rendering a frame
	// sequence, given the hash of every frame in order.
	SceneKey(frameHashes []string, opts SceneKeyOpts) string

	// ArtifactKey identifies one output format of a scene.
	ArtifactKey(sceneKey string, opts ArtifactKeyOpts) string
}

// SceneKeyOpts holds the settings that change a composed scene.
type SceneKeyOpts struct {
	Width          float64 `json:"w"`
	Height         float64 `json:"h"`
	Policy         string  `json:"p"`
	GroupPadding   float64 `json:"pad"`
	LeakAreaHeight float64 `json:"leak"`
	LeakGap        float64 `json:"gap"`
	MarkerOffset   float64 `json:"mo"`
	LabelOffset    float64 `json:"lo"`
	FitCenter      bool    `json:"fit"`
	// Layouts is a digest of layout option overrides, if any.
	Layouts string `json:"l,omitempty"`
}

// ArtifactKeyOpts holds the settings that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"f"`
	Scale  float64 `json:"s,omitempty"`
	// Step is the index of the frame the artifact shows.
	Step int `json:"i"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey returns "scene:<sha256>".
func (DefaultKeyer) SceneKey(frameHashes []string, opts SceneKeyOpts) string {
	return hashKey(KindScene, frameHashes, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(sceneKey string, opts ArtifactKeyOpts) string {
	return hashKey(KindArtifact, sceneKey, opts)
}

var _ Keyer = DefaultKeyer{}
