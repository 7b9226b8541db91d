// Package version exposes build metadata and the running application identity
// used to gate document migrations.
package version

import "git.home.luguber.info/inful/sitemigrate/internal/versioning"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/sitemigrate/internal/version.Version=v2.6.2".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Defaults for the document format the running editor produces.
const (
	DefaultRunning      = "2.6.2"
	DefaultMinSupported = "2.2.7"
	DefaultFrontEnd     = "2.7"
	DefaultRootURL      = "http://localhost:6805"
)

// Identity describes the running application as seen by the migration engine.
type Identity struct {
	Running      versioning.Tuple
	MinSupported versioning.Tuple
	FrontEnd     versioning.AssetVersion
	RootURL      string
}

// Provider supplies the current application identity.
type Provider interface {
	Identity() Identity
}

// Identity lets a fixed Identity act as its own Provider.
func (i Identity) Identity() Identity { return i }

// DefaultIdentity returns the built-in identity.
func DefaultIdentity() Identity {
	running, _ := versioning.ParseTuple(DefaultRunning)
	minimum, _ := versioning.ParseTuple(DefaultMinSupported)
	frontEnd, _ := versioning.ParseAssetVersion(DefaultFrontEnd)
	return Identity{
		Running:      running,
		MinSupported: minimum,
		FrontEnd:     frontEnd,
		RootURL:      DefaultRootURL,
	}
}
