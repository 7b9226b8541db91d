package version

import (
	"testing"

	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestBuildInfo(t *testing.T) {
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}

	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}

func TestDefaultIdentity(t *testing.T) {
	id := DefaultIdentity()

	if id.Running != versioning.V(2, 6, 2) {
		t.Errorf("running = %s", id.Running)
	}
	if id.MinSupported != versioning.V(2, 2, 7) {
		t.Errorf("min supported = %s", id.MinSupported)
	}
	if id.FrontEnd.String() != "2.7" {
		t.Errorf("front end = %s", id.FrontEnd)
	}
	if id.RootURL != DefaultRootURL {
		t.Errorf("root url = %s", id.RootURL)
	}

	var p Provider = id
	if p.Identity() != id {
		t.Error("identity should provide itself")
	}
}
