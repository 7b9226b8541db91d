// Package versioning classifies a document's saved format version against the
// running application and reads or stamps the version marker in the markup.
package versioning

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Tuple is a three-part version (major, minor, patch). The zero value is 0.0.0.
type Tuple struct {
	Major int
	Minor int
	Patch int
}

// V builds a Tuple.
func V(major, minor, patch int) Tuple {
	return Tuple{Major: major, Minor: minor, Patch: patch}
}

var tupleRe = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// ParseTuple parses "2.2.9" or "v2.2.9" strictly.
func ParseTuple(s string) (Tuple, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Tuple{}, fmt.Errorf("version %q: expected MAJOR.MINOR.PATCH", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Tuple{}, fmt.Errorf("version %q: invalid component %q", s, p)
		}
		nums[i] = n
	}
	return V(nums[0], nums[1], nums[2]), nil
}

// ExtractTuple finds the first MAJOR.MINOR.PATCH sequence inside free text such
// as a generator string. It returns false when none is present.
func ExtractTuple(s string) (Tuple, bool) {
	m := tupleRe.FindStringSubmatch(s)
	if m == nil {
		return Tuple{}, false
	}
	t, err := ParseTuple(m[0])
	if err != nil {
		return Tuple{}, false
	}
	return t, true
}

// String renders the tuple as MAJOR.MINOR.PATCH.
func (t Tuple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tuple) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tuple) UnmarshalText(b []byte) error {
	parsed, err := ParseTuple(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AssetVersion is the two-part front-end version used in static asset paths.
type AssetVersion struct {
	Major int
	Minor int
}

// ParseAssetVersion parses "2.7".
func ParseAssetVersion(s string) (AssetVersion, error) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(s), "v"), ".")
	if len(parts) != 2 {
		return AssetVersion{}, fmt.Errorf("asset version %q: expected MAJOR.MINOR", s)
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || major < 0 || minor < 0 {
		return AssetVersion{}, fmt.Errorf("asset version %q: invalid number", s)
	}
	return AssetVersion{Major: major, Minor: minor}, nil
}

// String renders MAJOR.MINOR.
func (a AssetVersion) String() string {
	return fmt.Sprintf("%d.%d", a.Major, a.Minor)
}

// MarshalText implements encoding.TextMarshaler.
func (a AssetVersion) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AssetVersion) UnmarshalText(b []byte) error {
	parsed, err := ParseAssetVersion(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
