package classfile

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a class file major.minor version.
type Version struct {
	Major uint16 `json:"major" toml:"major"`
	Minor uint16 `json:"minor" toml:"minor"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less orders versions by major, then minor.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

func (v Version) IsZero() bool { return v.Major == 0 && v.Minor == 0 }

// ParseVersion accepts "major" or "major.minor".
func ParseVersion(s string) (Version, error) {
	major, minor, found := strings.Cut(strings.TrimSpace(s), ".")
	ma, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", s, err)
	}
	v := Version{Major: uint16(ma)}
	if found {
		mi, err := strconv.ParseUint(minor, 10, 16)
		if err != nil {
			return Version{}, fmt.Errorf("parse version %q: %w", s, err)
		}
		v.Minor = uint16(mi)
	}
	return v, nil
}

var (
	// DefaultClassVersion is used for ordinary class files written without
	// an explicit version.
	DefaultClassVersion = Version{Major: 45, Minor: 3}
	// DefaultModuleVersion is used for module-info class files.
	DefaultModuleVersion = Version{Major: 53, Minor: 0}
	// ValueObjectsVersion is the first version whose class files may use
	// value objects (preview minor version of major 69).
	ValueObjectsVersion = Version{Major: 69, Minor: 0xFFFF}
	// compactCodeVersion is the first version with u2 max_stack/max_locals
	// and a u4 code_length in the Code attribute.
	compactCodeVersion = Version{Major: 45, Minor: 3}
)

// Variant selects which interpretation of the format is active.
type Variant int

const (
	VariantOrdinary Variant = iota
	VariantValueObjects
)

func (v Variant) String() string {
	if v == VariantValueObjects {
		return "value-objects"
	}
	return "ordinary"
}

// VariantOf returns the variant a class file of version v is read under.
func VariantOf(v Version) Variant {
	if v.Less(ValueObjectsVersion) {
		return VariantOrdinary
	}
	return VariantValueObjects
}

// VersionGate tracks the version a decode session works with. A version
// set explicitly and frozen wins over the version found in the file,
// unless the file version reaches the optional threshold.
type VersionGate struct {
	current   Version
	threshold *Version
	frozen    bool
}

func NewVersionGate() *VersionGate {
	return &VersionGate{current: DefaultClassVersion}
}

func (g *VersionGate) SetVersion(v Version) { g.current = v }

func (g *VersionGate) SetThreshold(v Version) { g.threshold = &v }

func (g *VersionGate) Freeze() { g.frozen = true }

func (g *VersionGate) Frozen() bool { return g.frozen }

func (g *VersionGate) Current() Version { return g.current }

func (g *VersionGate) Threshold() (Version, bool) {
	if g.threshold == nil {
		return Version{}, false
	}
	return *g.threshold, true
}

// SetFileVersion records the version read from a class file. Once the gate
// is frozen the call is ignored unless v is at or above the threshold.
// It reports whether the version was applied.
func (g *VersionGate) SetFileVersion(v Version) bool {
	if g.frozen && (g.threshold == nil || v.Less(*g.threshold)) {
		return false
	}
	g.current = v
	return true
}

// Variant derives the active format variant from the current version.
func (g *VersionGate) Variant() Variant {
	return VariantOf(g.current)
}

// DefaultVersion picks the version for a class file written without one.
func DefaultVersion(isModule bool) Version {
	if isModule {
		return DefaultModuleVersion
	}
	return DefaultClassVersion
}
