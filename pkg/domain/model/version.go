package model

import (
	"github.com/Masterminds/semver/v3"
	"github.com/m-mizutani/goerr/v2"
)

// VersionSource tells where a resolved version came from.
type VersionSource string

const (
	VersionSourceExplicit    VersionSource = "explicit"
	VersionSourceRecommended VersionSource = "recommended"
)

// BumpLevel is a semantic-version increment recommended from commit history.
type BumpLevel string

const (
	BumpMajor BumpLevel = "major"
	BumpMinor BumpLevel = "minor"
	BumpPatch BumpLevel = "patch"
)

// Valid reports whether l is one of major, minor or patch.
func (l BumpLevel) Valid() bool {
	switch l {
	case BumpMajor, BumpMinor, BumpPatch:
		return true
	default:
		return false
	}
}

// ResolvedVersion is a strictly validated semantic version. The zero value is not resolved.
type ResolvedVersion struct {
	raw    string
	source VersionSource
}

// ParseVersion validates s against the strict semver grammar (MAJOR.MINOR.PATCH with optional
// pre-release and build metadata, no "v" prefix) and returns it unchanged on success.
func ParseVersion(s string, source VersionSource) (ResolvedVersion, error) {
	if _, err := semver.StrictNewVersion(s); err != nil {
		return ResolvedVersion{}, goerr.Wrap(err, "invalid semantic version",
			goerr.T(ErrTagInvalidVersion),
			goerr.V("version", s),
		)
	}
	return ResolvedVersion{raw: s, source: source}, nil
}

// Bump applies level to current and returns the recommended version. A pre-release of the
// target version is promoted instead of incremented, so 1.0.0-rc.1 bumped by patch and
// 1.2.0-rc.1 bumped by minor become 1.0.0 and 1.2.0.
func Bump(current string, level BumpLevel) (ResolvedVersion, error) {
	if !level.Valid() {
		return ResolvedVersion{}, goerr.New("unrecognized bump level",
			goerr.T(ErrTagUnresolvedVersion),
			goerr.V("level", string(level)),
		)
	}

	v, err := semver.NewVersion(current)
	if err != nil {
		return ResolvedVersion{}, goerr.Wrap(err, "current version is not a semantic version",
			goerr.T(ErrTagUnresolvedVersion),
			goerr.V("current", current),
		)
	}

	pre := v.Prerelease() != ""
	var next semver.Version
	switch level {
	case BumpMajor:
		if pre && v.Minor() == 0 && v.Patch() == 0 {
			next = *semver.New(v.Major(), 0, 0, "", "")
		} else {
			next = v.IncMajor()
		}
	case BumpMinor:
		if pre && v.Patch() == 0 {
			next = *semver.New(v.Major(), v.Minor(), 0, "", "")
		} else {
			next = v.IncMinor()
		}
	case BumpPatch:
		next = v.IncPatch()
	}

	return ParseVersion(next.String(), VersionSourceRecommended)
}

// String returns the version exactly as resolved.
func (v ResolvedVersion) String() string { return v.raw }

// Source returns where the version came from.
func (v ResolvedVersion) Source() VersionSource { return v.source }

// IsZero reports whether the version has not been resolved yet.
func (v ResolvedVersion) IsZero() bool { return v.raw == "" }
