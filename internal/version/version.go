// Package version implements Bonnie's version gate: parsing the strict
// major.minor.patch triples used in the config's "version" field and the
// tool's own build version, and classifying how compatible two versions
// are.
package version

import (
	"io"
	"math"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/bonnierun/bonnie/internal/bonerr"
)

// Version is a (major, minor, patch) triple of 16-bit unsigned integers.
type Version struct {
	Major, Minor, Patch uint16
}

// Parse parses a strict "major.minor.patch" string: exactly three
// decimal, non-negative integer parts separated by dots, each fitting in
// a uint16. No pre-release or build-metadata suffixes are permitted.
func Parse(s string) (Version, error) {
	sv, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, bonerr.Wrap(bonerr.KindConfigParse, "invalid version string '"+s+"'", err)
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, bonerr.Newf(bonerr.KindConfigParse, "version %s must be a plain major.minor.patch triple, not a pre-release or build-metadata tag", s)
	}
	if sv.Major() > math.MaxUint16 || sv.Minor() > math.MaxUint16 || sv.Patch() > math.MaxUint16 {
		return Version{}, bonerr.Newf(bonerr.KindConfigParse, "version %s has a component too large for a 16-bit part", s)
	}
	return Version{
		Major: uint16(sv.Major()),
		Minor: uint16(sv.Minor()),
		Patch: uint16(sv.Patch()),
	}, nil
}

// String formats v as "major.minor.patch".
func (v Version) String() string {
	return formatVersion(v)
}

// Direction indicates which side of a comparison is older or newer.
type Direction int

const (
	TooOld Direction = iota
	TooNew
)

func (d Direction) String() string {
	if d == TooOld {
		return "too old"
	}
	return "too new"
}

// Category classifies how two versions relate.
type Category int

const (
	Identical Category = iota
	DifferentPatch
	DifferentMinor
	DifferentMajor
	DifferentPre1
)

// Compatibility is the full result of comparing two versions: a category
// and, for any non-identical category, which side was older/newer.
type Compatibility struct {
	Category  Category
	Direction Direction
}

// Classify compares `have` (e.g. the config's declared version) against
// `want` (e.g. the running tool's version) and classifies their
// compatibility per spec: the first differing component (major, then
// minor, then patch) determines the category, and a major == 0 on either
// side promotes any non-identical category to DifferentPre1.
func Classify(have, want Version) Compatibility {
	category, dir := classifyOrdinal(have, want)
	if category != Identical && (have.Major == 0 || want.Major == 0) {
		category = DifferentPre1
	}
	return Compatibility{Category: category, Direction: dir}
}

func classifyOrdinal(have, want Version) (Category, Direction) {
	switch {
	case have.Major != want.Major:
		return DifferentMajor, directionOf(have.Major, want.Major)
	case have.Minor != want.Minor:
		return DifferentMinor, directionOf(have.Minor, want.Minor)
	case have.Patch != want.Patch:
		return DifferentPatch, directionOf(have.Patch, want.Patch)
	default:
		return Identical, TooOld // direction is meaningless for Identical
	}
}

func directionOf(have, want uint16) Direction {
	if have < want {
		return TooOld
	}
	return TooNew
}

// Gate checks the config's declared version against the running tool's
// version. DifferentMajor and DifferentPre1 are hard errors. DifferentMinor
// and DifferentPatch are warnings written to warn.
func Gate(configVersion, toolVersion Version, warn io.Writer) error {
	compat := Classify(configVersion, toolVersion)
	switch compat.Category {
	case Identical:
		return nil
	case DifferentMajor, DifferentPre1:
		return bonerr.Newf(bonerr.KindVersionIncompatible,
			"configuration version %s is incompatible with this build of bonnie (%s, %s)",
			formatVersion(configVersion), categoryName(compat.Category), compat.Direction)
	case DifferentMinor, DifferentPatch:
		if warn != nil {
			io.WriteString(warn, "warning: configuration version "+formatVersion(configVersion)+
				" differs from this build of bonnie ("+categoryName(compat.Category)+", "+compat.Direction.String()+")\n")
		}
		return nil
	default:
		return nil
	}
}

func categoryName(c Category) string {
	switch c {
	case Identical:
		return "identical"
	case DifferentPatch:
		return "different patch"
	case DifferentMinor:
		return "different minor"
	case DifferentMajor:
		return "different major"
	case DifferentPre1:
		return "pre-1.0"
	default:
		return "unknown"
	}
}

func formatVersion(v Version) string {
	return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor)) + "." + strconv.Itoa(int(v.Patch))
}
