// Package trigger models the events that start a release run and resolves
// the release version from them.
//
// A run is started by exactly one [Event]: a [TagPush] carrying a git ref, or
// a [ManualDispatch] carrying a user-supplied version. [ResolveVersion]
// matches over both variants exhaustively; any other value yields
// [ErrUnknownTrigger] instead of an empty version.
package trigger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// TagRefPrefix is stripped from a tag push ref to obtain the version.
const TagRefPrefix = "refs/tags/"

// DefaultManualVersion is used when a manual dispatch supplies no version.
const DefaultManualVersion = "v0.0.0"

// Sentinel errors for trigger handling.
var (
	// ErrUnknownTrigger indicates an event that is neither a tag push nor a
	// manual dispatch.
	ErrUnknownTrigger = errors.New("unknown trigger event")

	// ErrEmptyVersion indicates a trigger that resolved to an empty version.
	ErrEmptyVersion = errors.New("resolved release version is empty")

	// ErrNotQualifying indicates a tag push whose ref is not a v<major>.<minor>.<patch> tag.
	ErrNotQualifying = errors.New("ref is not a release version tag")
)

// Kind names an event variant.
type Kind string

const (
	// KindTagPush is the kind of [TagPush].
	KindTagPush Kind = "tag-push"

	// KindManualDispatch is the kind of [ManualDispatch].
	KindManualDispatch Kind = "manual-dispatch"
)

// Event is the trigger that started a run. The set of implementations is
// closed: only [TagPush] and [ManualDispatch] satisfy it.
type Event interface {
	Kind() Kind
	String() string
	event()
}

// TagPush is a push of a git tag.
type TagPush struct {
	// Ref is the full git ref, e.g. "refs/tags/v1.2.3".
	Ref string
}

// Kind implements [Event].
func (TagPush) Kind() Kind { return KindTagPush }

func (t TagPush) String() string { return fmt.Sprintf("%s %s", KindTagPush, t.Ref) }

func (TagPush) event() {}

// ManualDispatch is a manual invocation with a version input.
type ManualDispatch struct {
	// Version is the user-supplied version string, used verbatim.
	Version string
}

// Kind implements [Event].
func (ManualDispatch) Kind() Kind { return KindManualDispatch }

func (m ManualDispatch) String() string {
	v := m.Version
	if v == "" {
		v = DefaultManualVersion + " (default)"
	}
	return fmt.Sprintf("%s %s", KindManualDispatch, v)
}

func (ManualDispatch) event() {}

// NewTagPush builds a [TagPush] from either a full ref or a bare tag name.
func NewTagPush(tag string) TagPush {
	if strings.HasPrefix(tag, "refs/") {
		return TagPush{Ref: tag}
	}
	return TagPush{Ref: TagRefPrefix + tag}
}

// NewManualDispatch builds a [ManualDispatch], substituting
// [DefaultManualVersion] for an empty input.
func NewManualDispatch(version string) ManualDispatch {
	if version == "" {
		version = DefaultManualVersion
	}
	return ManualDispatch{Version: version}
}

// ResolveVersion derives the release version from the event.
//
// A tag push yields its ref without the "refs/tags/" prefix and with no other
// transformation. A manual dispatch yields its input verbatim, or
// [DefaultManualVersion] when the input is empty. The result is never empty:
// a ref of just "refs/tags/" returns [ErrEmptyVersion].
func ResolveVersion(ev Event) (string, error) {
	var version string
	switch e := ev.(type) {
	case TagPush:
		version = strings.TrimPrefix(e.Ref, TagRefPrefix)
	case *TagPush:
		if e == nil {
			return "", ErrUnknownTrigger
		}
		return ResolveVersion(*e)
	case ManualDispatch:
		version = e.Version
		if version == "" {
			version = DefaultManualVersion
		}
	case *ManualDispatch:
		if e == nil {
			return "", ErrUnknownTrigger
		}
		return ResolveVersion(*e)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownTrigger, ev)
	}

	if version == "" {
		return "", ErrEmptyVersion
	}
	return version, nil
}

// Qualifies reports whether ev should start a release run.
//
// Manual dispatches always qualify. A tag push qualifies when its ref is
// "refs/tags/v" followed by a semantic version (pre-release and build
// suffixes allowed). Non-qualifying events return [ErrNotQualifying].
func Qualifies(ev Event) error {
	switch e := ev.(type) {
	case ManualDispatch, *ManualDispatch:
		return nil
	case TagPush:
		name, ok := strings.CutPrefix(e.Ref, TagRefPrefix)
		if !ok {
			return fmt.Errorf("%w: %q is not a tag ref", ErrNotQualifying, e.Ref)
		}
		rest, ok := strings.CutPrefix(name, "v")
		if !ok {
			return fmt.Errorf("%w: %q does not start with v", ErrNotQualifying, name)
		}
		if _, err := semver.StrictNewVersion(rest); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrNotQualifying, name, err)
		}
		return nil
	case *TagPush:
		if e == nil {
			return ErrUnknownTrigger
		}
		return Qualifies(*e)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownTrigger, ev)
	}
}
