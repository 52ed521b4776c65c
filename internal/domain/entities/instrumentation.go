package entities

import (
	"fmt"
	"strings"
)

// Instrumentation is a compiler or runtime capability that can be built into the vendored library
type Instrumentation string

// Known instrumentation tags, in canonical order
const (
	InstrumentationSancov  Instrumentation = "sancov"
	InstrumentationASan    Instrumentation = "asan"
	InstrumentationGcov    Instrumentation = "gcov"
	InstrumentationLLVMCov Instrumentation = "llvm_cov"
	InstrumentationClaimer Instrumentation = "claimer"
)

// AllInstrumentations lists every tag in canonical order
var AllInstrumentations = []Instrumentation{
	InstrumentationSancov,
	InstrumentationASan,
	InstrumentationGcov,
	InstrumentationLLVMCov,
	InstrumentationClaimer,
}

// ParseInstrumentation converts a tag name into an Instrumentation
func ParseInstrumentation(name string) (Instrumentation, error) {
	tag := Instrumentation(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllInstrumentations {
		if tag == known {
			return tag, nil
		}
	}
	return "", fmt.Errorf("unknown instrumentation %q", name)
}

// InstrumentationProfile holds the instrumentation toggles requested for one build invocation
type InstrumentationProfile struct {
	Sancov  bool
	ASan    bool
	Gcov    bool
	LLVMCov bool
	Claimer bool
}

// ParseProfile builds a profile from a comma separated tag list ("sancov,asan").
// The empty string, "none" and "plain" yield an empty profile.
func ParseProfile(spec string) (InstrumentationProfile, error) {
	var p InstrumentationProfile
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "none" || spec == "plain" {
		return p, nil
	}
	for _, part := range strings.Split(spec, ",") {
		tag, err := ParseInstrumentation(part)
		if err != nil {
			return InstrumentationProfile{}, err
		}
		p = p.With(tag)
	}
	return p, nil
}

// With returns a copy of the profile with tag enabled
func (p InstrumentationProfile) With(tag Instrumentation) InstrumentationProfile {
	switch tag {
	case InstrumentationSancov:
		p.Sancov = true
	case InstrumentationASan:
		p.ASan = true
	case InstrumentationGcov:
		p.Gcov = true
	case InstrumentationLLVMCov:
		p.LLVMCov = true
	case InstrumentationClaimer:
		p.Claimer = true
	}
	return p
}

// Enabled reports whether tag is requested by the profile
func (p InstrumentationProfile) Enabled(tag Instrumentation) bool {
	switch tag {
	case InstrumentationSancov:
		return p.Sancov
	case InstrumentationASan:
		return p.ASan
	case InstrumentationGcov:
		return p.Gcov
	case InstrumentationLLVMCov:
		return p.LLVMCov
	case InstrumentationClaimer:
		return p.Claimer
	}
	return false
}

// Set returns the requested tags as an InstrumentationSet
func (p InstrumentationProfile) Set() InstrumentationSet {
	var set InstrumentationSet
	for _, tag := range AllInstrumentations {
		if p.Enabled(tag) {
			set = set.Add(tag)
		}
	}
	return set
}

// Variant names the profile for directory naming, e.g. "sancov-asan" or "plain"
func (p InstrumentationProfile) Variant() string {
	tags := p.Set().Strings()
	if len(tags) == 0 {
		return "plain"
	}
	return strings.Join(tags, "-")
}

// InstrumentationSet is an immutable set of instrumentation tags.
// Add returns a new set; the receiver is never modified.
type InstrumentationSet struct {
	bits uint8
}

func (s InstrumentationSet) bit(tag Instrumentation) uint8 {
	for i, known := range AllInstrumentations {
		if known == tag {
			return 1 << uint(i)
		}
	}
	return 0
}

// NewInstrumentationSet builds a set from tags; unknown tags are ignored
func NewInstrumentationSet(tags ...Instrumentation) InstrumentationSet {
	var s InstrumentationSet
	for _, tag := range tags {
		s = s.Add(tag)
	}
	return s
}

// Add returns s with tag included
func (s InstrumentationSet) Add(tag Instrumentation) InstrumentationSet {
	return InstrumentationSet{bits: s.bits | s.bit(tag)}
}

// Union returns the tags present in either set
func (s InstrumentationSet) Union(other InstrumentationSet) InstrumentationSet {
	return InstrumentationSet{bits: s.bits | other.bits}
}

// Has reports whether tag is in the set
func (s InstrumentationSet) Has(tag Instrumentation) bool {
	b := s.bit(tag)
	return b != 0 && s.bits&b != 0
}

// Len returns the number of tags in the set
func (s InstrumentationSet) Len() int {
	n := 0
	for _, tag := range AllInstrumentations {
		if s.Has(tag) {
			n++
		}
	}
	return n
}

// Tags returns the members in canonical order
func (s InstrumentationSet) Tags() []Instrumentation {
	tags := make([]Instrumentation, 0, len(AllInstrumentations))
	for _, tag := range AllInstrumentations {
		if s.Has(tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Strings returns the members as strings in canonical order, never nil
func (s InstrumentationSet) Strings() []string {
	out := make([]string, 0, len(AllInstrumentations))
	for _, tag := range s.Tags() {
		out = append(out, string(tag))
	}
	return out
}

func (s InstrumentationSet) String() string {
	return "[" + strings.Join(s.Strings(), ",") + "]"
}
