package entities

// VendorMetadata is the provenance record tying an installed build to a library
// version and the instrumentation it actually carries.
//
// Values are created once per build invocation by NewVendorMetadata, which copies
// its inputs. Nothing in the codebase mutates a record after creation; a changed
// build produces a fresh record.
type VendorMetadata struct {
	Libname              string
	Version              string
	Instrumentation      InstrumentationSet
	KnownVulnerabilities []string
	FixedVulnerabilities []string
}

// NewVendorMetadata builds a record from resolved values.
// The vulnerability lists are copied and kept independent of each other; nil
// lists become empty lists so they always render.
func NewVendorMetadata(libname, version string, instrumentation InstrumentationSet, known, fixed []string) VendorMetadata {
	return VendorMetadata{
		Libname:              libname,
		Version:              version,
		Instrumentation:      instrumentation,
		KnownVulnerabilities: cloneStrings(known),
		FixedVulnerabilities: cloneStrings(fixed),
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
