package fingerprint

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Manifest labels, in the fixed order they are serialized. Only the source
// file sub-collection behind LabelSources is order-normalized; every other
// entry is hashed exactly as supplied.
const (
	LabelProject       = "project"
	LabelTemplate      = "template"
	LabelFramework     = "tfm"
	LabelConfiguration = "configuration"
	LabelBaseImage     = "base-image"
	LabelSDKImage      = "sdk-image"
	LabelPackages      = "packages"
	LabelEnv           = "env"
	LabelSources       = "sources"
)

// Sentinel values used in place of a hash when an input is missing, empty,
// or unreadable. They participate in the serialized manifest like any other
// value so the fingerprint always resolves.
const (
	ValueAbsent = "<absent>"
	ValueEmpty  = "<empty>"
	ValueError  = "<error>"
)

// manifestHeader is a static, versioned header line. It is part of the
// hashed byte stream but carries no per-run data, so identical inputs keep
// yielding identical fingerprints. Wall-clock values never appear here.
const manifestHeader = "# dockship fingerprint v1"

// Entry is one labeled value of the manifest.
type Entry struct {
	Label string
	Value string
}

// Manifest is the ordered sequence of labeled hash entries whose serialized
// form is reduced to the final fingerprint.
type Manifest struct {
	entries []Entry
}

// Add appends an entry. Label order is owned by the engine and fixed at
// compile time.
func (m *Manifest) Add(label, value string) {
	m.entries = append(m.entries, Entry{Label: label, Value: value})
}

// Entries returns the entries in serialization order.
func (m *Manifest) Entries() []Entry {
	return m.entries
}

// Value returns the value recorded for a label, or "" when absent.
func (m *Manifest) Value(label string) string {
	for _, e := range m.entries {
		if e.Label == label {
			return e.Value
		}
	}
	return ""
}

// Serialize renders the manifest as the header line followed by one
// label=value line per entry.
func (m *Manifest) Serialize() []byte {
	var b strings.Builder
	b.WriteString(manifestHeader)
	b.WriteByte('\n')
	for _, e := range m.entries {
		b.WriteString(e.Label)
		b.WriteByte('=')
		b.WriteString(e.Value)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Fingerprint reduces the serialized manifest to the final fingerprint.
func (m *Manifest) Fingerprint() string {
	return hashBytes(m.Serialize())
}

// hashBytes renders the 64-bit hash of b as a fixed 16-character lowercase
// hex string.
func hashBytes(b []byte) string {
	return hashUint64(xxhash.Sum64(b))
}

func hashUint64(v uint64) string {
	return fmt.Sprintf("%016x", v)
}

// hashString hashes a scalar configuration value.
func hashString(s string) string {
	return hashBytes([]byte(s))
}
