// Package fingerprint decides whether a project's tracked inputs changed
// since the last build by reducing them to one deterministic 64-bit hash.
package fingerprint

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// Directory names whose contents never count as tracked sources.
var excludedDirs = map[string]struct{}{
	"bin":  {},
	"obj":  {},
	".git": {},
	".vs":  {},
}

// Inputs are the tracked inputs of one fingerprint computation.
type Inputs struct {
	// ProjectPath is the project file whose bytes are hashed. Required.
	ProjectPath string

	// TemplatePath optionally points at a Dockerfile template. Absence is
	// not an error; the entry is recorded as absent.
	TemplatePath string

	// Scalar configuration values, each hashed independently.
	TargetFramework string
	Configuration   string
	BaseImage       string
	SDKImage        string

	// PackageReferences and EnvironmentVariables are serialized in the
	// order supplied before hashing.
	PackageReferences    []string
	EnvironmentVariables []string

	// SourceRoot is the directory walked for tracked source files.
	// Defaults to the project file's directory.
	SourceRoot string

	// ExcludePatterns are file-name globs dropped from the source walk,
	// e.g. generated-file patterns.
	ExcludePatterns []string

	// ExcludePaths are specific files dropped from the source walk. The
	// pipeline lists its own generated artifacts here so an artifact
	// written by one run does not count as a changed source on the next.
	ExcludePaths []string

	// RecordPath is where the prior fingerprint is persisted.
	RecordPath string
}

// Result is the outcome of one fingerprint computation.
type Result struct {
	Fingerprint string
	Changed     bool
	Manifest    *Manifest
}

// Engine computes fingerprints and compares them against the persisted
// record. Individual unreadable inputs degrade to sentinel values rather
// than failing the computation; the manifest always reduces to a value.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a fingerprint engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Compute builds the manifest for in, reduces it to a fingerprint, compares
// it with the persisted record, and persists the new value when it differs.
// A missing or unreadable record reports changed=true: failures lean toward
// rebuilding, never toward silently skipping.
func (e *Engine) Compute(in Inputs) (*Result, error) {
	manifest := e.buildManifest(in)
	fp := manifest.Fingerprint()

	changed := true
	prior, found, err := ReadRecord(in.RecordPath)
	switch {
	case err != nil:
		e.log.Warn().Err(err).Str("path", in.RecordPath).
			Msg("Could not read fingerprint record, assuming changed")
	case !found:
		e.log.Debug().Str("path", in.RecordPath).
			Msg("No fingerprint record, first run")
	default:
		changed = prior != fp
	}

	if changed {
		if err := WriteRecord(in.RecordPath, fp); err != nil {
			// A failed write only risks a redundant rebuild next run.
			e.log.Warn().Err(err).Str("path", in.RecordPath).
				Msg("Could not persist fingerprint record")
		}
	}

	e.log.Debug().
		Str("fingerprint", fp).
		Bool("changed", changed).
		Msg("Fingerprint computed")
	for _, entry := range manifest.Entries() {
		e.log.Trace().Str("label", entry.Label).Str("value", entry.Value).
			Msg("Manifest entry")
	}

	return &Result{Fingerprint: fp, Changed: changed, Manifest: manifest}, nil
}

// buildManifest assembles the ordered manifest. The label order is fixed;
// only the source file collection is sorted before hashing.
func (e *Engine) buildManifest(in Inputs) *Manifest {
	m := &Manifest{}

	m.Add(LabelProject, e.hashFile(in.ProjectPath))
	m.Add(LabelTemplate, e.hashOptionalFile(in.TemplatePath))
	m.Add(LabelFramework, hashString(in.TargetFramework))
	m.Add(LabelConfiguration, hashString(in.Configuration))
	m.Add(LabelBaseImage, hashString(in.BaseImage))
	m.Add(LabelSDKImage, hashString(in.SDKImage))
	m.Add(LabelPackages, hashString(strings.Join(in.PackageReferences, ";")))
	m.Add(LabelEnv, hashString(strings.Join(in.EnvironmentVariables, ";")))

	root := in.SourceRoot
	if root == "" {
		root = filepath.Dir(in.ProjectPath)
	}
	m.Add(LabelSources, e.hashSourceTree(root, in.ExcludePatterns, in.ExcludePaths))

	return m
}

// hashFile hashes the file's bytes, degrading to the error sentinel when it
// cannot be read.
func (e *Engine) hashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn().Err(err).Str("path", path).
			Msg("Could not read tracked file, using sentinel")
		return ValueError
	}
	return hashBytes(data)
}

// hashOptionalFile hashes a file that may legitimately be absent.
func (e *Engine) hashOptionalFile(path string) string {
	if path == "" {
		return ValueAbsent
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ValueAbsent
	}
	return e.hashFile(path)
}

// hashSourceTree hashes all tracked source files under root as a single
// aggregate entry. Paths are sorted case-insensitively so the result does
// not depend on filesystem enumeration order.
func (e *Engine) hashSourceTree(root string, excludePatterns, excludePaths []string) string {
	paths := e.collectSources(root, excludePatterns, excludePaths)
	if len(paths) == 0 {
		return ValueEmpty
	}

	sort.Slice(paths, func(i, j int) bool {
		a, b := strings.ToLower(paths[i]), strings.ToLower(paths[j])
		if a != b {
			return a < b
		}
		return paths[i] < paths[j]
	})

	digest := xxhash.New()
	for _, rel := range paths {
		// Path and content both contribute to identity.
		_, _ = digest.WriteString(rel)
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			e.log.Warn().Err(err).Str("path", rel).
				Msg("Could not read source file, using sentinel")
			_, _ = digest.WriteString(ValueError)
			continue
		}
		_, _ = digest.Write(data)
	}
	return hashUint64(digest.Sum64())
}

// collectSources walks root and returns slash-separated relative paths of
// every tracked file. Build-output and VCS directories are skipped, as are
// files matching the exclude patterns or listed as excluded paths.
func (e *Engine) collectSources(root string, excludePatterns, excludePaths []string) []string {
	skip := make(map[string]struct{}, len(excludePaths))
	for _, p := range excludePaths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = struct{}{}
		}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			e.log.Warn().Err(err).Str("path", path).
				Msg("Could not walk source directory entry")
			return nil
		}
		if d.IsDir() {
			if _, skip := excludedDirs[strings.ToLower(d.Name())]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if abs, absErr := filepath.Abs(path); absErr == nil {
			if _, drop := skip[abs]; drop {
				return nil
			}
		}
		for _, pattern := range excludePatterns {
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				return nil
			}
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		e.log.Warn().Err(err).Str("root", root).
			Msg("Source walk terminated early")
	}
	return paths
}
