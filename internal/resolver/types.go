package resolver

import "encoding/json"

// ProjectType classifies what kind of container workload a project produces.
// The base image and entrypoint dispatch switches exhaustively over it.
type ProjectType int

const (
	ProjectWeb ProjectType = iota
	ProjectWorker
	ProjectConsole
	ProjectLibrary
)

// String returns the canonical name of the project type.
func (t ProjectType) String() string {
	switch t {
	case ProjectWeb:
		return "web"
	case ProjectWorker:
		return "worker"
	case ProjectConsole:
		return "console"
	case ProjectLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// MarshalYAML renders the type by name in descriptor dumps.
func (t ProjectType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// MarshalJSON renders the type by name, matching the YAML encoding.
func (t ProjectType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Images is the resolved container configuration for a project. It is
// computed fresh on every invocation and never persisted.
type Images struct {
	// ProjectType is the workload classification.
	ProjectType ProjectType `yaml:"project_type" json:"project_type"`

	// BaseImage is the runtime image the final stage builds on.
	BaseImage string `yaml:"base_image" json:"base_image"`

	// SDKImage is the build-toolchain image.
	SDKImage string `yaml:"sdk_image" json:"sdk_image"`

	// EntryCommand is the container entrypoint, argv style.
	EntryCommand []string `yaml:"entry_command" json:"entry_command"`

	// WorkingDir is the working directory inside the runtime image.
	WorkingDir string `yaml:"working_dir" json:"working_dir"`

	// Ports lists container ports to expose, in order.
	Ports []int `yaml:"ports,omitempty" json:"ports,omitempty"`
}
