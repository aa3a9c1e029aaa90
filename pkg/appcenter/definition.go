package appcenter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReleaseDefinition describes a release in a checked-in YAML file, so CI
// pipelines can drive UploadBuild and UploadAndRelease from configuration
// instead of flags.
type ReleaseDefinition struct {
	BuildVersion    string          `json:"build_version,omitempty"    yaml:"build_version,omitempty"`
	BuildNumber     string          `json:"build_number,omitempty"     yaml:"build_number,omitempty"`
	BinaryPath      string          `json:"binary_path,omitempty"      yaml:"binary_path,omitempty"`
	ReleaseNotes    string          `json:"release_notes,omitempty"    yaml:"release_notes,omitempty"`
	MandatoryUpdate bool            `json:"mandatory_update,omitempty" yaml:"mandatory_update,omitempty"`
	NotifyTesters   bool            `json:"notify_testers,omitempty"   yaml:"notify_testers,omitempty"`
	Destinations    []DestinationID `json:"destinations,omitempty"     yaml:"destinations,omitempty"`
	Build           *BuildInfo      `json:"build,omitempty"            yaml:"build,omitempty"`
}

// LoadReleaseDefinition reads a release definition from a YAML file.
func LoadReleaseDefinition(path string) (*ReleaseDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading release definition: %w", err)
	}

	var definition ReleaseDefinition

	err = yaml.Unmarshal(data, &definition)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReleaseDefinition, err)
	}

	return &definition, nil
}
