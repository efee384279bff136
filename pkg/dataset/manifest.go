package dataset

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// CurrentFormatVersion is the dataset format this build reads.
const CurrentFormatVersion = "v1.0.0"

var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Manifest carries the metadata a recorder wrote next to the CSV files.
type Manifest struct {
	Name            string    `yaml:"name"`
	Description     string    `yaml:"description,omitempty"`
	EventTime       time.Time `yaml:"eventTime,omitempty"`
	RecorderVersion string    `yaml:"recorderVersion,omitempty"`
	FormatVersion   string    `yaml:"formatVersion"`
}

// CheckFormatVersion reports whether a dataset written as version
// toCheck can be read by this build. The major versions must match.
func CheckFormatVersion(toCheck string) bool {
	if !strings.HasPrefix(toCheck, "v") {
		toCheck = "v" + toCheck
	}
	if !semver.IsValid(toCheck) {
		return false
	}
	return semver.Major(toCheck) == semver.Major(CurrentFormatVersion)
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ret Manifest
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &ret, nil
}
