// Package config loads mobench's run-config and device-matrix files: YAML
// documents whose `${VAR}` tokens are expanded from the environment before
// parsing, so CI pipelines can inject secrets without templating the YAML
// itself.
package config

import (
	"os"

	"github.com/a8m/envsubst"
	"gopkg.in/yaml.v3"

	"github.com/worldcoin/mobench/internal/skerr"
	"github.com/worldcoin/mobench/internal/types"
)

// RunConfig is the on-disk shape of a `mobench init`-generated config file.
// Every field is optional; CLI flags override whatever is set here.
type RunConfig struct {
	Target     types.Target `yaml:"target"`
	Function   string       `yaml:"function"`
	Iterations uint32       `yaml:"iterations"`
	Warmup     uint32       `yaml:"warmup"`
	Profile    types.Profile `yaml:"profile"`
	CratePath  string       `yaml:"crate_path"`
	OutputDir  string       `yaml:"output_dir"`

	BrowserStack BrowserStackConfig `yaml:"browserstack"`
}

// BrowserStackConfig carries device-farm credentials, falling back to
// environment variables documented in the CLI's recognized-environment
// table when a field is empty.
type BrowserStackConfig struct {
	Username  string `yaml:"username"`
	AccessKey string `yaml:"access_key"`
	Project   string `yaml:"project"`
}

// ResolveCredentials fills in any empty fields from the environment.
func (b BrowserStackConfig) ResolveCredentials() BrowserStackConfig {
	if b.Username == "" {
		b.Username = os.Getenv("BROWSERSTACK_USERNAME")
	}
	if b.AccessKey == "" {
		b.AccessKey = os.Getenv("BROWSERSTACK_ACCESS_KEY")
	}
	if b.Project == "" {
		b.Project = os.Getenv("BROWSERSTACK_PROJECT")
	}
	return b
}

// DeviceMatrix is the on-disk shape of a `mobench plan`-generated device
// list, optionally tagged for filtering.
type DeviceMatrix struct {
	Devices []DeviceEntry `yaml:"devices"`
}

// DeviceEntry is one device-matrix row.
type DeviceEntry struct {
	Spec string   `yaml:"spec"`
	Tags []string `yaml:"tags"`
}

// FilterByTags returns the subset of m.Devices that carries at least one of
// the given tags. An empty tags slice returns every device unfiltered.
func (m DeviceMatrix) FilterByTags(tags []string) []DeviceEntry {
	if len(tags) == 0 {
		return m.Devices
	}
	want := map[string]bool{}
	for _, t := range tags {
		want[t] = true
	}
	var out []DeviceEntry
	for _, d := range m.Devices {
		for _, t := range d.Tags {
			if want[t] {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// LoadRunConfig reads and parses a run-config YAML file, expanding ${VAR}
// tokens from the environment before unmarshaling.
func LoadRunConfig(path string) (*RunConfig, error) {
	raw, err := expand(path)
	if err != nil {
		return nil, err
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, skerr.Wrapf(err, "parsing run config %s", path)
	}
	cfg.BrowserStack = cfg.BrowserStack.ResolveCredentials()
	return &cfg, nil
}

// LoadDeviceMatrix reads and parses a device-matrix YAML file, expanding
// ${VAR} tokens from the environment before unmarshaling.
func LoadDeviceMatrix(path string) (*DeviceMatrix, error) {
	raw, err := expand(path)
	if err != nil {
		return nil, err
	}
	var dm DeviceMatrix
	if err := yaml.Unmarshal(raw, &dm); err != nil {
		return nil, skerr.Wrapf(err, "parsing device matrix %s", path)
	}
	return &dm, nil
}

func expand(path string) ([]byte, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, skerr.Wrapf(err, "reading config file %s", path)
	}
	expanded, err := envsubst.Bytes(contents)
	if err != nil {
		return nil, skerr.Wrapf(err, "expanding ${VAR} tokens in %s", path)
	}
	return expanded, nil
}
