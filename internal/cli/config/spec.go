package config

// CLIConfig is the on-disk configuration of tokrelay-cli.
type CLIConfig struct {
	// Output is the default --output format.
	Output string `yaml:"output,omitempty"`

	// Current names the profile used when --profile is not given.
	Current string `yaml:"current,omitempty"`

	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile is a saved server connection.
type Profile struct {
	Server string `yaml:"server"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *CLIConfig {
	return &CLIConfig{
		Output:   "table",
		Profiles: make(map[string]Profile),
	}
}

// Profile returns the named profile, or the current one when name is empty.
// The second result reports whether a profile was found.
func (c *CLIConfig) Profile(name string) (Profile, bool) {
	if name == "" {
		name = c.Current
	}
	if name == "" {
		return Profile{}, false
	}
	p, ok := c.Profiles[name]
	return p, ok
}
