package config

import "time"

// Config is the optional YAML configuration file.
type Config struct {
	Defaults Defaults      `yaml:"defaults"`
	Timeout  time.Duration `yaml:"timeout"`
	Sources  []Source      `yaml:"sources"`
}

// Defaults are the account fallbacks used when a connection string omits them.
type Defaults struct {
	Username string `yaml:"username"`
	APIKey   string `yaml:"apiKey"`
	Hostname string `yaml:"hostname"`
}

// Source is a named connection string.
type Source struct {
	Name string `yaml:"name" json:"name"`
	URI  string `yaml:"uri" json:"uri"`
}

// Lookup returns the source called name.
func (c Config) Lookup(name string) (Source, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}
