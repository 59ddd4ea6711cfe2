package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:    3000,
		Burst:   1,
		Verbose: BoolPtr(false),
		NoColor: BoolPtr(false),
		Watch:   BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Port == defaults.Port &&
		c.Routes == defaults.Routes &&
		len(c.Metadata) == 0 &&
		c.EnvFile == defaults.EnvFile &&
		c.EnvPrefix == defaults.EnvPrefix &&
		c.Delay == defaults.Delay &&
		c.RateLimit == defaults.RateLimit &&
		c.Burst == defaults.Burst &&
		c.JournalPath == defaults.JournalPath &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.GetWatch() == defaults.GetWatch()
}
