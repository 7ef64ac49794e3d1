package config

// Overrides carries command-line values that take precedence over the file.
// Zero values leave the loaded setting in place.
type Overrides struct {
	Verbose     bool
	LogFormat   string
	FrontMatter string
	Workers     *int
	OnError     string
}

// Apply overlays o, then normalizes and validates the result again.
func (c *Config) Apply(o Overrides) error {
	if o.Verbose {
		c.Logging.Level = LogLevelDebug
	}
	if o.LogFormat != "" {
		c.Logging.Format = LogFormat(o.LogFormat)
	}
	if o.FrontMatter != "" {
		c.FrontMatter.Format = FrontMatterFormat(o.FrontMatter)
	}
	if o.Workers != nil {
		c.Render.Workers = *o.Workers
	}
	if o.OnError != "" {
		c.Render.OnError = ErrorPolicy(o.OnError)
	}

	res := Normalize(c)
	c.warnings = append(c.warnings, res.Warnings...)
	return Validate(c)
}
