package config

// Default returns the configuration used when no file is present. YAML is
// decoded on top of it, so keys left out of a file keep these values.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title:   "Site",
			BaseURL: "/",
		},
		Layout: LayoutConfig{
			IndexFile:         "_index.md",
			PageTemplate:      "template",
			ContentTemplate:   "content",
			ContentExtensions: []string{".md", ".markdown"},
		},
		FrontMatter: FrontMatterConfig{Format: FrontMatterTOML},
		Markdown: MarkdownConfig{
			Features: []string{"gfm", "heading_ids"},
		},
		Render: RenderConfig{
			Workers: 0,
			OnError: ErrorPolicyContinue,
		},
		Output:  OutputConfig{Clean: true},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}
