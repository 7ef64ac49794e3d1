package config

import (
	"fmt"
	"sort"
	"strings"
)

// FrontMatterFormat names the structured format of front-matter blocks.
type FrontMatterFormat string

const (
	FrontMatterTOML FrontMatterFormat = "toml"
	FrontMatterYAML FrontMatterFormat = "yaml"
)

// ErrorPolicy decides what the renderer does after a page fails.
type ErrorPolicy string

const (
	ErrorPolicyContinue ErrorPolicy = "continue" // render everything, report failures at the end
	ErrorPolicyAbort    ErrorPolicy = "abort"    // stop scheduling pages after the first failure
)

// normalizer provides type-safe string-to-enum normalization.
type normalizer[T ~string] struct {
	values       map[string]T
	defaultValue T
}

func newNormalizer[T ~string](values map[string]T, defaultValue T) *normalizer[T] {
	return &normalizer[T]{values: values, defaultValue: defaultValue}
}

// Normalize returns the enum value for raw, or the default when unrecognised.
func (n *normalizer[T]) Normalize(raw string) T {
	if v, ok := n.lookup(raw); ok {
		return v
	}
	return n.defaultValue
}

func (n *normalizer[T]) lookup(raw string) (T, bool) {
	v, ok := n.values[strings.ToLower(strings.TrimSpace(raw))]
	return v, ok
}

func (n *normalizer[T]) validKeys() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var frontMatterNormalizer = newNormalizer(map[string]FrontMatterFormat{
	"toml": FrontMatterTOML,
	"yaml": FrontMatterYAML,
	"yml":  FrontMatterYAML,
}, FrontMatterTOML)

var errorPolicyNormalizer = newNormalizer(map[string]ErrorPolicy{
	"continue": ErrorPolicyContinue,
	"abort":    ErrorPolicyAbort,
	"failfast": ErrorPolicyAbort,
}, ErrorPolicyContinue)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// Normalize canonicalizes enumerated and bounded fields in place.
//
// Case and whitespace are folded for every enum. Unknown front-matter formats
// and error policies are left untouched so validation rejects them; unknown
// logging values fall back to their defaults with a warning.
func Normalize(c *Config) *NormalizationResult {
	res := &NormalizationResult{}

	if v, ok := frontMatterNormalizer.lookup(string(c.FrontMatter.Format)); ok {
		c.FrontMatter.Format = v
	}
	if v, ok := errorPolicyNormalizer.lookup(string(c.Render.OnError)); ok {
		c.Render.OnError = v
	}

	if _, ok := logLevelNormalizer.lookup(string(c.Logging.Level)); !ok {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(c.Logging.Level), string(LogLevelInfo), logLevelNormalizer.validKeys()))
	}
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))

	if _, ok := logFormatNormalizer.lookup(string(c.Logging.Format)); !ok {
		res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(c.Logging.Format), string(LogFormatText), logFormatNormalizer.validKeys()))
	}
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))

	for i, ext := range c.Layout.ContentExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Layout.ContentExtensions[i] = ext
	}
	for i, f := range c.Markdown.Features {
		c.Markdown.Features[i] = strings.ToLower(strings.TrimSpace(f))
	}

	if c.Render.Workers < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("render.workers: negative value %d clamped to 0", c.Render.Workers))
		c.Render.Workers = 0
	}
	return res
}

func warnUnknown(field, value, fallback string, valid []string) string {
	return fmt.Sprintf("%s: unknown value %q, using %q (valid: %s)", field, value, fallback, strings.Join(valid, ", "))
}
