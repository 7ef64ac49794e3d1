// Package frontmatter splits a leading metadata block off a content file and
// decodes it.
//
// A block opens with a line that is exactly "---" and runs until the first
// line that is empty or exactly "---". The block is decoded as TOML or YAML.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Delimiter is the line that opens (and may close) a front-matter block.
const Delimiter = "---"

// Format names the structured format of a front-matter block.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnterminated indicates the text opened a block but no terminator
	// line was found before the end of input.
	ErrUnterminated = errors.New("front matter block opened with --- but never closed")

	// ErrUnknownFormat indicates a Format other than toml or yaml.
	ErrUnknownFormat = errors.New("unknown front matter format")
)

// Block is the result of splitting a content file.
type Block struct {
	// Raw holds the consumed block lines, each followed by "\n".
	Raw string
	// Body is the text after the block, trimmed of surrounding whitespace.
	Body string
	// Had is true when the text opened with a delimiter line.
	Had bool
	// Terminated is true when an empty or delimiter line closed the block.
	Terminated bool
}

// Split separates the front-matter block from the body of content.
//
// The content is trimmed first. If its first line is not exactly the
// delimiter, Had is false and Body is the whole trimmed text. Otherwise
// lines are consumed into Raw until an empty or delimiter line; the rest,
// re-joined with "\n" and trimmed, becomes Body. An unterminated block
// consumes everything and leaves Body empty.
func Split(content string) Block {
	trimmed := strings.TrimSpace(content)
	lines := splitLines(trimmed)
	if len(lines) == 0 || lines[0] != Delimiter {
		return Block{Body: trimmed}
	}

	var raw strings.Builder
	block := Block{Had: true}
	i := 1
	for i < len(lines) {
		line := lines[i]
		i++
		if line == "" || line == Delimiter {
			block.Terminated = true
			break
		}
		raw.WriteString(line)
		raw.WriteByte('\n')
	}

	block.Raw = raw.String()
	block.Body = strings.TrimSpace(strings.Join(lines[i:], "\n"))
	return block
}

// Err reports ErrUnterminated for an opened but unclosed block.
func (b Block) Err() error {
	if b.Had && !b.Terminated {
		return ErrUnterminated
	}
	return nil
}

// splitLines splits on "\n" and drops a trailing "\r" from every line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Decode decodes a raw block into v using the given format.
func Decode(format Format, raw string, v any) error {
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(raw, v); err != nil {
			return fmt.Errorf("decode toml front matter: %w", err)
		}
		return nil
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(raw), v); err != nil {
			return fmt.Errorf("decode yaml front matter: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DecodeParams decodes a raw block into a generic map. An empty block yields
// an empty, non-nil map.
func DecodeParams(format Format, raw string) (map[string]any, error) {
	fields := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return fields, nil
	}
	if err := Decode(format, raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
