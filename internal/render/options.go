// Package render turns assistant replies into styled terminal output.
package render

import (
	"os"

	"github.com/diogo/gptchat/internal/config"
)

// StyleEnvVar overrides the configured markdown style
const StyleEnvVar = "GLAMOUR_STYLE"

// Options configures the markdown renderer
type Options struct {
	// Width is the word wrap column
	Width int

	// Style is a glamour style name ("dark", "light", "notty", ...) or a path to a JSON style
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the default configuration
func DefaultOptions() Options {
	md := config.DefaultMarkdownConfig()
	return Options{
		Width:            80,
		Style:            md.Style,
		EnableEmoji:      md.EnableEmoji,
		PreserveNewLines: md.PreserveNewLines,
		TableWrap:        md.TableWrap,
		InlineTableLinks: md.InlineTableLinks,
	}
}

// OptionsFromConfig maps the markdown section of the user config onto
// Options. GLAMOUR_STYLE takes precedence over the configured style.
func OptionsFromConfig(md config.MarkdownConfig) Options {
	opts := DefaultOptions()
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	if style := os.Getenv(StyleEnvVar); style != "" {
		opts.Style = style
	}
	return opts
}

// WithWidth returns Options with the specified width
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}
