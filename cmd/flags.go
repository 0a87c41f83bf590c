package cmd

import (
	"fmt"
	"strings"

	"github.com/conneroisu/templmd/internal/config"
	"github.com/conneroisu/templmd/internal/highlight"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RenderFlags are the render overrides shared by render, serve and watch.
// They are applied on top of the loaded configuration, and only when set.
type RenderFlags struct {
	NoSanitize  bool
	NoGFM       bool
	NoMath      bool
	Mermaid     bool
	NoHighlight bool
	ShieldMode  string
	StylesFile  string
	ClassName   string
	Theme       string
	Components  []string

	flags *pflag.FlagSet
}

// AddRenderFlags adds the render flags to a command
func AddRenderFlags(cmd *cobra.Command) *RenderFlags {
	f := &RenderFlags{flags: cmd.Flags()}

	cmd.Flags().BoolVar(&f.NoSanitize, "no-sanitize", false, "Skip HTML sanitization (trusted input only)")
	cmd.Flags().BoolVar(&f.NoGFM, "no-gfm", false, "Disable GitHub flavored markdown extensions")
	cmd.Flags().BoolVar(&f.NoMath, "no-math", false, "Disable $inline$ and $$display$$ math")
	cmd.Flags().BoolVar(&f.Mermaid, "mermaid", false, "Render ```mermaid blocks as diagrams")
	cmd.Flags().BoolVar(&f.NoHighlight, "no-highlight", false, "Disable syntax highlighting of code blocks")
	cmd.Flags().StringVar(&f.ShieldMode, "shield-mode", "", "Code shielding strategy (inline, placeholder)")
	cmd.Flags().StringVar(&f.StylesFile, "styles-file", "", "YAML file of style key to class list overrides")
	cmd.Flags().StringVar(&f.ClassName, "class", "", "Class of the wrapping <div>")
	cmd.Flags().StringVar(&f.Theme, "theme", "", "Chroma theme for code blocks")
	cmd.Flags().StringSliceVarP(&f.Components, "components", "c", nil, "Only enable these components (comma separated)")

	return f
}

func (f *RenderFlags) changed(name string) bool {
	return f.flags != nil && f.flags.Changed(name)
}

// Apply copies every flag the user set onto cfg.
func (f *RenderFlags) Apply(cfg *config.Config) error {
	if f.NoSanitize {
		cfg.Render.Sanitize = false
	}
	if f.NoGFM {
		cfg.Render.GFM = false
	}
	if f.NoMath {
		cfg.Render.Math = false
	}
	if f.Mermaid {
		cfg.Render.Mermaid = true
	}
	if f.NoHighlight {
		cfg.Highlighter.Disabled = true
	}
	if f.changed("shield-mode") {
		cfg.Render.ShieldMode = f.ShieldMode
	}
	if f.changed("styles-file") {
		cfg.Render.StylesFile = f.StylesFile
	}
	if f.changed("class") {
		cfg.Render.ClassName = f.ClassName
	}
	if f.changed("theme") {
		if !highlight.KnownTheme(f.Theme) {
			return fmt.Errorf("unknown theme %q", f.Theme)
		}
		cfg.Highlighter.Theme = f.Theme
	}
	if f.changed("components") {
		cfg.Components.Enabled = f.Components
	}
	return nil
}

// ValidateFormat checks an output format against the supported ones.
func ValidateFormat(format string, valid []string) error {
	for _, v := range valid {
		if format == v {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %s, must be one of: %s", format, strings.Join(valid, ", "))
}
