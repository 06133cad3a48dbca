package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/gptchat/internal/config"
	"github.com/diogo/gptchat/internal/render"
)

// configUpdate holds the settings `gptchat config` may write
type configUpdate struct {
	theme         string
	markdownStyle string
}

func (u configUpdate) empty() bool {
	return u.theme == "" && u.markdownStyle == ""
}

func newConfigCmd(deps *Dependencies) *cobra.Command {
	var update configUpdate

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration and API key status",
		Long: `Print the configuration and log file locations, the active themes and
whether a usable API key was found. The key itself is never printed.

With --theme or --markdown-style the setting is saved to the config file first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !update.empty() {
				if err := saveConfigUpdate(deps, update); err != nil {
					return err
				}
			}
			return runConfigStatus(deps)
		},
	}

	cmd.Flags().StringVar(&update.theme, "theme", "", "Save the TUI theme ("+strings.Join(render.TUIThemeNames(), ", ")+")")
	cmd.Flags().StringVar(&update.markdownStyle, "markdown-style", "", "Save the markdown style (built-in name or JSON file path)")

	return cmd
}

// saveConfigUpdate validates u and writes it over the current config
func saveConfigUpdate(deps *Dependencies, u configUpdate) error {
	if u.theme != "" {
		if _, ok := render.TUIThemeByName(u.theme); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", u.theme, strings.Join(render.TUIThemeNames(), ", "))
		}
	}
	if u.markdownStyle != "" && !render.ValidStyle(u.markdownStyle) {
		return fmt.Errorf("unknown markdown style %q (available: %s)", u.markdownStyle, strings.Join(render.MarkdownStyles(), ", "))
	}

	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("refusing to overwrite unreadable config: %w", err)
	}
	if u.theme != "" {
		cfg.TUITheme = u.theme
	}
	if u.markdownStyle != "" {
		cfg.Markdown.Style = u.markdownStyle
	}

	if err := deps.SaveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, "Configuration saved.")
	return nil
}

// themeFor returns the theme cfg selects, or the active one when it names none
func themeFor(cfg config.Config) render.TUITheme {
	if theme, ok := render.TUIThemeByName(cfg.TUITheme); ok {
		return theme
	}
	return render.GetTUITheme()
}

func runConfigStatus(deps *Dependencies) error {
	w := deps.Stdout

	cfg, cfgErr := deps.LoadConfig()
	styles := newLineStyles(themeFor(cfg))

	configPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	logPath, err := config.GetLogPath(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Config file:     %s\n", configPath)
	if cfgErr != nil {
		fmt.Fprintf(w, "                 %s\n", styles.dim.Render("unreadable, using defaults: "+cfgErr.Error()))
	}
	fmt.Fprintf(w, "Log file:        %s\n", logPath)
	fmt.Fprintf(w, "TUI theme:       %s (available: %s)\n", cfg.TUITheme, strings.Join(render.TUIThemeNames(), ", "))
	fmt.Fprintf(w, "Markdown style:  %s (available: %s)\n",
		render.OptionsFromConfig(cfg.Markdown).Style, strings.Join(render.MarkdownStyles(), ", "))

	credential, envErr := deps.LoadCredential()
	if envErr != nil {
		fmt.Fprintf(w, "Env file:        %s\n", styles.dim.Render(envErr.Error()))
	}

	if err := config.ValidateCredential(credential); err != nil {
		fmt.Fprintf(w, "API key:         %s (%v)\n\n", config.MaskCredential(credential), err)
		printRemediation(w, nil, styles)
		return nil
	}

	fmt.Fprintf(w, "API key:         %s (ok)\n", config.MaskCredential(credential))
	return nil
}
