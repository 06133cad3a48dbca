package commands

import (
	"strings"
	"testing"

	"github.com/diogo/gptchat/internal/api"
	"github.com/diogo/gptchat/internal/config"
)

func TestRootCommand_Metadata(t *testing.T) {
	cmd := NewRootCmd(NewDependencies())

	if cmd.Use != "gptchat" {
		t.Errorf("Use = %q", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"chat", "config"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	for _, arg := range []string{"-v", "--version"} {
		t.Run(arg, func(t *testing.T) {
			env := newTestEnv(t, "sk-valid123", "", api.NewMockCompletionClient("hi"))
			cmd := NewRootCmd(env.deps)
			cmd.SetArgs([]string{arg})

			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() returned error: %v", err)
			}
			if !strings.HasPrefix(env.stdout.String(), "gptchat "+Version) {
				t.Errorf("stdout = %q", env.stdout.String())
			}
			if env.clientCalls != 0 {
				t.Error("--version must not start a session")
			}
		})
	}
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	env := newTestEnv(t, "sk-valid123", "", api.NewMockCompletionClient("hi"))
	cmd := NewRootCmd(env.deps)
	cmd.SetArgs([]string{"hello"})

	if err := cmd.Execute(); err == nil {
		t.Error("positional arguments should be rejected")
	}
}

func TestRootCommand_DefaultRunsChat(t *testing.T) {
	mock := api.NewMockCompletionClient("Hi there!")
	env := newTestEnv(t, "sk-valid123", "Hello\n", mock)
	cmd := NewRootCmd(env.deps)
	cmd.SetArgs([]string{"--plain"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", mock.Calls())
	}
}

func TestChatCommand_ModelFlag(t *testing.T) {
	env := newTestEnv(t, "sk-valid123", "", api.NewMockCompletionClient("hi"))
	env.deps.IsTerminal = func() bool { return true }
	cmd := NewRootCmd(env.deps)
	cmd.SetArgs([]string{"chat", "--model", "gpt-4o-mini"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if env.tui.modelName != "gpt-4o-mini" {
		t.Errorf("modelName = %q", env.tui.modelName)
	}
}

func TestChatCommand_ConfigErrorExitsNonZero(t *testing.T) {
	env := newTestEnv(t, "", "Hello\n", api.NewMockCompletionClient("unused"))
	cmd := NewRootCmd(env.deps)
	cmd.SetArgs([]string{"chat"})

	if err := cmd.Execute(); err == nil {
		t.Error("line mode without a key should fail")
	}
}

func TestConfigCommand(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		want       []string
		notWant    []string
	}{
		{
			name:       "valid key",
			credential: "sk-valid123",
			want:       []string{"Config file:", "Log file:", "TUI theme:", "tokyonight", "Markdown style:", "dracula", "sk-va...", "(ok)"},
			notWant:    []string{"sk-valid123", "To fix this issue:"},
		},
		{
			name:       "missing key",
			credential: "",
			want:       []string{"<missing>", "To fix this issue:", "API Key Error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.credential, "", api.NewMockCompletionClient("unused"))
			cmd := NewRootCmd(env.deps)
			cmd.SetArgs([]string{"config"})

			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() returned error: %v", err)
			}

			out := env.stdout.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output must not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestConfigCommand_SavesSettings(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantTheme string
		wantStyle string
	}{
		{"theme", []string{"config", "--theme", "nord"}, "nord", "dark"},
		{"markdown style", []string{"config", "--markdown-style", "light"}, "tokyonight", "light"},
		{"both", []string{"config", "--theme", "catppuccin", "--markdown-style", "dracula"}, "catppuccin", "dracula"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "sk-valid123", "", api.NewMockCompletionClient("unused"))
			cmd := NewRootCmd(env.deps)
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() returned error: %v", err)
			}
			if len(env.saved) != 1 {
				t.Fatalf("SaveConfig calls = %d, want 1", len(env.saved))
			}
			saved := env.saved[0]
			if saved.TUITheme != tt.wantTheme {
				t.Errorf("TUITheme = %q, want %q", saved.TUITheme, tt.wantTheme)
			}
			if saved.Markdown.Style != tt.wantStyle {
				t.Errorf("Markdown.Style = %q, want %q", saved.Markdown.Style, tt.wantStyle)
			}
			if !strings.Contains(env.stdout.String(), "Configuration saved.") {
				t.Errorf("stdout = %q", env.stdout.String())
			}
		})
	}
}

func TestConfigCommand_RejectsUnknownSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"theme", []string{"config", "--theme", "solarized"}},
		{"markdown style", []string{"config", "--markdown-style", "no-such-style"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "sk-valid123", "", api.NewMockCompletionClient("unused"))
			cmd := NewRootCmd(env.deps)
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); err == nil {
				t.Error("unknown setting should be rejected")
			}
			if len(env.saved) != 0 {
				t.Error("nothing may be saved for an unknown setting")
			}
		})
	}
}

func TestConfigCommand_WritesConfigFile(t *testing.T) {
	env := newTestEnv(t, "sk-valid123", "", api.NewMockCompletionClient("unused"))
	env.deps.LoadConfig = config.LoadConfig
	env.deps.SaveConfig = config.SaveConfig
	cmd := NewRootCmd(env.deps)
	cmd.SetArgs([]string{"config", "--theme", "nord"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.TUITheme != "nord" {
		t.Errorf("TUITheme = %q, want nord", cfg.TUITheme)
	}
}
