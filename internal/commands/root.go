// Package commands provides the gptchat command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// chatFlags are shared by the root command and the chat subcommand
type chatFlags struct {
	plain   bool
	verbose bool
	model   string
}

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	flags := &chatFlags{}

	root := &cobra.Command{
		Use:   "gptchat",
		Short: "Chat with OpenAI models from the terminal",
		Long: `gptchat is a terminal chat client for the OpenAI chat completions API.

The API key is read from OPENAI_API_KEY, which may be set in a .env file
in the current directory. Each message sends the whole conversation and
waits for the complete reply.

Examples:
  gptchat                       Start the interactive chat
  gptchat --plain               Line mode, one message per line
  echo "What is Go?" | gptchat  Send piped lines and print the replies
  gptchat config                Show configuration and key status`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "gptchat %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return runChat(cmd.Context(), deps, *flags)
		},
	}

	root.PersistentFlags().StringVarP(&flags.model, "model", "m", "", "Model to use (default gpt-3.5-turbo)")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Write debug records to the log file")
	root.PersistentFlags().BoolVar(&flags.plain, "plain", false, "Use line mode even on a terminal")
	root.Flags().BoolP("version", "v", false, "Show version and exit")

	root.AddCommand(newChatCmd(deps, flags))
	root.AddCommand(newConfigCmd(deps))

	return root
}

// rootCmd is the production command tree
var rootCmd = NewRootCmd(NewDependencies())

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
