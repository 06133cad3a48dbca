// Command gptchat is a terminal chat client for the OpenAI chat completions API.
package main

import "github.com/diogo/gptchat/internal/commands"

func main() {
	commands.Execute()
}
