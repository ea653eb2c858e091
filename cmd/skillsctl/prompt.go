package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaija/agent-skills-runtime/internal/catalogxml"
)

var promptFormat string
var promptIncludeLocation bool

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the catalog for embedding into an agent system prompt",
	RunE:  runPrompt,
}

func init() {
	promptCmd.Flags().StringVar(&promptFormat, "format", "claude_xml", "output format: claude_xml or json")
	promptCmd.Flags().BoolVar(&promptIncludeLocation, "include-location", false, "include each skill's filesystem path")
}

func runPrompt(_ *cobra.Command, _ []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}
	out, err := repo.ToPrompt(catalogxml.Format(promptFormat), promptIncludeLocation)
	if err != nil {
		return withExitCode(1, err)
	}
	fmt.Println(out)
	return nil
}
