package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Scan --roots and report every SKILL.md that failed to parse",
	RunE:  runValidate,
}

func runValidate(_ *cobra.Command, _ []string) error {
	repo, err := newRepository()
	if err != nil {
		return err
	}
	descriptors, err := repo.Refresh(context.Background())
	fmt.Printf("%d skill(s) indexed\n", len(descriptors))
	if err != nil {
		return withExitCode(1, err)
	}
	return nil
}
