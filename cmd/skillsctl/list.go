package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every skill discovered under --roots",
	RunE:  runList,
}

func runList(_ *cobra.Command, _ []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}
	for _, d := range repo.List() {
		fmt.Printf("%-30s %s\n", d.Name, d.Description)
	}
	return nil
}
