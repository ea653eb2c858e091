package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	agentskills "github.com/kaija/agent-skills-runtime"
	"github.com/kaija/agent-skills-runtime/spec"
)

var runArgs []string
var runTimeoutS int

var runCmd = &cobra.Command{
	Use:   "run <skill> <script>",
	Short: "Execute a script under a skill's scripts/ directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringSliceVar(&runArgs, "args", nil, "arguments passed to the script")
	runCmd.Flags().IntVar(&runTimeoutS, "timeout", 0, "timeout in seconds (0 uses the policy default)")
}

func runRun(_ *cobra.Command, args []string) error {
	skill, script := args[0], args[1]

	policy := spec.DefaultExecutionPolicy()
	policy.Enabled = true
	policy.AllowSkills = map[string]bool{skill: true}
	policy.AllowScriptsGlob = []string{"scripts/*"}

	repo, err := openRepository(agentskills.WithExecutionPolicy(policy))
	if err != nil {
		return err
	}
	handle, err := repo.Open(skill)
	if err != nil {
		return withExitCode(2, err)
	}
	sess := repo.Sessions().Create()

	var timeout *int
	if runTimeoutS > 0 {
		timeout = &runTimeoutS
	}
	result, err := handle.RunScript(context.Background(), sess, script, runArgs, nil, timeout)
	if err != nil {
		return withExitCode(1, err)
	}

	fmt.Print(result.Stdout)
	if result.Stderr != "" {
		fmt.Println(result.Stderr)
	}
	if result.ExitCode != 0 {
		return withExitCode(3, fmt.Errorf("%w: exit code %d", spec.ErrScriptFailed, result.ExitCode))
	}
	return nil
}
