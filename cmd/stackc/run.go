package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iley/stackc/internal/ir"
)

var runCmd = &cobra.Command{
	Use:   "run <file.calc>",
	Short: "Interpret a program and print its variables",
	Long:  "Compile a program to IR, execute it with the reference interpreter and print the final value of every variable.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, _, err := newCompiler()
		if err != nil {
			return err
		}
		source, err := readSource(args[0])
		if err != nil {
			return err
		}

		result, err := c.Frontend(source)
		if err != nil {
			return err
		}
		vars, err := ir.Run(result.Optimized)
		if err != nil {
			return fmt.Errorf("runtime error: %w", err)
		}

		for _, line := range formatVariables(vars) {
			fmt.Println(line)
		}
		return nil
	},
}
