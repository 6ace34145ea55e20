// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/vericite/internal/report"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Check papers and citations interactively",
	Long: `Shell reads one input per line: a path to a PDF, a path to a text file
with one citation per line, or a citation typed directly. Type "exit" or
"quit" (or send EOF) to leave.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return repl(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
}

// repl runs the read-check-print loop until EOF, "exit", or cancellation.
// Errors for one input are printed and the loop continues.
func repl(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "vericite %s. Enter a PDF path, a text file, or a citation. Type 'exit' to quit.\n", version)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}

		r, err := a.run(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if r == nil || len(r.Verdicts) == 0 {
				continue
			}
		}
		report.WriteTable(out, r)
	}
}
