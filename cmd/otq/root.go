// root.go wires spec §6's CLI surface as a cobra root command, following
// the teacher's cmd/mount.go shape one-for-one: package-level flag vars
// set up in init(), a single positional argument, Version/Commit/Date
// ldflags, and a versionCmd alongside the root's own --version. The
// query logic itself (resolve source, parse path, evaluate, dump) is the
// otq equivalent of pw-dump.c's main(): parse argv, connect, roundtrip,
// dump once or loop under --monitor.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/otquery/dump"
	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/path/eval"
	"github.com/agentic-research/otquery/path/parser"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	optRemote  string
	optPath    bool
	optVerbose bool
	optMonitor bool
	optSQL     string
)

func init() {
	rootCmd.Flags().StringVarP(&optRemote, "remote", "r", "", "Data source: http(s):// registry, git:<path>, a file path, or empty for stdin JSON")
	rootCmd.Flags().BoolVarP(&optPath, "path", "p", false, "Emit matching path locations instead of values")
	rootCmd.Flags().BoolVarP(&optVerbose, "verbose", "v", false, "Echo the received path and its parsed form")
	rootCmd.Flags().BoolVarP(&optMonitor, "monitor", "m", false, "After initial dump, stay running and re-dump on change events")
	rootCmd.Flags().StringVar(&optSQL, "sql", "", "Run a raw SQL query against the source's flattened POD fields instead of evaluating a path")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(serveMCPCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("otq version %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}

var rootCmd = &cobra.Command{
	Use:     "otq [path-expression]",
	Short:   "otq: query and project object trees",
	Args:    cobra.MaximumNArgs(1),
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
	RunE: func(cmd *cobra.Command, args []string) error {
		pathExpr := "$"
		if len(args) > 0 {
			pathExpr = args[0]
		}

		root, err := resolveSource(optRemote)
		if err != nil {
			return err
		}

		if optSQL != "" {
			return runSQL(root, optSQL)
		}

		return runQuery(root, pathExpr)
	},
}

func runQuery(root ot.Node, pathExpr string) error {
	if optVerbose {
		fmt.Printf("parsing %q\n", pathExpr)
	}

	p, err := parser.ParseString(pathExpr)
	if err != nil {
		return fmt.Errorf("otq: %w", err)
	}

	if optVerbose {
		fmt.Printf("parsed: %s\n", dump.Path(p))
	}

	dumpOnce := func() error {
		result := eval.Run(root, p, root)
		if optPath {
			return printPaths(result)
		}
		w := dump.New(os.Stdout)
		if err := w.Dump(result); err != nil {
			return err
		}
		fmt.Println()
		return nil
	}

	if err := dumpOnce(); err != nil {
		return err
	}

	if optMonitor {
		for range time.Tick(time.Second) {
			if err := dumpOnce(); err != nil {
				fmt.Fprintf(os.Stderr, "otq: monitor re-dump failed: %v\n", err)
			}
		}
	}
	return nil
}

// printPaths implements spec §6's "--path" mode: one "$['key']"/"[n]"
// line per match, via dump.Location walking each match's Parent chain.
func printPaths(result ot.Node) error {
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		n, err := ot.Iterate(&result, &cur, &child)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		fmt.Println(dump.Location(&child))
	}
}

// Execute runs the root command, matching the teacher's Execute's
// print-and-exit-1 error style.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
