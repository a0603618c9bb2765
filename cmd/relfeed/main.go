package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relfeed",
		Short: "Aggregate product reliability signals into scored reports",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(seedCmd())
	root.AddCommand(collectCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(topCmd())
	root.AddCommand(avoidCmd())
	root.AddCommand(compareCmd())
	root.AddCommand(trendingCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the initial product catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func collectCmd() *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run data collectors for all tracked products",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(sources)
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "specific sources to collect (e.g., reddit,cpsc,ifixit,rss)")
	return cmd
}

func reportCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "report <product-id>",
		Short: "Show the reliability report for one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func topCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "top <category>",
		Short: "Show the most reliable products in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRanking(args[0], n, false)
		},
	}

	cmd.Flags().IntVar(&n, "n", 10, "max products to show")
	return cmd
}

func avoidCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "avoid <category>",
		Short: "Show the least reliable products in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRanking(args[0], n, true)
		},
	}

	cmd.Flags().IntVar(&n, "n", 10, "max products to show")
	return cmd
}

func compareCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "compare <product-id> <product-id> [product-id...]",
		Short: "Compare reliability of multiple products side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(args, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func trendingCmd() *cobra.Command {
	var (
		category string
		n        int
	)

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show issues with the fastest-growing mention counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrending(category, n)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "restrict to one category")
	cmd.Flags().IntVar(&n, "n", 20, "max issues to show")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
