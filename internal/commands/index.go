package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chisel/internal/app"
	"github.com/tildaslashalef/chisel/internal/indexer"
	"github.com/tildaslashalef/chisel/internal/utils"
)

// IndexCommand returns the CLI command for indexing a directory tree
func IndexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Chunk every eligible file under a directory",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Emit run statistics as JSON",
			},
			&cli.BoolFlag{
				Name:  "purge",
				Usage: "Drop cache entries from other commits after the run",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print each file as it is chunked",
			},
		},
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return err
			}

			root := c.Args().First()
			if root == "" {
				root, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("resolving working directory: %w", err)
				}
			}

			var onFile func(indexer.FileResult)
			if c.Bool("verbose") && !c.Bool("json") {
				onFile = func(fr indexer.FileResult) {
					status := "chunked"
					if fr.Cached {
						status = "cached"
					}
					utils.PrintInfo(fmt.Sprintf("%s (%d chunks, %s)", fr.Path, len(fr.Result.Chunks), status))
				}
			}

			stats, err := application.Indexer.IndexDirectory(c.Context, root, onFile)
			if err != nil {
				return fmt.Errorf("indexing %s: %w", root, err)
			}

			if c.Bool("purge") && application.Git.HasGitRepo(root) {
				if err := application.Git.InitRepo(root); err == nil {
					if hash, err := application.Git.HeadCommitHash(); err == nil {
						purged, err := application.Cache.PurgeOtherCommits(c.Context, hash)
						if err != nil {
							utils.PrintWarning(fmt.Sprintf("Cache purge failed: %s", err))
						} else if purged > 0 {
							utils.PrintInfo(fmt.Sprintf("Purged %d stale cache entries", purged))
						}
					}
				}
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			printStats(root, stats)
			return nil
		},
	}
}

func printStats(root string, stats *indexer.Stats) {
	utils.PrintHeading(fmt.Sprintf("Indexed %s", root))
	utils.PrintTable("", []string{"Metric", "Value"}, [][]string{
		{"Files", fmt.Sprintf("%d", stats.Files)},
		{"Chunked", fmt.Sprintf("%d", stats.Chunked)},
		{"From cache", fmt.Sprintf("%d", stats.Cached)},
		{"Skipped", fmt.Sprintf("%d", stats.Skipped)},
		{"Failed", fmt.Sprintf("%d", stats.Failed)},
		{"Total chunks", fmt.Sprintf("%d", stats.Chunks)},
		{"Elapsed", stats.Elapsed.String()},
	})

	if stats.Failed > 0 {
		utils.PrintWarning(fmt.Sprintf("%d file(s) failed, see the log for details", stats.Failed))
	} else {
		utils.PrintSuccess("Indexing complete")
	}
}
