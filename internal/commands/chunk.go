// Package commands implements the CLI commands
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chisel/internal/app"
	"github.com/tildaslashalef/chisel/internal/chunker"
	"github.com/tildaslashalef/chisel/internal/utils"
)

// ChunkCommand returns the CLI command for chunking a single file
func ChunkCommand() *cli.Command {
	return &cli.Command{
		Name:      "chunk",
		Usage:     "Chunk a single source file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Emit the chunks as JSON",
			},
			&cli.StringFlag{
				Name:  "ext",
				Usage: "Override the extension hint used for language selection (e.g. .go)",
			},
			&cli.BoolFlag{
				Name:  "text",
				Usage: "Print the full text of every chunk",
			},
		},
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return err
			}

			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one file argument")
			}
			path := c.Args().First()

			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			ext := c.String("ext")
			if ext == "" {
				ext = filepath.Ext(path)
			}

			result := application.Chunker.ChunkDocument(c.Context, chunker.Document{
				Text: string(content),
				Ext:  ext,
			})

			if c.Bool("json") {
				return printResultJSON(path, result)
			}

			printResultTable(path, result, c.Bool("text"))
			return nil
		},
	}
}

type chunkOutput struct {
	Path     string          `json:"path"`
	Language string          `json:"language"`
	Fallback bool            `json:"fallback"`
	Chunks   []chunker.Chunk `json:"chunks"`
}

func printResultJSON(path string, result *chunker.Result) error {
	out := chunkOutput{
		Path:     path,
		Language: result.Language,
		Fallback: result.Fallback,
		Chunks:   result.Chunks,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printResultTable(path string, result *chunker.Result, fullText bool) {
	utils.PrintHeading(path)
	utils.PrintKeyValue("Language", result.Language)
	utils.PrintKeyValue("Fallback", fmt.Sprintf("%t", result.Fallback))
	utils.PrintKeyValue("Chunks", fmt.Sprintf("%d", len(result.Chunks)))

	rows := make([][]string, 0, len(result.Chunks))
	for i, chunk := range result.Chunks {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", chunk.Start),
			fmt.Sprintf("%d", chunk.End),
			fmt.Sprintf("%d", chunk.Len()),
			previewText(chunk.Text),
		})
	}
	utils.PrintTable("", []string{"#", "Start", "End", "Size", "Preview"}, rows)

	if fullText {
		for i, chunk := range result.Chunks {
			utils.PrintDivider()
			utils.PrintKeyValue("Chunk", fmt.Sprintf("%d [%d, %d)", i, chunk.Start, chunk.End))
			fmt.Println(chunk.Text)
		}
	}
}

// previewText returns the first line of a chunk, truncated for table display
func previewText(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const maxPreview = 60
	if len(s) > maxPreview {
		s = s[:maxPreview] + "…"
	}
	return s
}
