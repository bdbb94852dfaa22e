package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/HowardHan99/codesignbot-sub000/internal/decision"
)

// treeInput is the file format read by the tree command.
type treeInput struct {
	Notes       []decision.Note       `json:"notes"`
	Connections []decision.Connection `json:"connections"`
}

func newTreeCmd(a *app) *cobra.Command {
	var (
		format string
		keyBy  string
	)

	cmd := &cobra.Command{
		Use:   "tree <file|->",
		Short: "Render a decision forest from a JSON export",
		Long: `Build the decision forest from a JSON file of the form
{"notes": [{"id": "...", "content": "..."}], "connections": [{"from": "...", "to": "..."}]}
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readTreeInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if keyBy == "" {
				keyBy = a.cfg.Tree.KeyBy
			}
			var keyer decision.Keyer
			switch keyBy {
			case "content":
				keyer = decision.ContentKeyer{}
			case "id":
				keyer = decision.IDKeyer{}
			default:
				return fmt.Errorf("unknown --key-by %q (want content or id)", keyBy)
			}

			forest := decision.NewBuilder(keyer, a.logger).Build(in.Notes, in.Connections)

			out := cmd.OutOrStdout()
			switch format {
			case "markdown":
				_, err = io.WriteString(out, decision.Render(forest))
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(forest)
			default:
				return fmt.Errorf("unknown --format %q (want markdown or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "markdown or json")
	cmd.Flags().StringVar(&keyBy, "key-by", "", "match connectors by content or id (default from config)")
	return cmd
}

func readTreeInput(stdin io.Reader, path string) (*treeInput, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var in treeInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &in, nil
}
