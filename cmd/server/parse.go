package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brandon/mcp-mailindex/internal/fetchparse"
	"github.com/brandon/mcp-mailindex/internal/imapwire"
)

func newParseCmd() *cobra.Command {
	var logLevel string
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Decode raw FETCH responses and print them as JSON",
		Long: "Reads \"* n FETCH (...)\" responses, one per line with {n} literals inline,\n" +
			"from file or stdin and prints one JSON object per response.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			parser := fetchparse.New(newLogger(logLevel))
			return parseUnits(in, cmd.OutOrStdout(), parser, keepGoing)
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", logrus.WarnLevel.String(), "log level for parse diagnostics")
	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "skip responses that fail to parse")
	return cmd
}

// parseUnits decodes every unit of r and writes one JSON entry per line to w.
func parseUnits(r io.Reader, w io.Writer, parser *fetchparse.Parser, keepGoing bool) error {
	// A final CRLF lets the last unit end without a newline.
	units := imapwire.NewReader(io.MultiReader(r, strings.NewReader("\r\n")))
	enc := json.NewEncoder(w)

	var failed int
	for n := 1; ; n++ {
		unit, err := units.ReadUnit()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("response %d: %w", n, err)
		}
		if strings.TrimSpace(unit) == "" {
			continue
		}

		entry, err := parser.Parse(unit)
		if err != nil {
			if !keepGoing {
				return fmt.Errorf("response %d: %w", n, err)
			}
			failed++
			continue
		}
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d responses failed to parse", failed)
	}
	return nil
}
