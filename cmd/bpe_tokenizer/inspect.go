package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/types"
)

// writeTokenTable prints one row per token: its id, its piece and the bytes
// of the piece in hex.
func writeTokenTable(out io.Writer, tokenizer *byte_bpe.Tokenizer,
	tokens types.Tokens) error {
	var data [][]string
	for _, token := range tokens {
		piece, err := tokenizer.Vocabulary().Decode(token)
		if err != nil {
			return err
		}
		data = append(data, []string{
			strconv.FormatUint(uint64(token), 10),
			strconv.Quote(piece),
			fmt.Sprintf("% x", piece),
		})
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "PIECE", "BYTES"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <text>",
		Short: "Show the tokens of text, piece by piece",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenizer, err := loadTokenizer(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if tree, _ := cmd.Flags().GetBool("tree"); tree {
				fmt.Fprintln(out, tokenizer.PreTokenizer().SpecialsTree())
				if len(args) == 0 {
					return nil
				}
			}
			if len(args) == 0 {
				return fmt.Errorf("inspect needs text or --tree")
			}
			tokens, err := tokenizer.Encode(args[0])
			if err != nil {
				return err
			}
			return writeTokenTable(out, tokenizer, tokens)
		},
	}
	inspectCmd.Flags().Bool("tree", false, "print the special token trie")
	return inspectCmd
}

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <text>",
		Short: "Show how text is split before merging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenizer, err := loadTokenizer(cmd)
			if err != nil {
				return err
			}
			pre := tokenizer.PreTokenizer()
			out := cmd.OutOrStdout()
			for span := range pre.Spans(args[0]) {
				if span.Kind == byte_bpe.SpanSpecial {
					fmt.Fprintf(out, "%s\t%q\n", span.Kind, span.Text)
					continue
				}
				for word := range pre.Words(span.Text) {
					fmt.Fprintf(out, "%s\t%q\n", span.Kind, word)
				}
			}
			return nil
		},
	}
}

// A REPL for interacting with the tokenizer. A literal `\n` in the input is
// read as a newline.
func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Encode lines read interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenizer, err := loadTokenizer(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			reader := bufio.NewReader(cmd.InOrStdin())
			for {
				fmt.Fprint(out, ">>> ")
				input, readErr := reader.ReadString('\n')
				if readErr != nil && input == "" {
					if readErr == io.EOF {
						fmt.Fprintln(out)
						return nil
					}
					return readErr
				}
				input = strings.TrimSuffix(input, "\n")
				input = strings.ReplaceAll(input, "\\n", "\n")

				tokens, err := tokenizer.Encode(input)
				if err != nil {
					fmt.Fprintln(out, err)
					continue
				}
				fmt.Fprintf(out, "%v\n", tokens)
				for _, token := range tokens {
					piece, _ := tokenizer.Vocabulary().Decode(token)
					fmt.Fprintf(out, "|%s", piece)
				}
				fmt.Fprintf(out, "\n")
			}
		},
	}
}
