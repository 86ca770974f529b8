package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/types"
	"golang.org/x/sync/errgroup"
)

const (
	formatJSON  = "json"
	formatBin16 = "bin16"
	formatBin32 = "bin32"
)

func marshalTokens(tokens types.Tokens, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		encoded, err := json.Marshal(tokens)
		if err != nil {
			return nil, err
		}
		return append(encoded, '\n'), nil
	case formatBin16:
		return tokens.ToBin(false)
	case formatBin32:
		return tokens.ToBin(true)
	default:
		return nil, fmt.Errorf("unknown token format %q", format)
	}
}

func unmarshalTokens(data []byte, format string) (types.Tokens, error) {
	switch format {
	case formatJSON:
		tokens := make(types.Tokens, 0)
		if err := json.Unmarshal(data, &tokens); err != nil {
			return nil, fmt.Errorf("%w: %w", byte_bpe.ErrParse, err)
		}
		return tokens, nil
	case formatBin16:
		return types.TokensFromBin(data)
	case formatBin32:
		return types.TokensFromBin32(data)
	default:
		return nil, fmt.Errorf("unknown token format %q", format)
	}
}

// encodeInput encodes all of reader at once, so units are split exactly as
// Encode splits them.
func encodeInput(tokenizer *byte_bpe.Tokenizer,
	reader io.Reader) (types.Tokens, error) {
	input, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", byte_bpe.ErrIO, err)
	}
	return tokenizer.Encode(string(input))
}

func encodeFile(tokenizer *byte_bpe.Tokenizer, inputPath, format string) error {
	begin := time.Now()
	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("%w: %w", byte_bpe.ErrIO, err)
	}
	defer input.Close()
	tokens, err := encodeInput(tokenizer, input)
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}
	encoded, err := marshalTokens(tokens, format)
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}
	outputPath := inputPath + ".tokens"
	if err := os.WriteFile(outputPath, encoded, 0644); err != nil {
		return fmt.Errorf("%w: %w", byte_bpe.ErrIO, err)
	}
	log.Printf("%s: %s tokens, %s written to %s in %s", inputPath,
		humanize.Comma(int64(len(tokens))),
		humanize.Bytes(uint64(len(encoded))), outputPath,
		time.Since(begin).Round(time.Millisecond))
	return nil
}

func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode [files...]",
		Short: "Encode text to token ids",
		Long: "Encode --text, standard input, or each file argument. Files " +
			"are written next to their input with a .tokens suffix.",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			jobs, _ := cmd.Flags().GetInt("jobs")
			tokenizer, err := loadTokenizer(cmd)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				group, _ := errgroup.WithContext(cmd.Context())
				group.SetLimit(jobs)
				for _, inputPath := range args {
					group.Go(func() error {
						return encodeFile(tokenizer, inputPath, format)
					})
				}
				if err := group.Wait(); err != nil {
					return err
				}
				hits, misses := tokenizer.CacheStats()
				log.Printf("cache: %s hits, %s misses",
					humanize.Comma(int64(hits)),
					humanize.Comma(int64(misses)))
				return nil
			}

			var tokens types.Tokens
			if cmd.Flags().Changed("text") {
				text, _ := cmd.Flags().GetString("text")
				tokens, err = tokenizer.Encode(text)
			} else {
				tokens, err = encodeInput(tokenizer, cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			encoded, err := marshalTokens(tokens, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}
	encodeCmd.Flags().StringP("text", "t", "", "text to encode")
	encodeCmd.Flags().StringP("format", "f", formatJSON,
		"output format: json, bin16 or bin32")
	encodeCmd.Flags().IntP("jobs", "j", 4, "files to encode at once")
	return encodeCmd
}

func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode token ids to text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			tokenizer, err := loadTokenizer(cmd)
			if err != nil {
				return err
			}
			var data []byte
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("%w: %w", byte_bpe.ErrIO, err)
			}
			tokens, err := unmarshalTokens(data, format)
			if err != nil {
				return err
			}
			decoded, err := tokenizer.Decode(tokens)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), decoded)
			return err
		},
	}
	decodeCmd.Flags().StringP("format", "f", formatJSON,
		"input format: json, bin16 or bin32")
	return decodeCmd
}
