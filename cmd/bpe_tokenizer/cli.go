package main

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/wbrown/byte_bpe"
)

func loadTokenizer(cmd *cobra.Command) (*byte_bpe.Tokenizer, error) {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	vocabPath, _ := flags.GetString("vocab")
	mergesPath, _ := flags.GetString("merges")
	specialsPath, _ := flags.GetString("specials")
	cacheSize, _ := flags.GetInt("cache")

	var opts []byte_bpe.Option
	if flags.Changed("cache") || dir == "" {
		opts = append(opts, byte_bpe.WithCache(cacheSize))
	}
	switch {
	case dir != "":
		return byte_bpe.LoadFromDir(dir, opts...)
	case vocabPath != "" && mergesPath != "":
		return byte_bpe.LoadFromFiles(vocabPath, mergesPath, specialsPath,
			opts...)
	default:
		return nil, errors.New("either --dir or both --vocab and " +
			"--merges are required")
	}
}

func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:   "bpe_tokenizer",
		Short: "Byte-level BPE tokenizer",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "d", "",
		"directory holding vocab.json, merges.json and optional specials")
	flags.String("vocab", "", "vocabulary file, used without --dir")
	flags.String("merges", "", "merges file, used without --dir")
	flags.String("specials", "",
		"special tokens file, JSON array or .txt with one per line")
	flags.Int("cache", byte_bpe.BPE_LRU_SZ,
		"number of pre-token units to cache, 0 to disable")

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newInspectCmd(),
		newSplitCmd(),
		newReplCmd(),
	)
	return rootCmd
}
