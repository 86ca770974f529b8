package byte_bpe

import (
	"fmt"
	"path"
	"strings"

	"github.com/wbrown/byte_bpe/resources"
)

// LoadFromFiles builds a Tokenizer from a vocabulary file, a merges file and
// an optional special tokens file; an empty specialsPath means no special
// tokens. A specials file ending in `.txt` holds one token per line,
// otherwise a JSON array. Unreadable files fail with ErrIO, malformed ones
// with ErrParse.
func LoadFromFiles(
	vocabPath, mergesPath, specialsPath string,
	opts ...Option,
) (*Tokenizer, error) {
	rsrcs := make(resources.Resources)
	defer rsrcs.Cleanup()
	if err := rsrcs.AddEntry(resources.VocabFile, vocabPath); err != nil {
		return nil, err
	}
	if err := rsrcs.AddEntry(resources.MergesFile, mergesPath); err != nil {
		return nil, err
	}
	if specialsPath != "" {
		name := resources.SpecialsFile
		if strings.HasSuffix(specialsPath, ".txt") {
			name = resources.SpecialsTextFile
		}
		if err := rsrcs.AddEntry(name, specialsPath); err != nil {
			return nil, err
		}
	}
	return fromResources(rsrcs, opts)
}

// LoadFromDir builds a Tokenizer from the well known files in dir:
// `vocab.json` and `merges.json`, and optionally `specials.json` or
// `specials.txt` and `tokenizer_config.json`. Options passed here take
// precedence over the config file.
func LoadFromDir(dir string, opts ...Option) (*Tokenizer, error) {
	rsrcs, err := resources.ResolveResources(dir)
	if err != nil {
		return nil, err
	}
	defer rsrcs.Cleanup()

	var configOpts []Option
	if entry, ok := rsrcs[resources.ConfigFile]; ok {
		config, configErr := resources.ParseConfig(entry.Data)
		if configErr != nil {
			return nil, fmt.Errorf("%s: %w", entry.Path, configErr)
		}
		if config.SplitRegex != nil {
			configOpts = append(configOpts,
				WithSplitPattern(*config.SplitRegex))
		}
		if config.CacheSize > 0 {
			configOpts = append(configOpts, WithCache(config.CacheSize))
		}
	}
	return fromResources(rsrcs, append(configOpts, opts...))
}

func fromResources(
	rsrcs resources.Resources,
	opts []Option,
) (*Tokenizer, error) {
	vocabEntry := rsrcs[resources.VocabFile]
	pieces, err := resources.ParseVocab(vocabEntry.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", vocabEntry.Path, err)
	}
	vocab, err := newVocabularyFromText(pieces)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, vocabEntry.Path, err)
	}

	mergesEntry := rsrcs[resources.MergesFile]
	pairs, err := resources.ParseMerges(mergesEntry.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mergesEntry.Path, err)
	}
	rules := make([]MergeRule, len(pairs))
	for idx, pair := range pairs {
		rules[idx] = MergeRule{pair[0], pair[1]}
	}
	merges, err := NewMergeTable(rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, mergesEntry.Path,
			err)
	}

	var specials []string
	if entry, name, ok := rsrcs.Specials(); ok {
		specials, err = resources.ParseSpecials(entry.Data,
			name == resources.SpecialsTextFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Path, err)
		}
	}
	return New(vocab, merges, specials, opts...)
}

// SaveToFiles writes the vocabulary, merge table and, unless specialsPath is
// empty, the special tokens in the formats LoadFromFiles reads.
func (tokenizer *Tokenizer) SaveToFiles(
	vocabPath, mergesPath, specialsPath string,
) error {
	if err := resources.WriteVocabFile(vocabPath,
		tokenizer.vocab.All()); err != nil {
		return err
	}
	rules := tokenizer.merges.Rules()
	pairs := make([][2]string, len(rules))
	for idx, rule := range rules {
		pairs[idx] = [2]string{rule.Left, rule.Right}
	}
	if err := resources.WriteMergesFile(mergesPath, pairs); err != nil {
		return err
	}
	if specialsPath == "" {
		return nil
	}
	return resources.WriteSpecials(specialsPath, tokenizer.Specials())
}

// SaveToDir writes the files LoadFromDir reads. `specials.json` is only
// written when there are special tokens, and `tokenizer_config.json` only
// when the split pattern or cache differ from the defaults.
func (tokenizer *Tokenizer) SaveToDir(dir string) error {
	specialsPath := ""
	if len(tokenizer.pre.specials) > 0 {
		specialsPath = path.Join(dir, resources.SpecialsFile)
	}
	if err := tokenizer.SaveToFiles(path.Join(dir, resources.VocabFile),
		path.Join(dir, resources.MergesFile), specialsPath); err != nil {
		return err
	}
	config := &resources.TokenizerConfig{CacheSize: tokenizer.cacheSize}
	if pattern := tokenizer.pre.Pattern(); pattern != SPLIT_REGEX {
		config.SplitRegex = &pattern
	}
	if config.SplitRegex == nil && config.CacheSize == 0 {
		return nil
	}
	return resources.WriteConfig(path.Join(dir, resources.ConfigFile),
		config)
}
