package byte_bpe

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/byte_bpe/resources"
	"github.com/wbrown/byte_bpe/types"
)

func writeFile(t *testing.T, filePath, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filePath, []byte(contents), 0644))
}

func assertSameTokenizer(t *testing.T, expected, actual *Tokenizer) {
	t.Helper()
	assert.Equal(t, expected.Vocabulary().Len(), actual.Vocabulary().Len())
	for id, piece := range expected.Vocabulary().All() {
		loaded, err := actual.Vocabulary().Decode(id)
		require.NoError(t, err)
		assert.Equal(t, []byte(piece), []byte(loaded), "id %d", id)
	}
	assert.Equal(t, expected.MergeTable().Rules(),
		actual.MergeTable().Rules())
	assert.Equal(t, expected.Specials(), actual.Specials())
}

func TestSaveLoad_Files(t *testing.T) {
	dir := t.TempDir()
	tokenizer := newByteTokenizer(t, byteRules, defaultSpecials)
	vocabPath := path.Join(dir, "v.json")
	mergesPath := path.Join(dir, "m.json")
	specialsPath := path.Join(dir, "s.json")
	require.NoError(t, tokenizer.SaveToFiles(vocabPath, mergesPath,
		specialsPath))

	loaded, err := LoadFromFiles(vocabPath, mergesPath, specialsPath)
	require.NoError(t, err)
	assertSameTokenizer(t, tokenizer, loaded)

	expected, err := tokenizer.Encode(corpus)
	require.NoError(t, err)
	actual, err := loaded.Encode(corpus)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	// Saving what was loaded writes the same bytes.
	again := t.TempDir()
	require.NoError(t, loaded.SaveToFiles(path.Join(again, "v.json"),
		path.Join(again, "m.json"), path.Join(again, "s.json")))
	for _, name := range []string{"v.json", "m.json", "s.json"} {
		first, err := os.ReadFile(path.Join(dir, name))
		require.NoError(t, err)
		second, err := os.ReadFile(path.Join(again, name))
		require.NoError(t, err)
		assert.Equal(t, first, second, name)
	}
}

func TestSaveLoad_HighBytes(t *testing.T) {
	dir := t.TempDir()
	tokenizer := newByteTokenizer(t, nil, nil)
	require.NoError(t, tokenizer.SaveToDir(dir))

	vocab, err := os.ReadFile(path.Join(dir, resources.VocabFile))
	require.NoError(t, err)
	assert.Contains(t, string(vocab), `"255": "0xff"`)
	assert.Contains(t, string(vocab), `"60": "<"`)
	assert.NoFileExists(t, path.Join(dir, resources.SpecialsFile))
	assert.NoFileExists(t, path.Join(dir, resources.ConfigFile))

	loaded, err := LoadFromDir(dir)
	require.NoError(t, err)
	assertSameTokenizer(t, tokenizer, loaded)
	piece, err := loaded.Vocabulary().Decode(0xff)
	require.NoError(t, err)
	assert.Equal(t, "\xff", piece)
}

func TestSaveLoad_SpecialsText(t *testing.T) {
	dir := t.TempDir()
	tokenizer := newByteTokenizer(t, byteRules, defaultSpecials)
	specialsPath := path.Join(dir, resources.SpecialsTextFile)
	require.NoError(t, tokenizer.SaveToFiles(
		path.Join(dir, resources.VocabFile),
		path.Join(dir, resources.MergesFile),
		specialsPath))
	contents, err := os.ReadFile(specialsPath)
	require.NoError(t, err)
	assert.Equal(t, "<|endoftext|>\n<|pad|>", string(contents))

	loaded, err := LoadFromDir(dir)
	require.NoError(t, err)
	assertSameTokenizer(t, tokenizer, loaded)

	loaded, err = LoadFromFiles(path.Join(dir, resources.VocabFile),
		path.Join(dir, resources.MergesFile), specialsPath)
	require.NoError(t, err)
	assertSameTokenizer(t, tokenizer, loaded)
}

func TestSaveLoad_Config(t *testing.T) {
	dir := t.TempDir()
	tokenizer := newByteTokenizer(t, byteRules, nil,
		WithSplitPattern(`\S+`), WithCache(32))
	require.NoError(t, tokenizer.SaveToDir(dir))
	assert.FileExists(t, path.Join(dir, resources.ConfigFile))

	loaded, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, `\S+`, loaded.PreTokenizer().Pattern())
	assert.Equal(t, 32, loaded.cacheSize)

	overridden, err := LoadFromDir(dir, WithSplitPattern(""), WithCache(0))
	require.NoError(t, err)
	assert.Equal(t, SPLIT_REGEX, overridden.PreTokenizer().Pattern())
	assert.Nil(t, overridden.cache)

	writeFile(t, path.Join(dir, resources.ConfigFile), `{"cache_size": "x"}`)
	_, err = LoadFromDir(dir)
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFromDir(dir)
	assert.ErrorIs(t, err, ErrIO)

	_, err = LoadFromFiles(path.Join(dir, "nope.json"),
		path.Join(dir, "nope.json"), "")
	assert.ErrorIs(t, err, ErrIO)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		vocab    string
		merges   string
		specials string
	}{
		{"vocab syntax", `{"0": "a"`, `[]`, `[]`},
		{"vocab id", `{"a": "a"}`, `[]`, `[]`},
		{"vocab duplicate", `{"0": "a", "1": "a"}`, `[]`, `[]`},
		{"vocab empty piece", `{"0": ""}`, `[]`, `[]`},
		{"merges shape", `{"0": "a"}`, `[["a"]]`, `[]`},
		{"merges empty side", `{"0": "a"}`, `[["a", ""]]`, `[]`},
		{"specials", `{"0": "a"}`, `[]`, `{"a": 1}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			vocabPath := path.Join(dir, "vocab.json")
			mergesPath := path.Join(dir, "merges.json")
			specialsPath := path.Join(dir, "specials.json")
			writeFile(t, vocabPath, test.vocab)
			writeFile(t, mergesPath, test.merges)
			writeFile(t, specialsPath, test.specials)
			_, err := LoadFromFiles(vocabPath, mergesPath, specialsPath)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestLoad_EmptySpecials(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, path.Join(dir, resources.VocabFile),
		`{"0": "h", "1": "i", "2": "hi"}`)
	writeFile(t, path.Join(dir, resources.MergesFile), `[["h", "i"]]`)
	writeFile(t, path.Join(dir, resources.SpecialsTextFile), "")
	tokenizer, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Empty(t, tokenizer.Specials())
	tokens, err := tokenizer.Encode("hi")
	require.NoError(t, err)
	assert.Equal(t, types.Tokens{2}, tokens)
}

func TestSave_Unrepresentable(t *testing.T) {
	dir := t.TempDir()
	vocab, err := NewVocabulary(map[types.Token][]byte{
		0: []byte("a"), 1: {0xe2, 0x82},
	})
	require.NoError(t, err)
	merges, err := NewMergeTable(nil)
	require.NoError(t, err)
	tokenizer, err := New(vocab, merges, nil)
	require.NoError(t, err)
	err = tokenizer.SaveToDir(dir)
	assert.ErrorIs(t, err, ErrUnrepresentableToken)
}
