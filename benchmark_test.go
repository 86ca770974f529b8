package byte_bpe

import (
	"strings"
	"testing"
	"time"
)

var largeCorpus = strings.Repeat(corpus, 256)

func BenchmarkPreTokenizer_SplitWords(b *testing.B) {
	b.StopTimer()
	tokenizer := newByteTokenizer(b, byteRules, defaultSpecials)
	wordCount := 0
	start := time.Now()
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		wordCount += len(tokenizer.PreTokenizer().SplitWords(largeCorpus))
	}
	b.StopTimer()
	elapsed := time.Since(start)
	numBytes := len(largeCorpus) * b.N
	b.ReportMetric(float64(wordCount)/elapsed.Seconds(), "words/sec")
	b.ReportMetric(float64(numBytes)/elapsed.Seconds(), "bytes/sec")
}

func benchmarkEncode(b *testing.B, opts ...Option) {
	b.StopTimer()
	tokenizer := newByteTokenizer(b, byteRules, defaultSpecials, opts...)
	tokenCount := 0
	start := time.Now()
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tokens, err := tokenizer.Encode(largeCorpus)
		if err != nil {
			b.Fatal(err)
		}
		tokenCount += len(tokens)
	}
	b.StopTimer()
	elapsed := time.Since(start)
	b.ReportMetric(float64(tokenCount)/elapsed.Seconds(), "tokens/sec")
	b.ReportMetric(float64(len(largeCorpus)*b.N)/elapsed.Seconds(),
		"bytes/sec")
}

func BenchmarkTokenizer_Encode(b *testing.B) {
	benchmarkEncode(b)
}

func BenchmarkTokenizer_EncodeCached(b *testing.B) {
	benchmarkEncode(b, WithCache(BPE_LRU_SZ))
}

func BenchmarkMergeTable_Apply(b *testing.B) {
	table, err := NewMergeTable(byteRules)
	if err != nil {
		b.Fatal(err)
	}
	words := strings.Fields(largeCorpus)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, word := range words {
			table.Apply(BytePieces(word))
		}
	}
}

func BenchmarkMergeTable_Sweep(b *testing.B) {
	table, err := NewMergeTable(byteRules)
	if err != nil {
		b.Fatal(err)
	}
	words := strings.Fields(largeCorpus)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, word := range words {
			table.Sweep(BytePieces(word))
		}
	}
}
