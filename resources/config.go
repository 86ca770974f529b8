package resources

import (
	"bytes"
	"encoding/json"
)

// TokenizerConfig is the optional `tokenizer_config.json`.
type TokenizerConfig struct {
	SplitRegex *string `json:"split_regex,omitempty"`
	CacheSize  int     `json:"cache_size,omitempty"`
}

func ParseConfig(data []byte) (*TokenizerConfig, error) {
	config := &TokenizerConfig{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, parseError("tokenizer config", err)
	}
	return config, nil
}

func WriteConfig(filePath string, config *TokenizerConfig) error {
	encoded, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	buf := bytes.NewBuffer(encoded)
	buf.WriteString("\n")
	return WriteResource(filePath, buf)
}
