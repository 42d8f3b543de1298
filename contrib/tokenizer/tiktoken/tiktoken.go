// Package tiktoken wraps the tiktoken-go encoder for token accounting on
// prompts, drafts, and ingested chunks.
package tiktoken

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts and encodes tokens for a specific model encoding.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New resolves the encoding for a model name, falling back to treating the
// name as an encoding name (for example "cl100k_base").
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

// Encode returns token ids for the text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// CountTokens returns the number of tokens in the text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

// Decode reassembles text from token ids.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}
