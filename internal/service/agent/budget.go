package agent

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/tusk/internal/service/chatlog"
)

// TokenCounter returns the number of tokens in text.
type TokenCounter func(text string) int

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tk, tkErr
}

// CountTokens counts cl100k_base tokens, falling back to EstimateTokens when
// the encoding cannot be loaded.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	enc, err := getTokenizer()
	if err != nil {
		return EstimateTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// EstimateTokens assumes roughly four characters per token.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// fitBudget joins the newest records that fit into budget tokens, oldest
// first. A non-positive budget keeps every record.
func fitBudget(records []chatlog.Record, budget int, count TokenCounter) string {
	start := 0
	if budget > 0 {
		used := 0
		start = len(records)
		for i := len(records) - 1; i >= 0; i-- {
			// one extra token for the separating newline
			cost := count(records[i].Text) + 1
			if used+cost > budget {
				break
			}
			used += cost
			start = i
		}
	}

	texts := make([]string, 0, len(records)-start)
	for _, r := range records[start:] {
		texts = append(texts, r.Text)
	}
	return strings.Join(texts, "\n")
}
