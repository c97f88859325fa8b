package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// charsPerToken mirrors TokensPerChar's rough approximation (4 chars per
// token) used throughout this package's estimateTokens.
const charsPerToken = TokensPerChar

// TextChunker implements domain.Chunker over plain embedding_text: a
// token-bounded, line-respecting split with a dense, contiguous, bounded
// overlap — the EmbeddingPipeline's chunker; it does not look at symbols
// or syntax.
type TextChunker struct{}

// NewTextChunker returns a TextChunker.
func NewTextChunker() *TextChunker {
	return &TextChunker{}
}

var _ domain.Chunker = (*TextChunker)(nil)

// Chunk splits text into a dense, 0-based-index sequence of chunks, each
// bounded by cfg.TargetTokens (soft) and cfg.HardLimitTokens (hard), with
// cfg.OverlapFraction of the previous chunk repeated at the start of the
// next. Text estimated under the target in its entirety is returned as one
// chunk covering [0, len(text)).
func (c *TextChunker) Chunk(text, filePath, language string, cfg domain.ChunkerConfig) []domain.Chunk {
	if text == "" {
		return nil
	}
	if estimateTokens(text) <= cfg.TargetTokens {
		return []domain.Chunk{{
			Text: text,
			Metadata: domain.ChunkMetadata{
				ChunkID:     chunkID(filePath, 0),
				ChunkIndex:  0,
				StartOffset: 0,
				EndOffset:   len(text),
				TokenCount:  estimateTokens(text),
			},
		}}
	}

	targetChars := cfg.TargetTokens * charsPerToken
	hardLimitChars := cfg.HardLimitTokens * charsPerToken
	if hardLimitChars < targetChars {
		hardLimitChars = targetChars
	}
	overlapChars := int(float64(targetChars) * cfg.OverlapFraction)
	if overlapChars >= targetChars {
		overlapChars = targetChars / 2
	}

	var chunks []domain.Chunk
	start := 0
	idx := 0
	for start < len(text) {
		end := start + targetChars
		if end > len(text) {
			end = len(text)
		} else {
			end = extendToLineBoundary(text, end, start+hardLimitChars)
		}

		chunkText := text[start:end]
		chunks = append(chunks, domain.Chunk{
			Text: chunkText,
			Metadata: domain.ChunkMetadata{
				ChunkID:     chunkID(filePath, idx),
				ChunkIndex:  idx,
				StartOffset: start,
				EndOffset:   end,
				TokenCount:  estimateTokens(chunkText),
			},
		})
		idx++

		if end >= len(text) {
			break
		}
		next := end - overlapChars
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// extendToLineBoundary nudges end forward to the next newline so chunks
// don't split mid-line, but never past maxEnd (the hard limit).
func extendToLineBoundary(text string, end, maxEnd int) int {
	if maxEnd > len(text) {
		maxEnd = len(text)
	}
	if end >= maxEnd {
		return maxEnd
	}
	if nl := strings.IndexByte(text[end:maxEnd], '\n'); nl >= 0 {
		return end + nl + 1
	}
	return end
}

func chunkID(filePath string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", filePath, index)))
	return hex.EncodeToString(sum[:])[:16]
}

// estimateTokens approximates text's token count at charsPerToken characters per token.
func estimateTokens(text string) int {
	return len(text) / charsPerToken
}
