package memory

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"google.golang.org/genai"
)

const (
	// DefaultEmbedModel is the Gemini embedding model.
	DefaultEmbedModel = "text-embedding-004"
	// DefaultHashDimensions sizes HashEmbedder vectors.
	DefaultHashDimensions = 256
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// --- Gemini ---

// GeminiEmbedder embeds text with the Gemini API.
type GeminiEmbedder struct {
	models *genai.Models
	model  string
}

// NewGeminiEmbedder creates a Gemini API client for embeddings.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if model == "" {
		model = DefaultEmbedModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiEmbedder{models: client.Models, model: model}, nil
}

// Embed returns the embedding of text.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.models.EmbedContent(ctx, g.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini: empty embedding")
	}
	return resp.Embeddings[0].Values, nil
}

// --- Local hashing ---

// HashEmbedder is a deterministic bag-of-words embedder. Each token is
// hashed into a fixed number of buckets with a hashed sign, and the result
// is L2-normalized. It needs no network or model files, and texts that
// share words score high under cosine similarity.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a HashEmbedder. Non-positive dims use the default.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed returns the hashed token vector of text.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)
	for _, tok := range tokenize(text) {
		f := fnv.New64a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dims))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Cosine returns the cosine similarity of a and b. Zero vectors score 0.
// Vectors of different length are compared over their common prefix.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-10)
}
