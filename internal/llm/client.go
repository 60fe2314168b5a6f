// Package llm wraps the Ollama-compatible HTTP backend used for world
// generation. Every call derives its seed from the prompt so that, in
// deterministic mode, the same prompt always produces the same answer.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/udisondev/somnuscape/internal/config"
)

// Client talks to one Ollama-compatible endpoint with one per-instance
// seed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string

	temperature      float64
	seed             uint32
	nonDeterministic bool

	toneWords   []string
	tonesPerGen int
}

// New creates a client from the configuration with a fresh instance seed.
func New(cfg *config.Config) *Client {
	return &Client{
		httpClient:       &http.Client{Timeout: 120 * time.Second},
		baseURL:          strings.TrimRight(cfg.OllamaAddress, "/"),
		model:            cfg.ModelName,
		temperature:      cfg.ModelTemperature,
		seed:             rand.Uint32(),
		nonDeterministic: cfg.NonDeterministic,
		toneWords:        cfg.ToneWords,
		tonesPerGen:      cfg.ToneWordsPerGeneration,
	}
}

// promptSeed mixes the instance seed with a 64-bit hash of the prompt,
// truncated to 32 bits. In non-deterministic mode a fresh random value
// perturbs the hash.
func (c *Client) promptSeed(prompt string) uint32 {
	h := uint32(xxhash.Sum64String(prompt))
	if c.nonDeterministic {
		h ^= rand.Uint32()
	}
	return c.seed ^ h
}

// tonePick draws the configured number of tone words with an RNG seeded
// from the prompt, so identical prompts get identical tones.
func (c *Client) tonePick(seed uint32) []string {
	if c.tonesPerGen == 0 || len(c.toneWords) == 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(c.seed)))
	picked := make([]string, 0, c.tonesPerGen)
	for _, idx := range rng.Perm(len(c.toneWords))[:c.tonesPerGen] {
		picked = append(picked, c.toneWords[idx])
	}
	return picked
}

// GenerateWithTone submits the prompt with the seeded tone words
// appended.
func (c *Client) GenerateWithTone(ctx context.Context, prompt string) (string, error) {
	seed := c.promptSeed(prompt)
	if tones := c.tonePick(seed); len(tones) > 0 {
		prompt = fmt.Sprintf("%s\nUse the following tone: %s", prompt, strings.Join(tones, ", "))
	}
	return c.generate(ctx, prompt, seed)
}

// GenerateSimple submits the prompt as-is.
func (c *Client) GenerateSimple(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, c.promptSeed(prompt))
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Seed        int64   `json:"seed"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *Client) generate(ctx context.Context, prompt string, seed uint32) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Options: generateOptions{
			Seed:        int64(seed),
			Temperature: c.temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model backend: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("model backend returned %s: %s", res.Status, strings.TrimSpace(string(msg)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}
	return parsed.Response, nil
}
