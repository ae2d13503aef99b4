package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"
)

const hintPrompt = `You help someone solve a personal crossword written for them by their partner.

Clue: %q
Letters so far (? = empty): %s
Answer (never reveal it, not even partly spelled out): %s

Write one short, warm hint that nudges toward the answer without containing it.
Reply ONLY with JSON: {"hint": "<text>"}`

// ErrHintLeaked is returned when the model's hint gives the answer away.
var ErrHintLeaked = errors.New("hint contains the answer")

// HintRequest is the word a hint is wanted for.
type HintRequest struct {
	Clue    string
	Pattern string
	Answer  string
}

// Hinter produces a nudge towards a word without giving it away.
type Hinter interface {
	Hint(ctx context.Context, req HintRequest) (string, error)
}

// GeminiClient writes hints with a Gemini model on Vertex AI.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a client using Application Default Credentials.
// Empty region and model fall back to defaultRegion and defaultModel.
func NewGeminiClient(ctx context.Context, projectID, region, model string) (*GeminiClient, error) {
	if region == "" {
		region = defaultRegion
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, modelName: model}, nil
}

// Hint asks Gemini for a nudge towards a word.
func (g *GeminiClient) Hint(ctx context.Context, req HintRequest) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fmt.Sprintf(hintPrompt, req.Clue, req.Pattern, req.Answer)},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.7)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	return parseHint(resp.Text(), req.Answer)
}

// parseHint decodes the model's JSON reply and rejects hints that spell out
// the answer.
func parseHint(text, answer string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("empty gemini response")
	}

	var out struct {
		Hint string `json:"hint"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return "", fmt.Errorf("parse hint JSON: %w\nraw response: %s", err, text)
	}

	hint := strings.TrimSpace(out.Hint)
	if hint == "" {
		return "", fmt.Errorf("gemini returned an empty hint")
	}
	if answer != "" && strings.Contains(strings.ToUpper(hint), strings.ToUpper(answer)) {
		return "", ErrHintLeaked
	}
	return hint, nil
}
