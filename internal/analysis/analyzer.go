package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/api/option"
)

// Analysis method labels recorded in the result
const (
	MethodAI      = "ai"
	MethodSalvage = "ai_salvaged"
	MethodKeyword = "keyword_fallback"
)

// Result is the outcome of matching a resume against a job specification
type Result struct {
	MatchScore    float64  `json:"match_score"`
	MissingSkills []string `json:"missing_skills"`
	Strengths     []string `json:"strengths,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Method        string   `json:"method"`
}

// Analyzer matches a resume against a job specification
type Analyzer interface {
	Analyze(ctx context.Context, resumeText, jobSpec string) (Result, error)
	Close() error
}

// resultSchema is the contract the model response must satisfy
const resultSchema = `{
	"type": "object",
	"required": ["match_score", "missing_skills"],
	"properties": {
		"match_score": {"type": "number", "minimum": 0, "maximum": 100},
		"missing_skills": {"type": "array", "items": {"type": "string"}},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"summary": {"type": "string"}
	}
}`

var resultSchemaLoader = gojsonschema.NewStringLoader(resultSchema)

// GeminiAnalyzer implements Analyzer using Google Gemini
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client, model: model}, nil
}

// Analyze asks the model for a JSON verdict and parses it, salvaging partial
// responses where possible
func (g *GeminiAnalyzer) Analyze(ctx context.Context, resumeText, jobSpec string) (Result, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(resumeText, jobSpec)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return Result{}, err
	}
	return ParseResult(cleanJSONBlock(text))
}

// Close releases resources held by the client
func (g *GeminiAnalyzer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func buildPrompt(resumeText, jobSpec string) string {
	var b strings.Builder
	b.WriteString("You are a technical recruiter. Compare the resume below against the job specification.\n")
	b.WriteString("Respond with JSON only, matching this schema exactly:\n")
	b.WriteString(resultSchema)
	b.WriteString("\n\nJOB SPECIFICATION:\n")
	b.WriteString(jobSpec)
	b.WriteString("\n\nRESUME:\n")
	b.WriteString(resumeText)
	return b.String()
}

// ParseResult decodes and validates a model response. A response that is not
// valid JSON is run through regex salvage before giving up.
func ParseResult(text string) (Result, error) {
	validation, err := gojsonschema.Validate(resultSchemaLoader, gojsonschema.NewStringLoader(text))
	if err == nil && validation.Valid() {
		var result Result
		if err := json.Unmarshal([]byte(text), &result); err == nil {
			result.Method = MethodAI
			return result, nil
		}
	}

	if result, ok := salvageResult(text); ok {
		return result, nil
	}
	return Result{}, fmt.Errorf("unparseable model response")
}

var (
	scorePattern  = regexp.MustCompile(`"?match_score"?\s*[:=]\s*([0-9]+(?:\.[0-9]+)?)`)
	skillsPattern = regexp.MustCompile(`"missing_skills"\s*:\s*\[([^\]]*)\]`)
	quotedPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// salvageResult pulls what it can out of a malformed model response
func salvageResult(text string) (Result, bool) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return Result{}, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Result{}, false
	}

	result := Result{MatchScore: score, Method: MethodSalvage}
	if sm := skillsPattern.FindStringSubmatch(text); sm != nil {
		for _, q := range quotedPattern.FindAllStringSubmatch(sm[1], -1) {
			result.MissingSkills = append(result.MissingSkills, q[1])
		}
	}
	return result, true
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

// cleanJSONBlock removes markdown code block wrappers from JSON
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
