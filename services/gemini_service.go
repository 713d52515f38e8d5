package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkucukkoc/fitcal-backend/config"
	"github.com/mkucukkoc/fitcal-backend/logger"

	"go.uber.org/zap"
)

var (
	// ErrModelNotConfigured means no API credential is available. Fatal in
	// production; image analysis falls back to a mock everywhere else.
	ErrModelNotConfigured = errors.New("gemini: API key not configured")

	// ErrEmptyCompletion means the model returned no usable text.
	ErrEmptyCompletion = errors.New("gemini: model returned empty text")
)

// ChatTurn is one message of the conversation history sent to the model.
type ChatTurn struct {
	Role    string // "user" | "assistant"
	Content string
}

// InlineImage is raw image bytes attached to the final user turn.
type InlineImage struct {
	MimeType string
	Data     []byte
}

// ChatModel is the part of the model client the chat orchestrator depends on.
type ChatModel interface {
	CompleteChat(ctx context.Context, chatContext string, history []ChatTurn, image *InlineImage) (string, error)
	StreamChat(ctx context.Context, chatContext string, history []ChatTurn, image *InlineImage, onDelta func(delta string)) (string, error)
	Summarize(ctx context.Context, conversation string) string
}

// VisionModel is the part the meal-analysis service depends on.
type VisionModel interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType, language string) (*FoodAnalysis, error)
}

// MacroBreakdown mirrors the total_macros object of the analysis schema.
type MacroBreakdown struct {
	ProteinG float64 `json:"protein"`
	CarbsG   float64 `json:"carbs"`
	FatG     float64 `json:"fat"`
}

// AnalysisItem is one recognized food on the plate.
type AnalysisItem struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein"`
	CarbsG   float64 `json:"carbs"`
	FatG     float64 `json:"fat"`
}

// FoodAnalysis is the structured output of one image analysis.
type FoodAnalysis struct {
	Name          string          `json:"name"`
	TotalCalories float64         `json:"total_calories"`
	TotalMacros   *MacroBreakdown `json:"total_macros"`
	Items         []AnalysisItem  `json:"items"`
	HealthScore   float64         `json:"health_score"`
	CoachComment  string          `json:"coach_comment"`
	Confidence    float64         `json:"confidence"`
}

const coachingInstruction = "You are a friendly nutrition coach. Answer in the user's language, " +
	"ground your advice in the user context provided, keep replies short and practical, " +
	"and never invent nutrition data the context does not contain."

// GeminiService talks to the Gemini REST API. All four operations are
// independently failable; no transport framing leaks past this type.
type GeminiService struct {
	cfg config.GeminiConfig

	client *http.Client
	// streaming uses a client without a global timeout so long generations
	// are not cut off mid-stream
	streamClient *http.Client
}

func NewGeminiService(cfg config.GeminiConfig) *GeminiService {
	return &GeminiService{
		cfg:          cfg,
		client:       &http.Client{Timeout: 60 * time.Second},
		streamClient: &http.Client{},
	}
}

// ---- wire types ----

type geminiBlob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (r *geminiResponse) text() string {
	var b strings.Builder
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		break // first candidate only
	}
	return b.String()
}

// ---- operations ----

// AnalyzeImage sends the photo with a fixed food-analysis instruction and
// parses the JSON the model returns. Without a credential it returns a
// deterministic mock in non-production environments and fails hard otherwise.
func (g *GeminiService) AnalyzeImage(ctx context.Context, image []byte, mimeType, language string) (*FoodAnalysis, error) {
	if g.cfg.APIKey == "" {
		if g.cfg.Env == "production" {
			return nil, ErrModelNotConfigured
		}
		logger.Warn("gemini key missing, returning mock analysis", zap.String("language", language))
		return mockAnalysis(language), nil
	}

	req := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiBlob{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: analysisInstruction(language)},
			},
		}},
	}

	raw, err := g.generate(ctx, g.cfg.VisionModel, req)
	if err != nil {
		return nil, err
	}

	var analysis FoodAnalysis
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &analysis); err != nil {
		return nil, fmt.Errorf("gemini: analysis response is not valid JSON: %w", err)
	}
	return &analysis, nil
}

// CompleteChat runs one blocking coaching completion.
func (g *GeminiService) CompleteChat(ctx context.Context, chatContext string, history []ChatTurn, image *InlineImage) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrModelNotConfigured
	}

	raw, err := g.generate(ctx, g.cfg.ChatModel, chatRequest(chatContext, history, image))
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(raw)
	if reply == "" {
		return "", ErrEmptyCompletion
	}
	return reply, nil
}

// StreamChat runs the same completion over the SSE streaming endpoint. Each
// event reports the model's cumulative text so far; only the not-yet-emitted
// suffix is forwarded to onDelta. Malformed frames are logged and skipped so
// one bad event does not abort the stream. Returns the full accumulated text.
func (g *GeminiService) StreamChat(ctx context.Context, chatContext string, history []ChatTurn, image *InlineImage, onDelta func(delta string)) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrModelNotConfigured
	}

	body, err := json.Marshal(chatRequest(chatContext, history, image))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", g.cfg.BaseURL, g.cfg.ChatModel, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.streamClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini: stream API error %d: %s", resp.StatusCode, string(msg))
	}

	var acc streamAccumulator
	consume := func(line string) {
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			return // comments, event names, blank keep-alives
		}
		payload = strings.TrimSpace(payload)
		if payload == "" || payload == "[DONE]" {
			return
		}
		var chunk geminiResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			logger.Warn("gemini: skipping malformed stream event", zap.Error(err))
			return
		}
		if delta := acc.push(chunk.text()); delta != "" && onDelta != nil {
			onDelta(delta)
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		consume(scanner.Text())
	}
	// the final token is delivered without a trailing newline; Scan already
	// flushed it, so only the transport error remains to check
	if err := scanner.Err(); err != nil {
		return acc.text, fmt.Errorf("gemini: stream transport error: %w", err)
	}
	return acc.text, nil
}

// Summarize condenses raw conversation text into a short digest. Best-effort:
// any failure (including a missing credential) yields an empty string.
func (g *GeminiService) Summarize(ctx context.Context, conversation string) string {
	if g.cfg.APIKey == "" || strings.TrimSpace(conversation) == "" {
		return ""
	}

	req := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{{Text: "Summarize the following coaching conversation in 3-4 sentences. " +
				"Keep the user's goals, habits and preferences; drop small talk.\n\n" + conversation}},
		}},
	}
	raw, err := g.generate(ctx, g.cfg.ChatModel, req)
	if err != nil {
		logger.Warn("gemini: summarization failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(raw)
}

// generate performs one blocking generateContent call and returns the joined
// candidate text.
func (g *GeminiService) generate(ctx context.Context, model string, payload geminiRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.cfg.BaseURL, model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: API error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini: failed to parse response: %w", err)
	}
	return parsed.text(), nil
}

// chatRequest assembles the coaching instruction, context and turn history.
// The optional image is attached only to the final user turn.
func chatRequest(chatContext string, history []ChatTurn, image *InlineImage) geminiRequest {
	req := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: coachingInstruction + "\n\nUSER CONTEXT:\n" + chatContext}},
		},
	}

	lastUser := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			lastUser = i
			break
		}
	}

	for i, turn := range history {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		parts := []geminiPart{{Text: turn.Content}}
		if image != nil && i == lastUser {
			parts = append(parts, geminiPart{InlineData: &geminiBlob{
				MimeType: image.MimeType,
				Data:     base64.StdEncoding.EncodeToString(image.Data),
			}})
		}
		req.Contents = append(req.Contents, geminiContent{Role: role, Parts: parts})
	}
	return req
}

// streamAccumulator turns cumulative stream text into incremental deltas.
type streamAccumulator struct {
	text string
}

// push takes the cumulative text reported by one stream event and returns the
// portion not yet emitted. When the new text does not extend the old one the
// whole new text becomes the delta, never a negative slice.
func (a *streamAccumulator) push(cumulative string) string {
	if cumulative == "" {
		return ""
	}
	var delta string
	if strings.HasPrefix(cumulative, a.text) {
		delta = cumulative[len(a.text):]
	} else {
		delta = cumulative
	}
	a.text += delta
	return delta
}

// StripCodeFence removes a surrounding markdown code fence, which the model
// tends to wrap JSON answers in.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func analysisInstruction(language string) string {
	return fmt.Sprintf(`Analyze the food in this photo. Respond with JSON only, no prose, using this exact schema:
{"name": string, "total_calories": number, "total_macros": {"protein": number, "carbs": number, "fat": number}, "items": [{"name": string, "amount": number, "unit": string, "calories": number, "protein": number, "carbs": number, "fat": number}], "health_score": number, "coach_comment": string, "confidence": number}
Use the "%s" language for names and the comment. confidence is 0-1. health_score is 1-10.`, language)
}

// mockAnalysis keeps development environments working without a credential.
func mockAnalysis(language string) *FoodAnalysis {
	if strings.HasPrefix(strings.ToLower(language), "tr") {
		return &FoodAnalysis{
			Name:          "Karışık Tabak",
			TotalCalories: 520,
			TotalMacros:   &MacroBreakdown{ProteinG: 32, CarbsG: 48, FatG: 21},
			Items: []AnalysisItem{
				{Name: "Izgara tavuk", Amount: 150, Unit: "g", Calories: 248, ProteinG: 28, CarbsG: 0, FatG: 14},
				{Name: "Pilav", Amount: 120, Unit: "g", Calories: 156, ProteinG: 3, CarbsG: 34, FatG: 1},
				{Name: "Mevsim salata", Amount: 100, Unit: "g", Calories: 116, ProteinG: 1, CarbsG: 14, FatG: 6},
			},
			HealthScore:  7,
			CoachComment: "Dengeli bir öğün; protein oranı hedefin için gayet iyi.",
			Confidence:   0.42,
		}
	}
	return &FoodAnalysis{
		Name:          "Mixed plate",
		TotalCalories: 520,
		TotalMacros:   &MacroBreakdown{ProteinG: 32, CarbsG: 48, FatG: 21},
		Items: []AnalysisItem{
			{Name: "Grilled chicken", Amount: 150, Unit: "g", Calories: 248, ProteinG: 28, CarbsG: 0, FatG: 14},
			{Name: "Rice", Amount: 120, Unit: "g", Calories: 156, ProteinG: 3, CarbsG: 34, FatG: 1},
			{Name: "Side salad", Amount: 100, Unit: "g", Calories: 116, ProteinG: 1, CarbsG: 14, FatG: 6},
		},
		HealthScore:  7,
		CoachComment: "A balanced meal; the protein share fits your goal well.",
		Confidence:   0.42,
	}
}
