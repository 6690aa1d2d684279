package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tubewatch/features/monitor"
	"tubewatch/internal/text"
)

// maxTranscriptChars keeps the prompt inside the model's context window;
// anything longer is cut before the request.
const maxTranscriptChars = 50000

type Summarizer struct {
	client *genai.Client
	model  string
}

func NewSummarizer(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Summarizer, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Summarizer{client: client, model: model}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, video monitor.Video, transcript monitor.Transcript) (monitor.Summary, error) {
	if transcript.Text == "" {
		return monitor.Summary{}, fmt.Errorf("%w: empty transcript for %s", monitor.ErrSummarizationFailed, video.ID)
	}

	prompt := buildPrompt(video, text.Truncate(transcript.Text, maxTranscriptChars))
	slog.DebugContext(ctx, "requesting summary", "model", s.model, "video_id", video.ID, "prompt_chars", len(prompt))

	resp, err := s.generativeModel().GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return monitor.Summary{}, fmt.Errorf("%w: %v", monitor.ErrSummarizationFailed, err)
	}

	out := responseText(resp)
	if out == "" {
		return monitor.Summary{}, fmt.Errorf("%w: empty or blocked response for %s", monitor.ErrSummarizationFailed, video.ID)
	}

	return monitor.Summary{
		VideoID:     video.ID,
		Text:        out,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Check sends a trivial prompt to verify the API key and model name.
func (s *Summarizer) Check(ctx context.Context) error {
	resp, err := s.generativeModel().GenerateContent(ctx, genai.Text("Reply with OK."))
	if err != nil {
		return fmt.Errorf("gemini check: %w", err)
	}
	if responseText(resp) == "" {
		return fmt.Errorf("gemini check: empty response")
	}
	return nil
}

func (s *Summarizer) Close() error {
	return s.client.Close()
}

func (s *Summarizer) generativeModel() *genai.GenerativeModel {
	m := s.client.GenerativeModel(s.model)
	m.SetTemperature(0.7)
	m.SetTopP(0.8)
	m.SetTopK(40)
	m.SetMaxOutputTokens(1024)
	// Video transcripts routinely trip default thresholds (news clips,
	// gaming commentary), so only high-confidence harm is blocked.
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockOnlyHigh},
	}
	return m
}

func buildPrompt(video monitor.Video, transcript string) string {
	var b strings.Builder
	b.WriteString("Summarize this YouTube video transcript in at most 300 words. ")
	b.WriteString("Cover the main topic, the key points in order, and any conclusions. ")
	b.WriteString("Write plain prose, no markdown.\n\n")
	fmt.Fprintf(&b, "Title: %s\nChannel: %s\nDuration: %s\n\nTranscript:\n%s\n",
		video.Title, video.ChannelTitle, video.Duration, transcript)
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
