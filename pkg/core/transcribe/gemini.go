package transcribe

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultTranscribeModel = "gemini-2.5-flash"
	defaultFormatModel     = "gemini-2.5-flash"

	transcribePrompt = "Transcribe this audio verbatim. Annotate notable environmental sounds in brackets, e.g. [door closes]. Respond with the transcript only."
	formatPrompt     = "Reformat this raw voice transcript into a well-structured note with a short title, headings where natural, and bullet points for lists. Preserve the speaker's meaning and wording. Respond with the note only.\n\nTranscript:\n"
)

// GeminiProvider implements Provider on the Gemini API.
type GeminiProvider struct {
	client          *genai.Client
	transcribeModel string
	formatModel     string
}

// GeminiOption configures a GeminiProvider.
type GeminiOption func(*GeminiProvider)

// WithTranscribeModel overrides the transcription model.
func WithTranscribeModel(model string) GeminiOption {
	return func(p *GeminiProvider) { p.transcribeModel = model }
}

// WithFormatModel overrides the formatting model.
func WithFormatModel(model string) GeminiOption {
	return func(p *GeminiProvider) { p.formatModel = model }
}

// NewGemini creates a Gemini-backed provider.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiWithClient(client, opts...), nil
}

func newGeminiWithClient(client *genai.Client, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		client:          client,
		transcribeModel: defaultTranscribeModel,
		formatModel:     defaultFormatModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Transcribe converts one audio payload to verbatim text.
func (p *GeminiProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	contents := audioContents(audio, mimeType)

	resp, err := p.client.Models.GenerateContent(ctx, p.transcribeModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini transcribe: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini transcribe: empty transcript")
	}
	return text, nil
}

// TranscribeStreaming transcribes with growing partial text delivered through
// onPartial. The stream yields text chunks; the growing transcript handed to
// onPartial is their accumulation.
func (p *GeminiProvider) TranscribeStreaming(ctx context.Context, audio []byte, mimeType string, onPartial func(string)) (string, error) {
	contents := audioContents(audio, mimeType)

	var sb strings.Builder
	for resp, err := range p.client.Models.GenerateContentStream(ctx, p.transcribeModel, contents, nil) {
		if err != nil {
			return "", fmt.Errorf("gemini transcribe stream: %w", err)
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if onPartial != nil {
			onPartial(sb.String())
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini transcribe stream: empty transcript")
	}
	return text, nil
}

// Format turns a raw transcript into a structured note.
func (p *GeminiProvider) Format(ctx context.Context, text string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(formatPrompt + text),
		}, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.formatModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini format: %w", err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("gemini format: empty response")
	}
	return out, nil
}

func audioContents(audio []byte, mimeType string) []*genai.Content {
	return []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(audio, mimeType),
			genai.NewPartFromText(transcribePrompt),
		}, genai.RoleUser),
	}
}
