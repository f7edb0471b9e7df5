// Package qwen implements the vision channel against the DashScope
// multimodal generation API (Qwen-VL family).
package qwen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"textmill/internal/config"
	"textmill/internal/domain"
	"textmill/internal/port"
)

const (
	engineID = "qwen-vl"
	apiURL   = "https://dashscope.aliyuncs.com/api/v1/services/aigc/multimodal-generation/generation"
)

// defaultPrompt asks the model for a faithful transcription in reading
// order. Kept in Chinese because the service primarily handles Chinese
// documents and the Qwen-VL models follow Chinese instructions most
// reliably.
const defaultPrompt = `请仔细观察这张图片，提取其中所有可见的文字内容。
请按照从上到下、从左到右的阅读顺序组织成段落。
如果有表格，请用Markdown格式表示。
注意数字、金额、日期的准确性。
请直接输出提取的文字内容，不要添加额外的解释。`

// Qwen-VL does not report a transcription confidence; a successful call is
// treated as fully confident and the fusion score differentiates on the
// text itself.
const visionConfidence = 1.0

// Recognizer implements port.ImageRecognizer over the DashScope API.
type Recognizer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// New creates a DashScope-backed vision recognizer from config.
func New(cfg *config.VisionConfig) *Recognizer {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	model := cfg.DefaultModel
	if model == "" {
		model = "qwen-vl-plus"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Recognizer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewWithEndpoint creates a recognizer pointing at a custom API endpoint
// (for testing).
func NewWithEndpoint(cfg *config.VisionConfig, endpoint string) *Recognizer {
	r := New(cfg)
	r.endpoint = endpoint
	return r
}

// Available reports whether an API key is configured.
func (r *Recognizer) Available() bool { return r.apiKey != "" }

type apiRequest struct {
	Model string   `json:"model"`
	Input apiInput `json:"input"`
}

type apiInput struct {
	Messages []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string           `json:"role"`
	Content []apiContentPart `json:"content"`
}

type apiContentPart struct {
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

type apiResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Recognize sends the image to the vision model and returns its
// transcription. All failures, including transport errors and non-200
// statuses, surface as Success=false.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, opts port.RecognizeOptions) domain.RecognitionResult {
	if r.apiKey == "" {
		return failure("vision api key not configured")
	}
	if len(image) == 0 {
		return failure("empty image payload")
	}

	model := r.model
	if opts.Model != "" {
		model = opts.Model
	}

	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	reqBody := apiRequest{
		Model: model,
		Input: apiInput{
			Messages: []apiMessage{
				{
					Role: "user",
					Content: []apiContentPart{
						{Image: encoded},
						{Text: defaultPrompt},
					},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return failure("marshaling request: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return failure("creating request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return failure("calling vision API: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure("reading response: " + err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return failure(fmt.Sprintf("vision API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	text, err := parseResponse(respBody)
	if err != nil {
		return failure(err.Error())
	}
	if text == "" {
		return failure("vision model returned no text")
	}

	return domain.RecognitionResult{
		EngineID:   engineID,
		Text:       text,
		Confidence: visionConfidence,
		Success:    true,
	}
}

// parseResponse extracts the transcription from the response body. The
// content field is either a plain string or a list of content parts.
func parseResponse(body []byte) (string, error) {
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Output.Choices) == 0 {
		if parsed.Message != "" {
			return "", fmt.Errorf("vision API error: %s", parsed.Message)
		}
		return "", fmt.Errorf("vision API returned no choices")
	}

	raw := parsed.Output.Choices[0].Message.Content

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}

	var asParts []apiContentPart
	if err := json.Unmarshal(raw, &asParts); err != nil {
		return "", fmt.Errorf("decoding message content: %w", err)
	}
	var text string
	for _, part := range asParts {
		text += part.Text
	}
	return text, nil
}

func failure(msg string) domain.RecognitionResult {
	return domain.RecognitionResult{
		EngineID: engineID,
		Success:  false,
		Error:    msg,
	}
}
