// Package baidu implements the OCR channel against the Baidu AI Cloud
// general text recognition API (accurate_basic).
package baidu

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"textmill/internal/config"
	"textmill/internal/domain"
	"textmill/internal/port"
)

const (
	engineID        = "baidu"
	defaultEndpoint = "https://aip.baidubce.com"
	tokenPath       = "/oauth/2.0/token"
	ocrPath         = "/rest/2.0/ocr/v1/accurate_basic"
)

// minRequestInterval keeps recognition calls under the API's QPS quota.
const minRequestInterval = 200 * time.Millisecond

// tokenExpiryMargin renews the access token before the API-reported expiry.
const tokenExpiryMargin = time.Minute

// fallbackConfidence is reported when the API returns text without
// per-line probabilities.
const fallbackConfidence = 0.8

// Recognizer implements port.ImageRecognizer over the Baidu OCR REST API.
// The OAuth access token is fetched lazily and cached until shortly before
// its expiry.
type Recognizer struct {
	apiKey    string
	secretKey string
	endpoint  string
	client    *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	lastRequest time.Time
}

// New creates a Baidu-backed OCR recognizer from config.
func New(cfg *config.OCRConfig) *Recognizer {
	endpoint := cfg.BaiduEndpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Recognizer{
		apiKey:    cfg.BaiduAPIKey,
		secretKey: cfg.BaiduSecretKey,
		endpoint:  endpoint,
		client:    &http.Client{Timeout: timeout},
	}
}

// NewWithEndpoint creates a recognizer pointing at a custom API endpoint
// (for testing).
func NewWithEndpoint(cfg *config.OCRConfig, endpoint string) *Recognizer {
	r := New(cfg)
	r.endpoint = endpoint
	return r
}

// Available reports whether API credentials are configured.
func (r *Recognizer) Available() bool { return r.apiKey != "" && r.secretKey != "" }

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type wordProbability struct {
	Average float64 `json:"average"`
}

type wordResult struct {
	Words       string           `json:"words"`
	Probability *wordProbability `json:"probability"`
}

type apiResponse struct {
	WordsResult []wordResult `json:"words_result"`
	ErrorCode   int          `json:"error_code"`
	ErrorMsg    string       `json:"error_msg"`
}

// Recognize sends the image through the accurate_basic endpoint and joins
// the recognized lines. The language hint in opts is Tesseract-specific and
// ignored here; Baidu auto-detects the script. All failures surface as
// Success=false.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, opts port.RecognizeOptions) domain.RecognitionResult {
	if !r.Available() {
		return failure("baidu OCR credentials not configured")
	}
	if len(image) == 0 {
		return failure("empty image payload")
	}

	token, err := r.token(ctx)
	if err != nil {
		return failure("fetching access token: " + err.Error())
	}
	if err := r.throttle(ctx); err != nil {
		return failure(err.Error())
	}

	form := url.Values{
		"image":       {base64.StdEncoding.EncodeToString(image)},
		"probability": {"true"},
	}
	reqURL := r.endpoint + ocrPath + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return failure("creating request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return failure("calling OCR API: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure("reading response: " + err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return failure(fmt.Sprintf("OCR API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return failure("decoding response: " + err.Error())
	}
	if parsed.ErrorCode != 0 {
		// 110 and 111 report an invalid or expired token; drop the cached
		// one so the next attempt re-authenticates.
		if parsed.ErrorCode == 110 || parsed.ErrorCode == 111 {
			r.mu.Lock()
			r.accessToken = ""
			r.mu.Unlock()
		}
		return failure(fmt.Sprintf("baidu OCR error %d: %s", parsed.ErrorCode, parsed.ErrorMsg))
	}

	lines := make([]string, 0, len(parsed.WordsResult))
	sum, counted := 0.0, 0
	for _, w := range parsed.WordsResult {
		lines = append(lines, w.Words)
		if w.Probability != nil && w.Probability.Average > 0 {
			sum += w.Probability.Average
			counted++
		}
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return failure("no text recognized")
	}

	confidence := fallbackConfidence
	if counted > 0 {
		confidence = sum / float64(counted)
	}
	return domain.RecognitionResult{
		EngineID:   engineID,
		Text:       text,
		Confidence: confidence,
		Success:    true,
	}
}

// token returns the cached access token, fetching a fresh one when none is
// cached or the cached one is close to expiry.
func (r *Recognizer) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Now().Before(r.tokenExpiry.Add(-tokenExpiryMargin)) {
		return r.accessToken, nil
	}

	query := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {r.apiKey},
		"client_secret": {r.secretKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+tokenPath+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("token request rejected: %s: %s", parsed.Error, parsed.ErrorDescription)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("token response carries no access_token")
	}

	r.accessToken = parsed.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return r.accessToken, nil
}

// throttle spaces recognition calls at least minRequestInterval apart.
func (r *Recognizer) throttle(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wait := minRequestInterval - time.Since(r.lastRequest); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.lastRequest = time.Now()
	return nil
}

func failure(msg string) domain.RecognitionResult {
	return domain.RecognitionResult{
		EngineID: engineID,
		Success:  false,
		Error:    msg,
	}
}
