package baidu_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textmill/internal/config"
	"textmill/internal/port"
	"textmill/internal/recognizer/baidu"
)

func testConfig() *config.OCRConfig {
	return &config.OCRConfig{
		BaiduAPIKey:    "client-id",
		BaiduSecretKey: "client-secret",
		TimeoutSecs:    5,
	}
}

// newFakeAPI serves the token and recognition endpoints, counting token
// requests so tests can assert the token cache works.
func newFakeAPI(t *testing.T, ocrResponse string) (*httptest.Server, *int) {
	t.Helper()
	tokenCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/2.0/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "client-id", r.URL.Query().Get("client_id"))
		assert.Equal(t, "client-secret", r.URL.Query().Get("client_secret"))
		_, _ = w.Write([]byte(`{"access_token":"tok-123","expires_in":2592000}`))
	})
	mux.HandleFunc("/rest/2.0/ocr/v1/accurate_basic", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-123", r.URL.Query().Get("access_token"))
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.PostForm.Get("image"))
		assert.Equal(t, "true", r.PostForm.Get("probability"))
		_, _ = w.Write([]byte(ocrResponse))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenCalls
}

func TestRecognize_JoinsLinesAndAveragesProbability(t *testing.T) {
	srv, _ := newFakeAPI(t, `{"words_result":[
		{"words":"发票号码：2024-001","probability":{"average":0.98}},
		{"words":"金额 100 元","probability":{"average":0.9}}
	]}`)

	r := baidu.NewWithEndpoint(testConfig(), srv.URL)
	result := r.Recognize(context.Background(), []byte("img"), port.RecognizeOptions{})

	assert.True(t, result.Success)
	assert.Equal(t, "发票号码：2024-001\n金额 100 元", result.Text)
	assert.InDelta(t, 0.94, result.Confidence, 1e-9)
	assert.Equal(t, "baidu", result.EngineID)
}

func TestRecognize_TokenFetchedOnce(t *testing.T) {
	srv, tokenCalls := newFakeAPI(t, `{"words_result":[{"words":"第一页"}]}`)

	r := baidu.NewWithEndpoint(testConfig(), srv.URL)
	first := r.Recognize(context.Background(), []byte("img"), port.RecognizeOptions{})
	second := r.Recognize(context.Background(), []byte("img"), port.RecognizeOptions{})

	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.Equal(t, 1, *tokenCalls)
}

func TestRecognize_APIError(t *testing.T) {
	srv, _ := newFakeAPI(t, `{"error_code":17,"error_msg":"Open api daily request limit reached"}`)

	r := baidu.NewWithEndpoint(testConfig(), srv.URL)
	result := r.Recognize(context.Background(), []byte("img"), port.RecognizeOptions{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "17")
	assert.Contains(t, result.Error, "request limit")
}

func TestRecognize_NoWordsIsFailure(t *testing.T) {
	srv, _ := newFakeAPI(t, `{"words_result":[]}`)

	r := baidu.NewWithEndpoint(testConfig(), srv.URL)
	result := r.Recognize(context.Background(), []byte("img"), port.RecognizeOptions{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no text")
}

func TestRecognize_MissingProbabilityFallsBack(t *testing.T) {
	srv, _ := newFakeAPI(t, `{"words_result":[{"words":"合同编号 A-17"}]}`)

	r := baidu.NewWithEndpoint(testConfig(), srv.URL)
	result := r.Recognize(context.Background(), []byte("img"), port.RecognizeOptions{})

	assert.True(t, result.Success)
	assert.Equal(t, 0.8, result.Confidence)
}

func TestRecognize_TokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"unknown client id"}`))
	}))
	defer srv.Close()

	r := baidu.NewWithEndpoint(testConfig(), srv.URL)
	result := r.Recognize(context.Background(), []byte("img"), port.RecognizeOptions{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "invalid_client")
}

func TestRecognize_EmptyImage(t *testing.T) {
	r := baidu.New(testConfig())
	result := r.Recognize(context.Background(), nil, port.RecognizeOptions{})

	assert.False(t, result.Success)
}

func TestAvailable(t *testing.T) {
	assert.True(t, baidu.New(testConfig()).Available())
	assert.False(t, baidu.New(&config.OCRConfig{}).Available())
	assert.False(t, baidu.New(&config.OCRConfig{BaiduAPIKey: "only-key"}).Available())
}
