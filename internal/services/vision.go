package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xswkr/chartpattern-backend/internal/models"
)

const defaultVisionBaseURL = "https://generativelanguage.googleapis.com"

// analyzeSystemInstruction primes the model as a technical analyst and pins
// the output to the structured pattern schema. Responses are in Korean,
// matching the product's audience.
const analyzeSystemInstruction = `당신은 세계적인 수준의 금융 기술적 분석가입니다. 제공된 차트 이미지(주식, 코인, 선물, 외환)를 분석하는 것이 임무입니다.
클래식 차트 패턴, 하모닉 패턴(피보나치 비율 포함), 캔들 패턴, 시장 구조(추세, 지지/저항, 돌파 가능성)를 모두 식별하십시오.
모든 텍스트 설명은 한국어로 작성하고, 'overlayPoints'에는 패턴 주요 지점의 좌표(x, y)를 0~1000 정규화 수치로 제공하며, 진입가/손절가/목표가를 포함한 트레이딩 전략을 제안하십시오.
결과를 엄격하게 JSON 형식으로 반환하십시오.`

const analyzePrompt = "이 차트를 완전히 분석하십시오. 하모닉, 클래식, 캔들 패턴을 감지하고 좌표(overlayPoints)를 포함하십시오. 모든 설명은 한국어로 하십시오."

// HTTPClient lets tests substitute the transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// VisionService is the client for the external generative-vision service.
// This backend treats it as a collaborator with exactly two contracts:
// image in, structured pattern analysis out; and image + prior analysis +
// question in, text answer out. Results pass through verbatim.
type VisionService struct {
	apiKey  string
	model   string
	baseURL string
	httpc   HTTPClient
}

func NewVisionService(apiKey, model string) *VisionService {
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	return &VisionService{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultVisionBaseURL,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

// NewVisionServiceWithClient is used by tests to point at a fake upstream.
func NewVisionServiceWithClient(apiKey, model, baseURL string, httpc HTTPClient) *VisionService {
	s := NewVisionService(apiKey, model)
	if baseURL != "" {
		s.baseURL = baseURL
	}
	if httpc != nil {
		s.httpc = httpc
	}
	return s
}

type visionPart struct {
	Text       string           `json:"text,omitempty"`
	InlineData *visionBlobParam `json:"inlineData,omitempty"`
}

type visionBlobParam struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type visionContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []visionPart `json:"parts"`
}

type visionRequest struct {
	SystemInstruction *visionContent    `json:"systemInstruction,omitempty"`
	Contents          []visionContent   `json:"contents"`
	GenerationConfig  map[string]string `json:"generationConfig,omitempty"`
}

type visionResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AnalyzeChart submits a chart image and returns the structured pattern
// analysis exactly as produced upstream.
func (s *VisionService) AnalyzeChart(ctx context.Context, imageBase64 string) (json.RawMessage, error) {
	req := visionRequest{
		SystemInstruction: &visionContent{Parts: []visionPart{{Text: analyzeSystemInstruction}}},
		Contents: []visionContent{{
			Role: "user",
			Parts: []visionPart{
				{Text: analyzePrompt},
				{InlineData: &visionBlobParam{MimeType: "image/jpeg", Data: stripDataURL(imageBase64)}},
			},
		}},
		GenerationConfig: map[string]string{"responseMimeType": "application/json"},
	}

	text, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// The model is pinned to JSON output; reject anything that isn't.
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("vision service returned non-JSON analysis")
	}
	return json.RawMessage(text), nil
}

// AskAboutChart answers a follow-up question about a previously analyzed
// chart, given the image, the prior analysis, and the chat so far.
func (s *VisionService) AskAboutChart(ctx context.Context, imageBase64 string, analysis json.RawMessage, question string, history []models.ChatMessage) (string, error) {
	system := fmt.Sprintf(`당신은 전문 금융 분석가입니다. 사용자가 이전에 분석된 차트 이미지와 분석 결과에 대해 질문하고 있습니다.
기술적 분석 관점에서 친절하고 전문적으로 한국어로 답변하십시오.
이전 분석 결과: %s`, string(analysis))

	contents := make([]visionContent, 0, len(history)+1)
	for _, msg := range history {
		contents = append(contents, visionContent{
			Role:  msg.Role,
			Parts: []visionPart{{Text: msg.Text}},
		})
	}
	contents = append(contents, visionContent{
		Role: "user",
		Parts: []visionPart{
			{Text: question},
			{InlineData: &visionBlobParam{MimeType: "image/jpeg", Data: stripDataURL(imageBase64)}},
		},
	})

	return s.generate(ctx, visionRequest{
		SystemInstruction: &visionContent{Parts: []visionPart{{Text: system}}},
		Contents:          contents,
	})
}

// FetchImageBase64 downloads a stored chart image and base64-encodes it for
// the vision API.
func (s *VisionService) FetchImageBase64(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (s *VisionService) generate(ctx context.Context, payload visionRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("vision service returned status %d: %s", resp.StatusCode, detail)
	}

	var out visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode vision response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("vision service returned no content")
	}

	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("vision service returned empty content")
	}
	return text, nil
}

// stripDataURL drops a data:image/...;base64, prefix when the client sends
// a full data URL.
func stripDataURL(image string) string {
	if idx := strings.Index(image, ","); idx != -1 && strings.HasPrefix(image, "data:") {
		return image[idx+1:]
	}
	return image
}
