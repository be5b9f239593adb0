package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

var _ app.QuestionGenerator = (*Generator)(nil)

// Generator produces questions by calling an OpenAI-compatible chat completions
// endpoint (OpenAI, Ollama, LM Studio, vLLM, a Gemini proxy, ...).
type Generator struct {
	url    string // e.g. "http://localhost:11434"
	model  string
	apiKey string
	client *http.Client
}

// NewGenerator creates a generator; apiKey may be empty for local endpoints.
func NewGenerator(url, model, apiKey string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Generator{
		url:    strings.TrimRight(url, "/"),
		model:  model,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Generate asks the model for req.Count questions. Output that does not hold a usable
// question array is a *domain.MalformedUpstreamResponseError carrying the raw text.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.QuestionSet, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}
	text, err := g.callLLM(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseQuestions(text)
}

// ParseQuestions extracts the JSON array between the first '[' and the last ']'.
func ParseQuestions(text string) (domain.QuestionSet, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, &domain.MalformedUpstreamResponseError{Reason: "no JSON array in response", Raw: text}
	}

	var qs domain.QuestionSet
	if err := json.Unmarshal([]byte(text[start:end+1]), &qs); err != nil {
		return nil, &domain.MalformedUpstreamResponseError{Reason: "invalid question array", Raw: text, Err: err}
	}
	if len(qs) == 0 {
		return nil, &domain.MalformedUpstreamResponseError{Reason: "response holds no questions", Raw: text}
	}
	return qs, nil
}

type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// callLLM sends a single request and returns the raw text of the first choice.
func (g *Generator) callLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := llmRequest{
		Model: g.model,
		Messages: []llmMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generation provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var llmResp llmResponse
	if err := json.Unmarshal(raw, &llmResp); err != nil {
		return "", &domain.MalformedUpstreamResponseError{Reason: "undecodable completion envelope", Raw: string(raw), Err: err}
	}
	if len(llmResp.Choices) == 0 || llmResp.Choices[0].Message.Content == "" {
		return "", &domain.MalformedUpstreamResponseError{Reason: "completion has no content", Raw: string(raw)}
	}
	return llmResp.Choices[0].Message.Content, nil
}

var promptTemplate = template.Must(template.New("prompt").Parse(`
You are a Ghanaian teacher for a {{.Level}} student in {{.Class}}.
Generate {{.Count}} multiple-choice questions about the topic of {{.Topic}} in the subject of {{.Subject}}.
The questions should be appropriate for this specific educational level and class.
For each question, provide four options and a correct answer.
Also, include a brief explanation for the correct answer.
The response must be in JSON format, with an array of question objects.
Each object should have the properties: 'question', 'options', 'correct_answer', and 'correct_answer_explanation'.
The options should be labeled with A, B, C, and D.

Example of expected JSON structure:
[
  {
    "topic": "Topic Name",
    "subject": "Subject Name",
    "question": "What is an example of an invertebrate?",
    "options": [
      {"A": "Dog"},
      {"B": "Elephant"},
      {"C": "Ant"},
      {"D": "Cat"}
    ],
    "correct_answer": "C",
    "correct_answer_explanation": "Ants are insects, which are a type of invertebrate."
  }
]
`))

// BuildPrompt renders the generation prompt for req.
func BuildPrompt(req domain.GenerationRequest) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
