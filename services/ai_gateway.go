package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/metrics"
	"go.uber.org/zap"
)

// Study modes
const (
	ModeChat       = "chat"
	ModeRedacao    = "redacao"
	ModeProfessora = "professora"
	ModeQuestao    = "questao"
)

// FallbackReply is returned when the gateway answers without any choice
const FallbackReply = "Desculpe, não consegui gerar uma resposta agora. Tente novamente em instantes."

var systemPrompts = map[string]string{
	ModeChat: "Você é a assistente de estudos da AprovIA, especializada no ENEM. " +
		"Responda em português do Brasil, de forma clara e objetiva, com exemplos quando ajudar.",
	ModeRedacao: "Você é uma corretora de redações do ENEM. Avalie o texto nas cinco competências " +
		"(domínio da norma culta, compreensão da proposta, organização das informações, mecanismos " +
		"linguísticos e proposta de intervenção), atribua de 0 a 200 pontos em cada uma, informe a nota " +
		"final de 0 a 1000 e explique como melhorar.",
	ModeProfessora: "Você é uma professora paciente preparando alunos para o ENEM. Explique o conteúdo " +
		"passo a passo, confira se o aluno entendeu e proponha um exercício curto ao final.",
	ModeQuestao: "Você cria e resolve questões no estilo do ENEM. Ao criar, traga enunciado, " +
		"cinco alternativas (A a E) e o gabarito comentado. Ao resolver, explique o raciocínio de cada alternativa.",
}

// SystemPrompt returns the instruction for a mode; unknown modes fall back to chat
func SystemPrompt(mode string) string {
	if p, ok := systemPrompts[strings.ToLower(strings.TrimSpace(mode))]; ok {
		return p
	}
	return systemPrompts[ModeChat]
}

// ChatMessage is one role-tagged turn of a conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StudyAssistant completes a conversation for a study mode
type StudyAssistant interface {
	Complete(ctx context.Context, mode string, messages []ChatMessage) (string, error)
}

// AIGatewayClient calls an OpenAI-compatible chat completions endpoint
type AIGatewayClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	metrics metrics.Recorder
}

var aiGatewayInstance StudyAssistant

// InitAIGateway initializes the AI gateway client from configuration
func InitAIGateway(cfg *config.Config, logger *zap.Logger) StudyAssistant {
	aiGatewayInstance = NewAIGatewayClient(cfg.AIGatewayAPIKey, cfg.AIModel, cfg.AIGatewayURL, logger, metrics.Get())
	return aiGatewayInstance
}

// GetAIGateway returns the initialized AI gateway client
func GetAIGateway() StudyAssistant {
	return aiGatewayInstance
}

// SetAIGateway sets the AI gateway client (primarily for testing)
func SetAIGateway(a StudyAssistant) {
	aiGatewayInstance = a
}

// NewAIGatewayClient creates a new gateway client
func NewAIGatewayClient(apiKey, model, baseURL string, logger *zap.Logger, recorder metrics.Recorder) *AIGatewayClient {
	return &AIGatewayClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger:  logger,
		metrics: recorder,
	}
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete prepends the mode prompt and returns the first completion's text
func (c *AIGatewayClient) Complete(ctx context.Context, mode string, messages []ChatMessage) (string, error) {
	if c.apiKey == "" {
		return "", ErrAIGatewayNotConfigured
	}

	body, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: append([]ChatMessage{{Role: "system", Content: SystemPrompt(mode)}}, messages...),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordProviderCall("ai_gateway", "complete", "error")
		return "", fmt.Errorf("%w: %v", ErrAIGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		c.metrics.RecordProviderCall("ai_gateway", "complete", "error")
		return "", fmt.Errorf("%w: reading body: %v", ErrAIGatewayUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordProviderCall("ai_gateway", "complete", "error")
		c.logger.Error("AI gateway returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(respBody), 1024)),
		)
		return "", fmt.Errorf("%w: status %d", ErrAIGatewayUnavailable, resp.StatusCode)
	}
	c.metrics.RecordProviderCall("ai_gateway", "complete", "ok")

	var completion completionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		c.logger.Warn("Unexpected AI gateway response", zap.Error(err))
		return FallbackReply, nil
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return FallbackReply, nil
	}
	return completion.Choices[0].Message.Content, nil
}
