package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/internal/repository"
	apperrors "membership-platform/backend/pkg/errors"
	"membership-platform/backend/pkg/logger"
	"membership-platform/backend/shared/observability"

	"github.com/google/uuid"
)

// Warnings attached to a successful reply when a follow-up write failed
const (
	WarnUserMessageNotSaved      = "user_message_not_saved"
	WarnAssistantMessageNotSaved = "assistant_message_not_saved"
	WarnTitleNotUpdated          = "title_not_updated"
	WarnUsageNotRecorded         = "usage_not_recorded"
)

// Authenticator resolves the caller of a request
type Authenticator interface {
	Resolve(ctx context.Context, creds Credentials) (*models.Identity, error)
}

// CeilingResolver returns the caller's daily chat ceiling
type CeilingResolver interface {
	Ceiling(ctx context.Context, userID uint, now time.Time) int
}

// SendMessageRequest is the chat request body
type SendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	AgentID        string `json:"agentId,omitempty"`
}

// SendMessageResult is the successful chat response
type SendMessageResult struct {
	Success          bool            `json:"success"`
	UserMessage      *models.Message `json:"userMessage"`
	AssistantMessage *models.Message `json:"assistantMessage"`
	TokensUsed       int             `json:"tokensUsed"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// ChatConfig tunes the chat flow
type ChatConfig struct {
	HistoryLimit   int
	TitleMaxLength int
	// Strict reserves the quota slot before the completion call instead of counting after it.
	Strict bool
}

// ChatService runs one chat turn: authenticate, authorize, check quota, complete, persist.
type ChatService struct {
	identity      Authenticator
	entitlements  CeilingResolver
	quota         *QuotaLedger
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	agents        repository.AgentRepository
	profiles      repository.ProfileRepository
	gateway       Gateway
	metrics       *observability.ChatMetrics
	cfg           ChatConfig
	now           func() time.Time
}

// ChatDeps groups the collaborators of ChatService
type ChatDeps struct {
	Identity      Authenticator
	Entitlements  CeilingResolver
	Quota         *QuotaLedger
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Agents        repository.AgentRepository
	Profiles      repository.ProfileRepository
	Gateway       Gateway
	Metrics       *observability.ChatMetrics
}

func NewChatService(deps ChatDeps, cfg ChatConfig) *ChatService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.TitleMaxLength <= 0 {
		cfg.TitleMaxLength = 50
	}
	return &ChatService{
		identity:      deps.Identity,
		entitlements:  deps.Entitlements,
		quota:         deps.Quota,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		agents:        deps.Agents,
		profiles:      deps.Profiles,
		gateway:       deps.Gateway,
		metrics:       deps.Metrics,
		cfg:           cfg,
		now:           time.Now,
	}
}

// SendMessage runs the chat flow. Every failure is an *apperrors.AppError.
func (s *ChatService) SendMessage(ctx context.Context, creds Credentials, req SendMessageRequest) (*SendMessageResult, error) {
	res, err := s.sendMessage(ctx, creds, req)
	if err != nil {
		s.metrics.Outcome(ctx, apperrors.GetErrorCode(err))
		return nil, err
	}
	s.metrics.Outcome(ctx, "OK")
	return res, nil
}

func (s *ChatService) sendMessage(ctx context.Context, creds Credentials, req SendMessageRequest) (*SendMessageResult, error) {
	log := logger.FromContext(ctx)

	identity, err := s.identity.Resolve(ctx, creds)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoCredentials):
			log.Debug("chat request without credentials")
		case errors.Is(err, ErrIdentityProvider):
			log.LogError(err, "identity provider failed")
		default:
			log.Info("chat request with invalid credentials", "reason", err.Error())
		}
		return nil, apperrors.NewUnauthorizedError("UNAUTHORIZED", "Unauthorized")
	}

	if !s.gateway.Configured() {
		log.Error("completion provider credentials are not configured")
		return nil, apperrors.NewInternalServerError("OPENAI_NOT_CONFIGURED", "AI service is not configured")
	}

	if strings.TrimSpace(req.ConversationID) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewBadRequestError("INVALID_REQUEST", "conversationId and message are required")
	}

	log = log.WithUserID(identity.Key()).WithConversationID(req.ConversationID)

	conv, err := s.conversations.GetOwned(ctx, req.ConversationID, identity.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation not found")
	}
	if err != nil {
		log.LogError(err, "failed to load conversation")
		return nil, apperrors.NewInternalServerError("INTERNAL_ERROR", "Failed to load conversation").Wrap(err)
	}

	now := s.now()
	ceiling := s.entitlements.Ceiling(ctx, identity.UserID, now)

	var reservedDay time.Time
	if s.cfg.Strict {
		reservedDay, err = s.quota.Reserve(ctx, identity.UserID, ceiling, now)
	} else {
		_, err = s.quota.Check(ctx, identity.UserID, ceiling, now)
	}
	if errors.Is(err, ErrQuotaExceeded) {
		log.Info("daily chat limit reached", "ceiling", ceiling)
		return nil, apperrors.NewTooManyRequestsError("DAILY_LIMIT_REACHED",
			fmt.Sprintf("Daily limit reached. Your plan allows %d AI chat messages per day.", ceiling))
	}
	if err != nil {
		log.LogError(err, "failed to check usage")
		return nil, apperrors.NewInternalServerError("QUOTA_CHECK_FAILED", "Failed to check usage").Wrap(err)
	}

	// a reserved slot is given back unless a completion is obtained
	completed := false
	if s.cfg.Strict {
		defer func() {
			if completed {
				return
			}
			if err := s.quota.Release(context.WithoutCancel(ctx), identity.UserID, reservedDay); err != nil {
				log.LogError(err, "failed to release reserved usage")
			}
		}()
	}

	agent, history, profile, appErr := s.loadContext(ctx, log, identity, conv, req)
	if appErr != nil {
		return nil, appErr
	}

	result := s.gateway.Complete(ctx, CompletionRequest{
		Model:    agent.Model,
		Messages: BuildContext(agent, profile, history, req.Message),
	})
	if appErr := completionError(result); appErr != nil {
		log.Warn("completion failed", "kind", result.Kind.String(), "raw", result.Raw)
		return nil, appErr
	}
	completed = true
	s.metrics.Tokens(ctx, result.Model, result.Tokens)

	out := &SendMessageResult{Success: true, TokensUsed: result.Tokens}

	userMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        req.Message,
		CreatedAt:      now,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		log.LogError(err, "failed to save user message")
		out.Warnings = s.warn(ctx, out.Warnings, WarnUserMessageNotSaved)
	}

	repliedAt := s.now()
	if !repliedAt.After(now) {
		repliedAt = now.Add(time.Millisecond)
	}
	assistantMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        result.Text,
		TokensUsed:     result.Tokens,
		CreatedAt:      repliedAt,
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		log.LogError(err, "failed to save assistant message")
		out.Warnings = s.warn(ctx, out.Warnings, WarnAssistantMessageNotSaved)
	}
	out.UserMessage = userMsg
	out.AssistantMessage = assistantMsg

	if len(history) == 0 {
		if err := s.conversations.SetTitle(ctx, conv.ID, TruncateTitle(req.Message, s.cfg.TitleMaxLength)); err != nil {
			log.LogError(err, "failed to set conversation title")
			out.Warnings = s.warn(ctx, out.Warnings, WarnTitleNotUpdated)
		}
	}

	if !s.cfg.Strict {
		if err := s.quota.Increment(ctx, identity.UserID, now); err != nil {
			log.LogError(err, "failed to record usage")
			out.Warnings = s.warn(ctx, out.Warnings, WarnUsageNotRecorded)
		}
	}

	return out, nil
}

// loadContext fetches the agent, recent history and optional profile for one turn.
func (s *ChatService) loadContext(ctx context.Context, log *logger.Logger, identity *models.Identity, conv *models.Conversation, req SendMessageRequest) (*models.Agent, []models.Message, *models.NicheProfile, *apperrors.AppError) {
	agentID := conv.AgentID
	if agentID == "" {
		agentID = req.AgentID
	}
	if agentID == "" {
		return nil, nil, nil, apperrors.NewNotFoundError("AGENT_NOT_FOUND", "Agent not found")
	}

	agent, err := s.agents.GetByID(ctx, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil, apperrors.NewNotFoundError("AGENT_NOT_FOUND", "Agent not found")
	}
	if err != nil {
		log.LogError(err, "failed to load agent", "agent_id", agentID)
		return nil, nil, nil, apperrors.NewInternalServerError("INTERNAL_ERROR", "Failed to load agent").Wrap(err)
	}

	history, err := s.messages.Recent(ctx, conv.ID, s.cfg.HistoryLimit)
	if err != nil {
		log.LogError(err, "failed to load history")
		return nil, nil, nil, apperrors.NewInternalServerError("INTERNAL_ERROR", "Failed to load conversation history").Wrap(err)
	}

	profile, err := s.profiles.GetByUser(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.LogWarn(err, "failed to load niche profile, continuing without personalization")
		}
		profile = nil
	}

	return agent, history, profile, nil
}

func (s *ChatService) warn(ctx context.Context, warnings []string, w string) []string {
	s.metrics.Warning(ctx, w)
	return append(warnings, w)
}

// completionError maps a non-success completion onto the response error. Nil on success.
func completionError(r CompletionResult) *apperrors.AppError {
	switch r.Kind {
	case CompletionSuccess:
		return nil
	case CompletionUnauthorized:
		return apperrors.NewInternalServerError("OPENAI_INVALID_KEY", "AI service is misconfigured")
	case CompletionRateLimited:
		return apperrors.NewTooManyRequestsError("OPENAI_RATE_LIMIT", "AI service is busy. Please try again shortly.").
			WithDetails(r.Raw)
	case CompletionBillingExhausted:
		return apperrors.NewPaymentRequiredError("OPENAI_QUOTA_EXCEEDED", "AI service quota has been exhausted").
			WithDetails(r.Raw)
	default:
		return apperrors.NewInternalServerError("OPENAI_ERROR", "Failed to generate a response").
			WithDetails(r.Raw)
	}
}

// TruncateTitle keeps the first max runes of message and marks the cut with "...".
func TruncateTitle(message string, max int) string {
	if utf8.RuneCountInString(message) <= max {
		return message
	}
	return string([]rune(message)[:max]) + "..."
}
