package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkucukkoc/fitcal-backend/logger"
	"github.com/mkucukkoc/fitcal-backend/models"
	"github.com/mkucukkoc/fitcal-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// how many messages of the current session are replayed to the model
	historyWindow = 20

	// once a session holds this many messages the rolling memory summary is
	// refreshed after every turn. Note: the count is re-checked each turn, so
	// past the threshold the summarizer runs on every turn.
	summaryThreshold = 50

	contextSeparator = "\n\n"

	chatChunkEvent = "chat.chunk"
)

// ChatReply is the result of one blocking turn.
type ChatReply struct {
	Reply     string `json:"reply"`
	SessionID uint   `json:"session_id"`
}

// StreamTask is an unstarted streaming turn. The core only produces it; the
// boundary layer decides where Run executes (typically `go task.Run()`).
// Chunks are pushed to the sink keyed by user id; there is no cancellation.
// Once started, the task runs to completion or failure.
type StreamTask struct {
	SessionID uint
	MessageID string
	Run       func()
}

// ChatService assembles grounded coaching context and orchestrates blocking
// and streamed turns against the model.
type ChatService struct {
	db       *gorm.DB
	model    ChatModel
	progress *ProgressService
	sink     Sink
	refuse   func(message string) bool
}

// NewChatService wires the orchestrator. A nil refusal predicate falls back to
// the built-in keyword heuristic.
func NewChatService(db *gorm.DB, model ChatModel, progress *ProgressService, sink Sink, refuse func(string) bool) *ChatService {
	if refuse == nil {
		refuse = utils.ShouldRefuse
	}
	return &ChatService{db: db, model: model, progress: progress, sink: sink, refuse: refuse}
}

// HandleMessage runs one blocking turn: persist the user message, rebuild the
// grounded context, ask the model (unless the refusal policy short-circuits),
// persist the reply, then touch the session and maintain the memory summary.
//
// The persist → read-history → complete → persist sequence is not
// transactional: two concurrent turns in the same session can interleave.
// Accepted for single-device, single-active-turn usage.
func (s *ChatService) HandleMessage(ctx context.Context, user *models.User, sessionID uint, content, imageURL, imageMime string) (*ChatReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("message content is required")
	}

	session, err := s.resolveSession(user, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.saveMessage(session, user, models.ChatRoleUser, content, imageURL, imageMime, ""); err != nil {
		return nil, err
	}

	if s.refuse(content) {
		reply := utils.RefusalMessage(user.Locale)
		if err := s.saveMessage(session, user, models.ChatRoleAssistant, reply, "", "", "refused"); err != nil {
			return nil, err
		}
		s.finalizeTurn(user, session)
		return &ChatReply{Reply: reply, SessionID: session.ID}, nil
	}

	chatContext, history, err := s.prepareTurn(user, session)
	if err != nil {
		return nil, err
	}

	reply, err := s.model.CompleteChat(ctx, chatContext, history, inlineImageFrom(imageURL, imageMime))
	if err != nil {
		return nil, err
	}

	if err := s.saveMessage(session, user, models.ChatRoleAssistant, reply, "", "", ""); err != nil {
		return nil, err
	}
	s.finalizeTurn(user, session)
	return &ChatReply{Reply: reply, SessionID: session.ID}, nil
}

// HandleMessageStream prepares a streaming turn and returns it unstarted.
// Inside Run:
//   - refusal → one terminal chunk with the full refusal text
//   - clean stream end → terminal chunk with the accumulated text
//   - failure before any delta → silent fallback to a blocking completion
//   - failure after a delta → terminal error chunk carrying the partial text,
//     which is persisted only when non-empty
//
// Every exit path finalizes the turn exactly once.
func (s *ChatService) HandleMessageStream(ctx context.Context, user *models.User, sessionID uint, content, imageURL, imageMime string) (*StreamTask, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("message content is required")
	}

	session, err := s.resolveSession(user, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.saveMessage(session, user, models.ChatRoleUser, content, imageURL, imageMime, ""); err != nil {
		return nil, err
	}

	messageID := uuid.NewString()
	task := &StreamTask{SessionID: session.ID, MessageID: messageID}

	task.Run = func() {
		defer s.finalizeTurn(user, session)

		// the request context is gone by the time the task runs
		runCtx := context.Background()

		emit := func(extra map[string]any) {
			payload := map[string]any{
				"chatId":    session.ID,
				"messageId": messageID,
			}
			for k, v := range extra {
				payload[k] = v
			}
			s.sink.SendToUser(user.ID, chatChunkEvent, payload)
		}

		if s.refuse(content) {
			reply := utils.RefusalMessage(user.Locale)
			emit(map[string]any{"content": reply, "isFinal": true})
			s.persistAssistant(session, user, reply, "refused")
			return
		}

		chatContext, history, err := s.prepareTurn(user, session)
		if err != nil {
			logger.Error("failed to prepare streaming turn", zap.Uint("session_id", session.ID), zap.Error(err))
			emit(map[string]any{"error": "failed to prepare reply", "isFinal": true, "content": ""})
			return
		}
		image := inlineImageFrom(imageURL, imageMime)

		var sentAny bool
		var latest string
		final, streamErr := s.model.StreamChat(runCtx, chatContext, history, image, func(delta string) {
			if delta == "" {
				return
			}
			sentAny = true
			latest += delta
			emit(map[string]any{"delta": delta})
		})

		if streamErr == nil {
			if final != "" {
				latest = final
			}
			emit(map[string]any{"content": latest, "isFinal": true})
			s.persistAssistant(session, user, latest, "")
			return
		}

		if !sentAny {
			// nothing reached the client yet; degrade invisibly
			logger.Warn("stream failed before first delta, falling back to blocking completion",
				zap.Uint("session_id", session.ID), zap.Error(streamErr))
			reply, err := s.model.CompleteChat(runCtx, chatContext, history, image)
			if err != nil {
				logger.Error("blocking fallback failed", zap.Uint("session_id", session.ID), zap.Error(err))
				emit(map[string]any{"error": "assistant is unavailable right now", "isFinal": true, "content": ""})
				return
			}
			emit(map[string]any{"content": reply, "isFinal": true})
			s.persistAssistant(session, user, reply, "")
			return
		}

		// partial output already reached the client; be honest about the break
		logger.Warn("stream failed mid-delivery", zap.Uint("session_id", session.ID),
			zap.Int("partial_len", len(latest)), zap.Error(streamErr))
		emit(map[string]any{"error": "stream interrupted", "isFinal": true, "content": latest})
		if latest != "" {
			s.persistAssistant(session, user, latest, "partial")
		}
	}

	return task, nil
}

// History returns the session's messages oldest-first.
func (s *ChatService) History(user *models.User, sessionID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	var session models.ChatSession
	if err := s.db.Where("id = ? AND user_id = ?", sessionID, user.ID).First(&session).Error; err != nil {
		return nil, err
	}
	msgs, err := s.recentMessages(session.ID, limit)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// ---- internals ----

// resolveSession loads the user's session or opens a new one when id is 0.
func (s *ChatService) resolveSession(user *models.User, sessionID uint) (*models.ChatSession, error) {
	if sessionID != 0 {
		var session models.ChatSession
		if err := s.db.Where("id = ? AND user_id = ?", sessionID, user.ID).First(&session).Error; err != nil {
			return nil, err
		}
		return &session, nil
	}
	session := &models.ChatSession{UserID: user.ID, Status: models.ChatSessionOpen}
	if err := s.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// prepareTurn re-reads the recent history (including the just-written user
// message) and renders the grounded context blob.
func (s *ChatService) prepareTurn(user *models.User, session *models.ChatSession) (string, []ChatTurn, error) {
	snapshot, err := s.progress.GetOrCreate(user, "")
	if err != nil {
		return "", nil, err
	}

	msgs, err := s.recentMessages(session.ID, historyWindow)
	if err != nil {
		return "", nil, err
	}

	history := make([]ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, ChatTurn{Role: m.Role, Content: m.Content})
	}

	return s.buildContext(user, snapshot, msgs), history, nil
}

// buildContext deterministically renders the context blob from five sections:
// profile, today's consumption vs goal, the 7-day rolling average, long-term
// memory, and the recent turns. Pure string composition over read-only
// queries.
func (s *ChatService) buildContext(user *models.User, today *models.DailyStats, recent []models.ChatMessage) string {
	sections := make([]string, 0, 5)

	name := user.FullName
	if name == "" {
		name = "Unknown"
	}
	sections = append(sections, fmt.Sprintf(
		"Profile: %s | goal: %s | height: %.0f cm | weight: %.1f kg",
		name, user.Goal, user.HeightCm, user.WeightKg))

	if today != nil {
		sections = append(sections, fmt.Sprintf(
			"Today (%s): %.0f/%.0f kcal | protein %.0f/%.0f g | carbs %.0f/%.0f g | fat %.0f/%.0f g | water %.0f ml",
			today.Date,
			today.CaloriesConsumed, today.CaloriesGoal,
			today.ProteinG, today.ProteinGoalG,
			today.CarbsG, today.CarbsGoalG,
			today.FatG, today.FatGoalG,
			today.WaterMl))
	}

	sections = append(sections, s.weeklyLine(user))
	sections = append(sections, s.memoryLine(user))

	if len(recent) > 0 {
		var b strings.Builder
		b.WriteString("Recent conversation:")
		for _, m := range recent {
			b.WriteString("\n")
			b.WriteString(roleLabel(m.Role))
			b.WriteString(": ")
			b.WriteString(m.Content)
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, contextSeparator)
}

func (s *ChatService) weeklyLine(user *models.User) string {
	week, err := s.progress.GetWeeklyStats(user, "", 7)
	if err != nil || week.DaysTracked == 0 {
		return "No nutrition data from the past week."
	}
	return fmt.Sprintf(
		"Last 7 days (%d tracked): avg %.0f kcal | protein %.0f g | carbs %.0f g | fat %.0f g | water %.0f ml",
		week.DaysTracked, week.AvgCalories, week.AvgProteinG, week.AvgCarbsG, week.AvgFatG, week.AvgWaterMl)
}

func (s *ChatService) memoryLine(user *models.User) string {
	var mem models.MemorySummary
	err := s.db.Where("user_id = ?", user.ID).First(&mem).Error
	if err != nil || strings.TrimSpace(mem.Summary) == "" {
		return "This is a new user with no prior conversation history."
	}
	return "Long-term memory: " + mem.Summary
}

// recentMessages returns the latest limit messages, oldest first.
func (s *ChatService) recentMessages(sessionID uint, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := s.db.
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *ChatService) saveMessage(session *models.ChatSession, user *models.User, role, content, imageURL, imageMime, tag string) error {
	msg := &models.ChatMessage{
		SessionID:  session.ID,
		UserID:     user.ID,
		Role:       role,
		Content:    content,
		ImageURL:   imageURL,
		ImageMime:  imageMime,
		ContextTag: tag,
	}
	return s.db.Create(msg).Error
}

// persistAssistant is the logging variant used inside Run, where there is no
// caller left to return an error to.
func (s *ChatService) persistAssistant(session *models.ChatSession, user *models.User, content, tag string) {
	if err := s.saveMessage(session, user, models.ChatRoleAssistant, content, "", "", tag); err != nil {
		logger.Error("failed to persist assistant message", zap.Uint("session_id", session.ID), zap.Error(err))
	}
}

// finalizeTurn touches the session and maintains the memory summary. Shared by
// every exit path of both the blocking and the streaming turn.
func (s *ChatService) finalizeTurn(user *models.User, session *models.ChatSession) {
	if err := s.db.Model(session).Update("updated_at", time.Now()).Error; err != nil {
		logger.Warn("failed to touch session", zap.Uint("session_id", session.ID), zap.Error(err))
	}
	s.maybeUpdateSummary(user, session)
}

// maybeUpdateSummary regenerates the user's rolling digest once the session
// holds at least summaryThreshold messages. The digest is an overwrite, not an
// append: each run replaces the prior one with a fresh summary of the latest
// window.
func (s *ChatService) maybeUpdateSummary(user *models.User, session *models.ChatSession) {
	msgs, err := s.recentMessages(session.ID, summaryThreshold)
	if err != nil {
		logger.Warn("failed to load messages for summary", zap.Uint("session_id", session.ID), zap.Error(err))
		return
	}
	if len(msgs) < summaryThreshold {
		return
	}

	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(roleLabel(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}

	digest := s.model.Summarize(context.Background(), b.String())
	if strings.TrimSpace(digest) == "" {
		return
	}

	var mem models.MemorySummary
	err = s.db.Where("user_id = ?", user.ID).First(&mem).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mem = models.MemorySummary{UserID: user.ID, Summary: digest, MessageCount: len(msgs)}
		if err := s.db.Create(&mem).Error; err != nil {
			logger.Warn("failed to create memory summary", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		return
	}
	if err != nil {
		logger.Warn("failed to load memory summary", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}

	mem.Summary = digest
	mem.MessageCount = len(msgs)
	if err := s.db.Save(&mem).Error; err != nil {
		logger.Warn("failed to update memory summary", zap.Uint("user_id", user.ID), zap.Error(err))
	}
}

func roleLabel(role string) string {
	if role == models.ChatRoleUser {
		return "User"
	}
	return "Coach"
}

// inlineImageFrom turns a data-URL attachment into inline bytes for the model.
// Remote URLs stay metadata-only; the model does not fetch them.
func inlineImageFrom(imageURL, imageMime string) *InlineImage {
	if !strings.HasPrefix(imageURL, "data:") {
		return nil
	}
	data, mimeType, err := DecodeDataURL(imageURL)
	if err != nil {
		return nil
	}
	if mimeType == "" {
		mimeType = imageMime
	}
	return &InlineImage{MimeType: mimeType, Data: data}
}
