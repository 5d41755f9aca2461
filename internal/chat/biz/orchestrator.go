package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/rag/metrics"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
	"github.com/iranzithierry/cognova-backend/pkg/id"
	"github.com/iranzithierry/cognova-backend/pkg/llm"
	"github.com/iranzithierry/cognova-backend/pkg/utils/json"
)

// endOfTurnMarker is stripped from every streamed token before relay.
const endOfTurnMarker = "<|im_end|>"

// errStopRound aborts the provider stream once a complete tool call landed;
// it is not a failure.
var errStopRound = errors.New("tool call collected")

// ConversationStore is the persistence surface the orchestrator needs.
type ConversationStore interface {
	GetOrCreateConversation(ctx context.Context, botID, conversationID string) (*model.Conversation, error)
	SaveMessage(ctx context.Context, msg *model.Message) error
	GetMessages(ctx context.Context, conversationID string) ([]*model.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
	SourceURLsByID(ctx context.Context, sourceIDs []string) ([]string, error)
}

// OrchestratorConfig configures the streaming orchestrator.
type OrchestratorConfig struct {
	// MaxToolRounds caps how many tool invocations one turn may chain.
	MaxToolRounds int
}

// DefaultOrchestratorConfig returns the default configuration.
func DefaultOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		MaxToolRounds: 2,
	}
}

// ChatRequest is one user turn to stream.
type ChatRequest struct {
	// Bot is the addressed bot.
	Bot *model.Bot
	// ConversationID continues an existing conversation when set.
	ConversationID string
	// Message is the user's message.
	Message string
	// SourceIDs optionally narrows retrieval tools to those sources.
	SourceIDs []string
	// Provider runs the completions.
	Provider llm.ChatProvider
}

// Orchestrator streams chat completions, grounding each turn in retrieved
// context, intercepting inline tool calls and chaining follow-up completion
// rounds with the tool results.
type Orchestrator struct {
	store    ConversationStore
	tools    *ToolRegistry
	searcher Searcher
	config   *OrchestratorConfig
	metrics  *metrics.Metrics
}

// NewOrchestrator creates a streaming orchestrator. searcher may be nil, in
// which case turns run without retrieval context.
func NewOrchestrator(store ConversationStore, tools *ToolRegistry, searcher Searcher, config *OrchestratorConfig) *Orchestrator {
	if config == nil {
		config = DefaultOrchestratorConfig()
	}
	return &Orchestrator{
		store:    store,
		tools:    tools,
		searcher: searcher,
		config:   config,
		metrics:  metrics.Default(),
	}
}

// Stream runs one user turn: persist it, stream completion rounds to send,
// execute tool calls in between, and finish with a complete event.
//
// A provider failure rolls the user turn back so a retry does not duplicate
// it.
func (o *Orchestrator) Stream(ctx context.Context, req *ChatRequest, send EventFunc) error {
	o.metrics.IncChatStreams()

	conv, err := o.store.GetOrCreateConversation(ctx, req.Bot.ID, req.ConversationID)
	if err != nil {
		o.sendError(send, "failed to open conversation")
		return err
	}

	history, err := o.store.GetMessages(ctx, conv.ID)
	if err != nil {
		o.sendError(send, "failed to load conversation")
		return err
	}

	userMsg := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        req.Message,
	}
	if err := o.store.SaveMessage(ctx, userMsg); err != nil {
		o.sendError(send, "failed to save message")
		return err
	}

	results, sourceURLs := o.retrieveContext(ctx, req)
	messages := o.buildMessages(req.Bot, history, req.Message, results)

	toolRounds := 0
	for {
		scanner := newMarkerScanner()
		var text strings.Builder
		emitChunk := func(chunk string) error {
			if chunk == "" {
				return nil
			}
			text.WriteString(chunk)
			frame, err := EncodeToken(chunk)
			if err != nil {
				return err
			}
			return send(frame)
		}

		var callPayload string
		gotCall := false

		streamErr := req.Provider.StreamChat(ctx, messages, func(token string) error {
			token = strings.ReplaceAll(token, endOfTurnMarker, "")
			emit, call, ok := scanner.feed(token)
			if err := emitChunk(emit); err != nil {
				return err
			}
			if ok {
				callPayload = call
				gotCall = true
				return errStopRound
			}
			return nil
		})
		if streamErr != nil && !errors.Is(streamErr, errStopRound) {
			o.metrics.IncStreamErrors()
			logger.Warnw("chat stream failed",
				"bot_id", req.Bot.ID,
				"conversation_id", conv.ID,
				"error", streamErr.Error())
			o.sendError(send, "stream failed")
			if err := o.store.DeleteMessage(ctx, userMsg.ID); err != nil {
				logger.Warnw("failed to roll back user turn", "error", err.Error())
			}
			return apperrors.ErrStreamFailed.WithCause(streamErr)
		}

		if !gotCall {
			if tail := scanner.flush(); tail != "" {
				if err := emitChunk(tail); err != nil {
					return err
				}
			}

			switch {
			case scanner.unterminated():
				// The stream died inside a tool call: the fragment is not a
				// usable assistant turn.
				logger.Warnw("stream ended with unterminated tool call",
					"bot_id", req.Bot.ID,
					"conversation_id", conv.ID)
			case text.Len() > 0:
				assistantMsg := &model.Message{
					ConversationID: conv.ID,
					Role:           model.RoleAssistant,
					Content:        text.String(),
				}
				if err := o.store.SaveMessage(ctx, assistantMsg); err != nil {
					logger.Warnw("failed to save assistant turn", "error", err.Error())
				}
			}
			return o.sendComplete(send, sourceURLs)
		}

		if toolRounds >= o.config.MaxToolRounds {
			o.sendWarning(send, "tool call limit reached")
			return o.sendComplete(send, sourceURLs)
		}
		toolRounds++

		call, perr := parseToolCall(callPayload)
		if perr != nil {
			o.sendError(send, "malformed tool call")
			if err := o.store.DeleteMessage(ctx, userMsg.ID); err != nil {
				logger.Warnw("failed to roll back user turn", "error", err.Error())
			}
			return perr
		}

		tool, ok := o.tools.Get(call.Name)
		if !ok {
			o.sendError(send, "unknown tool: "+call.Name)
			return apperrors.ErrToolUnknown.WithMessagef("unknown tool %q", call.Name)
		}

		result, terr := tool.Execute(ctx, &ToolContext{
			WorkspaceID: req.Bot.ID,
			SourceIDs:   req.SourceIDs,
			Arguments:   call.Arguments,
		})
		if terr != nil {
			o.sendError(send, "tool execution failed")
			return apperrors.ErrToolFailed.WithCause(terr)
		}
		if strings.TrimSpace(result) == "" {
			result = "No results found."
		}
		o.metrics.IncToolCalls()

		callID := id.NewWithPrefix("call")
		argsJSON, err := json.Marshal(call.Arguments)
		if err != nil {
			argsJSON = []byte("{}")
		}

		// The tool-call turn carries the call descriptor only; whatever text
		// preceded the marker was already relayed and is not persisted.
		assistantMsg := &model.Message{
			ConversationID: conv.ID,
			Role:           model.RoleAssistant,
		}
		if err := assistantMsg.SetToolCalls([]model.ToolCall{{
			ID:   callID,
			Type: "function",
			Function: model.ToolCallFunction{
				Name:      call.Name,
				Arguments: string(argsJSON),
			},
		}}); err != nil {
			logger.Warnw("failed to serialize tool calls", "error", err.Error())
		}
		if err := o.store.SaveMessage(ctx, assistantMsg); err != nil {
			logger.Warnw("failed to save assistant turn", "error", err.Error())
		}

		toolMsg := &model.Message{
			ConversationID: conv.ID,
			Role:           model.RoleTool,
			Content:        result,
			ToolCallID:     callID,
		}
		if err := o.store.SaveMessage(ctx, toolMsg); err != nil {
			logger.Warnw("failed to save tool turn", "error", err.Error())
		}

		messages = append(messages,
			llm.Message{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{{
					ID:   callID,
					Type: "function",
					Function: llm.ToolCallFunction{
						Name:      call.Name,
						Arguments: string(argsJSON),
					},
				}},
			},
			llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: callID,
			},
		)
	}
}

// retrieveContext runs the pre-stream retrieval for the user prompt and
// resolves the URLs of the sources it surfaced. Retrieval failures degrade
// to an ungrounded turn rather than failing the stream.
func (o *Orchestrator) retrieveContext(ctx context.Context, req *ChatRequest) ([]*model.SearchResult, []string) {
	if o.searcher == nil {
		return nil, nil
	}

	results, err := o.searcher.RetrieveScoped(ctx, req.Bot.ID, req.SourceIDs, req.Message)
	if err != nil {
		logger.Warnw("retrieval failed, answering without context",
			"bot_id", req.Bot.ID,
			"error", err.Error())
		return nil, nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(results))
	sourceIDs := make([]string, 0, len(results))
	for _, r := range results {
		if _, dup := seen[r.SourceID]; dup {
			continue
		}
		seen[r.SourceID] = struct{}{}
		sourceIDs = append(sourceIDs, r.SourceID)
	}

	urls, err := o.store.SourceURLsByID(ctx, sourceIDs)
	if err != nil {
		logger.Warnw("failed to resolve cited source urls", "error", err.Error())
	}
	return results, urls
}

// buildMessages assembles the provider message list: system prompt with the
// retrieved context, prior turns, then the new user message.
func (o *Orchestrator) buildMessages(bot *model.Bot, history []*model.Message, userMessage string, results []*model.SearchResult) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: BuildSystemPrompt(bot, time.Now(), results),
	})

	for _, m := range history {
		msg := llm.Message{
			Role:       llm.Role(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		if calls, err := m.GetToolCalls(); err == nil {
			for _, c := range calls {
				msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
					ID:   c.ID,
					Type: c.Type,
					Function: llm.ToolCallFunction{
						Name:      c.Function.Name,
						Arguments: c.Function.Arguments,
					},
				})
			}
		}
		if msg.Content == "" && len(msg.ToolCalls) == 0 {
			continue
		}
		messages = append(messages, msg)
	}

	return append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: userMessage,
	})
}

func (o *Orchestrator) sendError(send EventFunc, message string) {
	if frame, err := EncodeError(message); err == nil {
		_ = send(frame)
	}
}

func (o *Orchestrator) sendWarning(send EventFunc, message string) {
	if frame, err := EncodeWarning(message); err == nil {
		_ = send(frame)
	}
}

func (o *Orchestrator) sendComplete(send EventFunc, sourceURLs []string) error {
	frame, err := EncodeComplete(sourceURLs)
	if err != nil {
		return err
	}
	return send(frame)
}
