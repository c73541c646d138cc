package engine

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/tatianab/nexus/internal/models"
)

//go:embed prompts/system.txt
var systemPrompt string

//go:embed prompts/initial_stats.txt
var initialStatsPrompt string

//go:embed prompts/turn_context.txt
var turnContextPrompt string

var turnContextTmpl = template.Must(template.New("turn_context").Parse(turnContextPrompt))

// StartAction is sent in place of a player action to open a new game.
const StartAction = "Начать игру"

var (
	// ErrRateLimited means the model refused the request because of rate
	// limits; the player should wait before acting again.
	ErrRateLimited = errors.New("game master is rate limited")

	// ErrMalformedResponse means the model replied with something that is
	// not a usable game response.
	ErrMalformedResponse = errors.New("malformed game master response")
)

// Turn is everything the game master sees for one player action. The last
// message of History is the action being answered.
type Turn struct {
	History   []models.Message
	Inventory []models.Item
	Equipment models.Equipment
	Quests    []models.Quest
	Stats     models.CharacterStats
	Combat    models.CombatState
	Location  string
	Player    *models.PlayerInfo
}

type Engine struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

func NewEngine(ctx context.Context, apiKey, modelName string) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Engine{
		client:    client,
		modelName: modelName,
		logger:    slog.Default().With("component", "engine"),
	}, nil
}

func (e *Engine) Close() {
	e.client.Close()
}

// InitialStats asks the model for a starting attribute spread. On failure it
// returns models.DefaultInitialStats together with the error.
func (e *Engine) InitialStats(ctx context.Context, player models.PlayerInfo) (models.InitialStats, error) {
	model := e.client.GenerativeModel(e.modelName)
	model.SystemInstruction = genai.NewUserContent(genai.Text(initialStatsPrompt))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = initialStatsSchema
	model.SetTemperature(0.5)

	prompt := fmt.Sprintf("Generate stats for the following character:\nName: %s\nDescription: %s", player.Name, player.Description)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		e.logger.Error("initial stats request failed", "error", err)
		return models.DefaultInitialStats(), classifyError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return models.DefaultInitialStats(), err
	}

	var stats models.InitialStats
	if err := json.Unmarshal([]byte(trimFence(text)), &stats); err != nil {
		e.logger.Warn("unparseable initial stats", "error", err)
		return models.DefaultInitialStats(), fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return stats, nil
}

var initialStatsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"strength":     {Type: genai.TypeInteger, Description: "Character's strength attribute. Must be between 1 and 10."},
		"dexterity":    {Type: genai.TypeInteger, Description: "Character's dexterity attribute. Must be between 1 and 10."},
		"intelligence": {Type: genai.TypeInteger, Description: "Character's intelligence attribute. Must be between 1 and 10."},
		"reputation": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				models.ReputationLight:   {Type: genai.TypeInteger, Description: "Reputation with the light pantheon. Default is 0."},
				models.ReputationDark:    {Type: genai.TypeInteger, Description: "Reputation with the dark pantheon. Default is 0."},
				models.ReputationNeutral: {Type: genai.TypeInteger, Description: "Reputation with the neutral pantheon. Default is 0."},
			},
			Required: []string{models.ReputationLight, models.ReputationDark, models.ReputationNeutral},
		},
	},
	Required: []string{"strength", "dexterity", "intelligence", "reputation"},
}

// Respond plays one game master turn.
func (e *Engine) Respond(ctx context.Context, turn Turn) (*models.GameResponse, error) {
	history, message, err := buildContents(turn)
	if err != nil {
		return nil, err
	}

	model := e.client.GenerativeModel(e.modelName)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.8)
	model.SetTopP(0.95)

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		e.logger.Error("turn request failed", "error", err)
		return nil, classifyError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	gr, err := ParseResponse(text)
	if err != nil {
		e.logger.Warn("rejected game master reply", "error", err, "reply", text)
		return nil, err
	}
	return gr, nil
}

// buildContents maps the conversation onto chat history and renders the
// final user message: the context block followed by the player's action.
func buildContents(turn Turn) ([]*genai.Content, string, error) {
	action := StartAction
	past := turn.History
	if n := len(turn.History); n > 0 {
		action = turn.History[n-1].Content
		past = turn.History[:n-1]
	}

	history := make([]*genai.Content, 0, len(past))
	for _, msg := range past {
		role := "model"
		if msg.Role == models.RolePlayer {
			role = "user"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}

	inventory, err := json.Marshal(nonNil(turn.Inventory))
	if err != nil {
		return nil, "", fmt.Errorf("encode inventory: %w", err)
	}
	equipment, err := json.Marshal(turn.Equipment)
	if err != nil {
		return nil, "", fmt.Errorf("encode equipment: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		Player    *models.PlayerInfo
		Stats     models.CharacterStats
		Location  string
		Inventory string
		Equipment string
		Quests    []models.Quest
		Combat    models.CombatState
		Action    string
	}{
		Player:    turn.Player,
		Stats:     turn.Stats,
		Location:  turn.Location,
		Inventory: string(inventory),
		Equipment: string(equipment),
		Quests:    turn.Quests,
		Combat:    turn.Combat,
		Action:    action,
	}
	if err := turnContextTmpl.Execute(&buf, data); err != nil {
		return nil, "", err
	}
	return history, buf.String(), nil
}

func nonNil(items []models.Item) []models.Item {
	if items == nil {
		return []models.Item{}
	}
	return items
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content returned from Gemini", ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: unexpected response type from Gemini", ErrMalformedResponse)
	}
	return sb.String(), nil
}

func trimFence(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// ParseResponse decodes a game master reply and checks that it carries the
// fields every turn must return.
func ParseResponse(text string) (*models.GameResponse, error) {
	clean := trimFence(text)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for _, field := range []string{"currentLocation", "locationDescription"} {
		if _, ok := probe[field]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformedResponse, field)
		}
	}

	var resp models.GameResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	switch {
	case resp.Description == "":
		return nil, fmt.Errorf("%w: missing description", ErrMalformedResponse)
	case resp.SuggestedActions == nil:
		return nil, fmt.Errorf("%w: missing suggested_actions", ErrMalformedResponse)
	case resp.Inventory == nil:
		return nil, fmt.Errorf("%w: missing inventory", ErrMalformedResponse)
	case resp.Quests == nil:
		return nil, fmt.Errorf("%w: missing quests", ErrMalformedResponse)
	case resp.CharacterStats == nil:
		return nil, fmt.Errorf("%w: missing characterStats", ErrMalformedResponse)
	case resp.CombatState == nil:
		return nil, fmt.Errorf("%w: missing combatState", ErrMalformedResponse)
	}
	return &resp, nil
}

// classifyError marks quota and rate limit failures with ErrRateLimited.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "resource exhausted") {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}
