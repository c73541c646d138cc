package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/nexus/internal/config"
	"github.com/tatianab/nexus/internal/engine"
	"github.com/tatianab/nexus/internal/game"
	"github.com/tatianab/nexus/internal/models"
	"github.com/tatianab/nexus/internal/rules"
	"github.com/tatianab/nexus/internal/store"
)

const maxTurns = 10

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		log.Fatal(err)
	}

	// The game master
	gmEngine, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create GM engine: %v", err)
	}
	defer gmEngine.Close()

	// The player
	playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create player client: %v", err)
	}
	defer playerClient.Close()
	playerModel := playerClient.GenerativeModel(cfg.Model)

	dir, err := os.MkdirTemp("", "nexus-sim-")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	saves := store.New(store.OpenSQLite(filepath.Join(dir, "sim.db"), cfg.StorageQuota))
	defer saves.Close()

	session := game.NewSession(gmEngine, saves)

	// 1. Get a character from the player
	fmt.Println("--- Step 1: Requesting a character from the Player LLM ---")
	charPrompt := "You are about to start a dark-fantasy role-playing game. Invent a character. Reply with exactly two lines: the name on the first line and a one-sentence description on the second."
	name, description := "Странник", "Безымянный путник без прошлого."
	if resp, err := playerModel.GenerateContent(ctx, genai.Text(charPrompt)); err == nil {
		lines := strings.SplitN(firstText(resp), "\n", 2)
		if len(lines) == 2 && strings.TrimSpace(lines[0]) != "" {
			name, description = strings.TrimSpace(lines[0]), strings.TrimSpace(lines[1])
		}
	}
	fmt.Printf("Player: %s (%s)\n\n", name, description)

	// 2. Start the game
	fmt.Println("--- Step 2: Starting the game ---")
	report, err := session.NewGame(ctx, name, description)
	if err != nil {
		log.Fatalf("Failed to start game: %v", err)
	}
	fmt.Printf("%s\n\n", report.Description)

	// 3. Play
	for turn := 1; turn <= maxTurns; turn++ {
		fmt.Printf("--- Turn %d ---\n", turn)

		action := getPlayerAction(ctx, playerModel, session.Snapshot(), report)
		fmt.Printf("Player Action: %s\n", action)

		next, err := session.Act(ctx, action)
		if err != nil {
			fmt.Printf("Error processing turn: %v\n", err)
			continue
		}
		report = next
		fmt.Printf("GM: %s\n", report.Description)
		printReport(report)

		state := session.Snapshot()
		total := rules.CalculateTotalStats(state.CharacterStats, state.Equipment)
		fmt.Printf("Location: %s | HP %d/%d | STR %d DEX %d INT %d | Inventory: %d items\n\n",
			state.CurrentLocation, total.HP, total.MaxHP, total.Strength, total.Dexterity, total.Intelligence, len(state.Inventory))

		if report.GameOver {
			fmt.Println("Game Ended: the character died.")
			break
		}
	}

	outcome, err := session.Save(ctx)
	fmt.Printf("Final save: %s (err=%v)\n", outcome, err)
}

func printReport(r *game.TurnReport) {
	for _, q := range r.NewQuests {
		fmt.Printf("New quest: %s\n", q.Title)
	}
	for _, q := range r.CompletedQuests {
		fmt.Printf("Quest completed: %s\n", q.Title)
	}
	if r.XPGained > 0 {
		fmt.Printf("XP: +%d\n", r.XPGained)
	}
	if r.LevelUp > 0 {
		fmt.Printf("LEVEL UP: %d\n", r.LevelUp)
	}
	if r.NewItem != nil {
		fmt.Printf("New item: %s\n", r.NewItem.Name)
	}
	if r.RandomEvent != nil {
		fmt.Printf("Event: %s\n", r.RandomEvent.Name)
	}
}

func getPlayerAction(ctx context.Context, model *genai.GenerativeModel, state models.GameState, last *game.TurnReport) string {
	var history strings.Builder
	msgs := state.Messages
	if len(msgs) > 8 {
		msgs = msgs[len(msgs)-8:]
	}
	for _, m := range msgs {
		fmt.Fprintf(&history, "%s: %s\n", m.Role, m.Content)
	}

	var items []string
	for _, it := range state.Inventory {
		items = append(items, it.Name)
	}

	prompt := fmt.Sprintf(`You are playing a text-based role-playing game in Russian.
Current Location: %s
HP: %d/%d
Inventory: %s
Suggested actions: %s

Recent history:
%s

What is your next action? Pick a suggestion or invent something in the world's logic. Return ONLY the action, in Russian, no extra commentary.`,
		state.CurrentLocation,
		state.CharacterStats.HP, state.CharacterStats.MaxHP,
		strings.Join(items, ", "),
		strings.Join(last.SuggestedActions, "; "),
		history.String(),
	)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "Осмотреться"
	}
	if action := strings.TrimSpace(firstText(resp)); action != "" {
		return action
	}
	if len(last.SuggestedActions) > 0 {
		return last.SuggestedActions[0]
	}
	return "Осмотреться"
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
}
