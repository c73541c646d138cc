package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/nexus/internal/engine"
	"github.com/tatianab/nexus/internal/game"
	"github.com/tatianab/nexus/internal/models"
	"github.com/tatianab/nexus/internal/savefile"
	"github.com/tatianab/nexus/internal/store"
	"github.com/tatianab/nexus/internal/world"
)

// cooldown follows every game master turn.
const cooldown = 2 * time.Second

const (
	placeholderName   = "Имя вашего героя..."
	placeholderAction = "Что вы делаете?"
)

type sessionState int

const (
	stateName sessionState = iota
	stateDescription
	stateLoading
	statePlaying
	stateError
)

type model struct {
	state     sessionState
	session   *game.Session
	atlas     *world.Atlas
	exportDir string

	textInput textinput.Model
	viewport  viewport.Model
	err       error
	notice    string
	gameLog   string
	width     int
	height    int

	name        string
	suggestions []string
	coolingDown bool
	// waiting is set as soon as a turn is sent, before the session marks
	// itself busy.
	waiting bool
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0C068"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func NewModel(session *game.Session, atlas *world.Atlas, exportDir string) model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 60

	// Letters belong to the input line; the log scrolls with navigation keys.
	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}

	m := model{
		state:     stateName,
		session:   session,
		atlas:     atlas,
		exportDir: exportDir,
		textInput: ti,
		viewport:  vp,
	}
	if session.Started() {
		m.state = statePlaying
		m.gameLog = m.renderHistory(session.Snapshot().Messages)
		m.textInput.Placeholder = placeholderAction
	} else {
		m.textInput.Placeholder = placeholderName
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

type gameStartedMsg struct {
	report *game.TurnReport
	err    error
}

type turnProcessedMsg struct {
	report *game.TurnReport
	err    error
}

type cooldownDoneMsg struct{}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			value := strings.TrimSpace(m.textInput.Value())
			switch m.state {
			case stateName:
				if value == "" {
					return m, nil
				}
				m.name = value
				m.state = stateDescription
				m.textInput.Reset()
				m.textInput.Placeholder = "Опишите героя (необязательно)..."
				return m, nil

			case stateDescription:
				m.state = stateLoading
				m.textInput.Reset()
				return m, m.startGame(m.name, value)

			case statePlaying:
				if value == "" {
					return m, nil
				}
				m.textInput.Reset()
				return m.handleInput(value)

			case stateError:
				m.err = nil
				m.state = stateName
				m.textInput.Placeholder = placeholderName
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = msg.Height - 8
		if m.state == statePlaying {
			m.gameLog = m.renderHistory(m.session.Snapshot().Messages)
		}
		m.refreshLog()

	case gameStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.state = statePlaying
		m.gameLog = ""
		m.appendReport(msg.report)
		m.textInput.Placeholder = placeholderAction
		return m, nil

	case turnProcessedMsg:
		m.waiting = false
		if errors.Is(msg.err, game.ErrBusy) {
			m.notice = noticeStyle.Render("Подождите немного...")
			return m, nil
		}
		m.coolingDown = true
		tick := tea.Tick(cooldown, func(time.Time) tea.Msg { return cooldownDoneMsg{} })
		if msg.err != nil {
			m.appendGameText(game.AnomalyMessage)
			m.notice = errorStyle.Render(turnErrorText(msg.err))
			return m, tick
		}
		m.appendReport(msg.report)
		return m, tick

	case cooldownDoneMsg:
		m.coolingDown = false
		return m, nil
	}

	if m.state != stateLoading {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(cmd, vpCmd)
}

func turnErrorText(err error) string {
	if errors.Is(err, engine.ErrRateLimited) {
		return "Вы действуете слишком быстро! Нексусу нужно время, чтобы обработать ваш запрос. Пожалуйста, подождите немного."
	}
	return fmt.Sprintf("Ошибка связи с Нексусом: %v", err)
}

// userError renders session errors for the player.
func userError(err error) string {
	switch {
	case errors.Is(err, game.ErrBusy):
		return "Подождите немного..."
	case errors.Is(err, game.ErrNoGame):
		return "Игра не начата."
	case errors.Is(err, game.ErrItemNotFound):
		return "Такого предмета нет в инвентаре."
	case errors.Is(err, game.ErrNotEquippable):
		return "Этот предмет нельзя экипировать."
	case errors.Is(err, game.ErrNotUsable):
		return "Этот предмет нельзя использовать."
	}
	return err.Error()
}

// handleInput runs a slash command, picks a numbered suggestion or sends
// free text to the game master.
func (m model) handleInput(input string) (tea.Model, tea.Cmd) {
	m.notice = ""
	cmd := parseInput(input, m.suggestions)
	ctx := context.Background()

	switch cmd.kind {
	case cmdQuit:
		return m, tea.Quit

	case cmdNew:
		if m.waiting {
			m.notice = noticeStyle.Render("Подождите немного...")
			return m, nil
		}
		if err := m.session.Reset(ctx); err != nil {
			m.notice = errorStyle.Render(userError(err))
			return m, nil
		}
		m.gameLog = ""
		m.suggestions = nil
		m.state = stateName
		m.textInput.Placeholder = placeholderName
		m.refreshLog()
		return m, nil

	case cmdSave:
		outcome, err := m.session.Save(ctx)
		m.notice = noticeStyle.Render(saveNotice(outcome, err))
		return m, nil

	case cmdSaveAs:
		path, err := savefile.WriteFile(m.exportDir, m.session.Snapshot())
		if err != nil {
			m.notice = errorStyle.Render("Не удалось сохранить файл: " + err.Error())
		} else {
			m.notice = noticeStyle.Render("Сохранено в " + path)
		}
		return m, nil

	case cmdMap:
		m.appendGameText(m.renderMap())
		return m, nil

	case cmdEquip, cmdUse:
		inv := m.session.Snapshot().Inventory
		if cmd.index < 1 || cmd.index > len(inv) {
			m.notice = errorStyle.Render(fmt.Sprintf("Нет предмета под номером %d", cmd.index))
			return m, nil
		}
		id := inv[cmd.index-1].ID
		var err error
		if cmd.kind == cmdEquip {
			err = m.session.Equip(ctx, id)
		} else {
			err = m.session.Use(ctx, id)
		}
		if err != nil {
			m.notice = errorStyle.Render(userError(err))
		}
		return m, nil

	case cmdUnequip:
		if err := m.session.Unequip(ctx, cmd.slot); err != nil {
			m.notice = errorStyle.Render(userError(err))
		}
		return m, nil

	case cmdTravel:
		loc, ok := m.atlas.Lookup(cmd.arg)
		if !ok {
			m.notice = errorStyle.Render("Неизвестное место: " + cmd.arg)
			return m, nil
		}
		return m.act(world.TravelAction(loc))

	case cmdInvalid:
		m.notice = errorStyle.Render(cmd.arg)
		return m, nil
	}

	return m.act(cmd.arg)
}

func (m model) act(action string) (tea.Model, tea.Cmd) {
	if m.waiting || m.coolingDown || m.session.Busy() {
		m.notice = noticeStyle.Render("Подождите немного...")
		return m, nil
	}
	if m.session.GameOver() {
		m.notice = errorStyle.Render("Ваш путь окончен. Введите /new, чтобы начать заново.")
		return m, nil
	}
	m.waiting = true
	m.suggestions = nil
	m.gameLog += "\n\n" + userStyle.Width(m.logWidth()).Render("> "+action) + "\n\n"
	m.refreshLog()
	return m, m.processTurn(action)
}

func saveNotice(outcome store.Outcome, err error) string {
	switch outcome {
	case store.Saved:
		return "Игра сохранена."
	case store.SavedTrimmed:
		return "Игра сохранена. Старые записи журнала были удалены, чтобы освободить место."
	}
	if err != nil {
		return "Не удалось сохранить игру: " + err.Error()
	}
	return "Не удалось сохранить игру."
}

func (m *model) appendReport(r *game.TurnReport) {
	if r == nil {
		return
	}
	m.appendGameText(r.Description)
	m.suggestions = r.SuggestedActions

	var notes []string
	for _, q := range r.NewQuests {
		notes = append(notes, "Новый квест: "+q.Title)
	}
	for _, q := range r.CompletedQuests {
		notes = append(notes, "Квест выполнен: "+q.Title)
	}
	if r.XPGained > 0 {
		notes = append(notes, fmt.Sprintf("+%d опыта", r.XPGained))
	}
	if r.LevelUp > 0 {
		notes = append(notes, fmt.Sprintf("Новый уровень: %d!", r.LevelUp))
	}
	if r.NewItem != nil {
		notes = append(notes, "Получен предмет: "+r.NewItem.Name)
	}
	for _, it := range r.Loot {
		notes = append(notes, "Добыча: "+it.Name)
	}
	if r.RandomEvent != nil {
		notes = append(notes, "Событие: "+r.RandomEvent.Name)
	}
	if r.GameOver {
		notes = append(notes, "Ваш путь окончен. Введите /new, чтобы начать заново.")
	}
	if len(notes) > 0 {
		m.notice = noticeStyle.Render(strings.Join(notes, " · "))
	}
}

func (m *model) appendGameText(text string) {
	m.gameLog += gameStyle.Width(m.logWidth()).Render(text) + "\n\n"
	m.refreshLog()
}

func (m *model) refreshLog() {
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
}

func (m model) logWidth() int {
	return int(float64(m.width) * 0.65)
}

func (m model) renderHistory(msgs []models.Message) string {
	var sb strings.Builder
	for _, msg := range msgs {
		if msg.Role == models.RolePlayer {
			sb.WriteString("\n\n" + userStyle.Width(m.logWidth()).Render("> "+msg.Content) + "\n\n")
			continue
		}
		sb.WriteString(gameStyle.Width(m.logWidth()).Render(msg.Content) + "\n\n")
	}
	return sb.String()
}

func (m model) renderMap() string {
	var sb strings.Builder
	sb.WriteString("Карта Нексуса\n")
	for _, f := range m.atlas.Factions {
		sb.WriteString("\n" + f.Name + "\n")
		for _, loc := range f.Locations {
			sb.WriteString("  - " + loc + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateName:
		s = fmt.Sprintf("Добро пожаловать в Нексус!\n\n%s\n\n%s", "Как зовут вашего героя?", m.textInput.View())

	case stateDescription:
		s = fmt.Sprintf("Добро пожаловать в Нексус, %s!\n\n%s\n\n%s", m.name, "Опишите своего героя:", m.textInput.View())

	case stateLoading:
		s = "\n  Нексус пробуждается... подождите.\n"

	case statePlaying:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderState())
		help := helpStyle.Render("Команды: /equip N, /unequip weapon|armor, /use N, /travel МЕСТО, /map, /save, /saveas, /new, /quit. Число выбирает подсказку.")
		s = lipgloss.JoinVertical(lipgloss.Left, mainView, m.notice, m.textInput.View(), help)

	case stateError:
		s = fmt.Sprintf("\n  %s\n\nНажмите Enter, чтобы попробовать снова, или Esc, чтобы выйти.", turnErrorText(m.err))
	}

	return "\n" + s + "\n"
}

func (m model) renderState() string {
	state := m.session.Snapshot()
	total := m.session.TotalStats()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("ЛОКАЦИЯ") + "\n" + state.CurrentLocation + "\n")
	if f, ok := m.atlas.FactionOf(state.CurrentLocation); ok {
		sb.WriteString(helpStyle.Render(f.Name) + "\n")
	}
	if state.LocationDescription != "" {
		sb.WriteString(state.LocationDescription + "\n")
	}

	base := state.CharacterStats
	sb.WriteString("\n" + titleStyle.Render("ХАРАКТЕРИСТИКИ") + "\n")
	fmt.Fprintf(&sb, "Уровень %d  Опыт %d/%d\n", base.Level, base.XP, base.XPToNextLevel)
	fmt.Fprintf(&sb, "Здоровье %d/%d\n", base.HP, base.MaxHP)
	for _, a := range models.AllAttributes {
		sb.WriteString(statLine(a, base, total) + "\n")
	}

	sb.WriteString("\n" + titleStyle.Render("РЕПУТАЦИЯ") + "\n")
	for _, f := range m.atlas.Factions {
		if f.Reputation == "" {
			continue
		}
		fmt.Fprintf(&sb, "%s: %d\n", f.Name, base.Reputation[f.Reputation])
	}

	sb.WriteString("\n" + titleStyle.Render("СНАРЯЖЕНИЕ") + "\n")
	sb.WriteString("Оружие: " + itemName(state.Equipment.Weapon) + "\n")
	sb.WriteString("Броня: " + itemName(state.Equipment.Armor) + "\n")

	sb.WriteString("\n" + titleStyle.Render("ИНВЕНТАРЬ") + "\n")
	if len(state.Inventory) == 0 {
		sb.WriteString("(пусто)\n")
	}
	for i, it := range state.Inventory {
		fmt.Fprintf(&sb, "%d. %s [%s]\n", i+1, it.Name, it.Type())
	}

	var active []string
	for _, q := range state.Quests {
		if q.Status == models.QuestActive {
			active = append(active, "- "+q.Title)
		}
	}
	if len(active) > 0 {
		sb.WriteString("\n" + titleStyle.Render("КВЕСТЫ") + "\n" + strings.Join(active, "\n") + "\n")
	}

	if c := state.CombatState; c.IsActive {
		sb.WriteString("\n" + titleStyle.Render("БОЙ") + "\n")
		for _, e := range c.Enemies {
			fmt.Fprintf(&sb, "%s %d/%d\n", e.Name, e.HP, e.MaxHP)
		}
		if c.Turn == models.PlayerTurn {
			sb.WriteString("Ваш ход\n")
		}
	}

	if len(m.suggestions) > 0 {
		sb.WriteString("\n" + titleStyle.Render("ДЕЙСТВИЯ") + "\n")
		for i, s := range m.suggestions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
		}
	}

	stateWidth := int(float64(m.width) * 0.33)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(sb.String())
}

// statLine shows the effective value, with the base value in parentheses
// when equipment changes it.
func statLine(a models.Attribute, base, total models.CharacterStats) string {
	line := fmt.Sprintf("%s: %d", a, total.Attribute(a))
	if b := base.Attribute(a); b != total.Attribute(a) {
		line += fmt.Sprintf(" (%d)", b)
	}
	return line
}

func itemName(it *models.Item) string {
	if it == nil {
		return "нет"
	}
	return it.Name
}

func (m model) startGame(name, description string) tea.Cmd {
	return func() tea.Msg {
		report, err := m.session.NewGame(context.Background(), name, description)
		return gameStartedMsg{report, err}
	}
}

func (m model) processTurn(action string) tea.Cmd {
	return func() tea.Msg {
		report, err := m.session.Act(context.Background(), action)
		return turnProcessedMsg{report, err}
	}
}

func Run(session *game.Session, atlas *world.Atlas, exportDir string) error {
	p := tea.NewProgram(NewModel(session, atlas, exportDir), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
