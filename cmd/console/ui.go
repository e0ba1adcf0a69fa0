package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

const (
	NarratorName    = "Mestre"
	PlaceHolderText = "Descreva sua ação..."
)

var classes = []string{"guerreiro", "mago", "ladino", "aventureiro"}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	playerName   string
	gameState    *state.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Class selection state
	showClassModal bool
	selectedClass  int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// Transient status line (clipboard feedback)
	status string
}

type turnResponseMsg struct {
	response *chat.TurnResponse
	err      error
}

type sessionMsg struct {
	gameState *state.GameState
	err       error
}

type sessionCreatedMsg struct {
	gameState *state.GameState
	err       error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, playerName string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		playerName:     playerName,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		showClassModal: true,
	}
}

func writeMetadata(gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("PERSONAGEM") + "\n\n")

	p := gs.Player
	content.WriteString(fmt.Sprintf("%s\n%s %s, nível %d\n\n", p.Name, p.Class, p.Race, p.Level))
	content.WriteString(fmt.Sprintf("Vida: %d/%d\n", p.HP, p.MaxHP))
	content.WriteString(fmt.Sprintf("Mana: %d/%d\n", p.Mana, p.MaxMana))
	content.WriteString(fmt.Sprintf("Vigor: %d/%d\n", p.Stamina, p.MaxStamina))
	content.WriteString(fmt.Sprintf("Ouro: %d\n", p.Gold))
	content.WriteString(fmt.Sprintf("XP: %d\n\n", p.XP))

	content.WriteString("Local:\n" + gs.World.Location + "\n\n")

	if enemies := gs.ActiveEnemies(); len(enemies) > 0 {
		content.WriteString(titleStyle.Render("COMBATE") + "\n")
		for _, e := range enemies {
			content.WriteString(fmt.Sprintf("%s: %d/%d\n", e.Name, e.HP, e.MaxHP))
		}
		content.WriteString("\n")
	}

	if len(p.Inventory) > 0 {
		content.WriteString("Mochila:\n")
		for _, item := range p.Inventory {
			content.WriteString("• " + item + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("Comandos:\n")
	content.WriteString("• Enter: enviar\n")
	content.WriteString("• Ctrl+Y: copiar cena\n")
	content.WriteString("• Ctrl+C: sair\n")
	content.WriteString("• /ajuda: ajuda\n")

	return content.String()
}

// writeChatContent rebuilds the chat panel from the session history.
// Tool traffic and system markers are engine internals and stay hidden.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("RPG IA MASTER") + "\n\n")
	content.WriteString("Descreva suas ações abaixo para viver a aventura.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	if m.gameState != nil {
		for _, msg := range m.gameState.History {
			switch {
			case msg.IsNarrative():
				content.WriteString(formatNarratorResponse(msg.Content, chatWidth) + "\n\n")
			case msg.Role == chat.RoleUser:
				content.WriteString(userStyle.Render("Você: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
			}
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}
	if m.status != "" {
		content.WriteString(loadingStyle.Render(m.status) + "\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showClassModal {
		return m.updateClassModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		m.writeChatContent()
		if m.gameState != nil {
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil

		case tea.KeyCtrlY:
			m.copyLastScene()
			m.writeChatContent()
			return m, nil

		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.status = ""
			m.progressTick = 0

			// Echo the player's action immediately.
			m.gameState.History = append(m.gameState.History, chat.User(input))
			m.writeChatContent()

			return m, tea.Batch(m.sendTurnMessage(input), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Erro: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.gameState.History = append(m.gameState.History, chat.Assistant(msg.response.Message))
			m.writeChatContent()
		}
		m.chatViewport.GotoBottom()
		// The authoritative session (HP, gold, enemies) lives server-side.
		return m, m.refreshSession()

	case sessionMsg:
		if msg.err == nil && msg.gameState != nil {
			m.gameState = msg.gameState
			m.metaViewport.SetContent(writeMetadata(m.gameState))
			m.writeChatContent()
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resizePanels() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// copyLastScene puts the most recent narrative on the system clipboard.
func (m *ConsoleUI) copyLastScene() {
	if m.gameState == nil {
		return
	}
	scene := m.gameState.LastNarrative()
	if scene == "" {
		m.status = "Nada para copiar ainda."
		return
	}
	if err := clipboard.WriteAll(scene); err != nil {
		m.status = "Não foi possível copiar a cena."
		return
	}
	m.status = "Cena copiada para a área de transferência."
}

func formatNarratorResponse(response string, width int) string {
	prefix := NarratorName + ": "
	wrapped := wordwrap.String(response, width-len(prefix))
	return narratorStyle.Render(prefix) + wrapped
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/ajuda", "/help":
		helpText := `
Comandos:
• /ajuda - Mostra esta ajuda
• /ficha - Mostra a ficha do personagem
• Ctrl+Y - Copia a última cena
• Ctrl+C - Sair do jogo

Como jogar:
• Descreva sua ação e pressione Enter
• O mestre narra o resultado e conduz a história
• Seja descritivo para respostas melhores
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Ajuda:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/ficha":
		var sheet strings.Builder
		sheet.WriteString(titleStyle.Render("Ficha:") + "\n")
		p := m.gameState.Player
		sheet.WriteString(fmt.Sprintf("%s, %s %s nível %d\n", p.Name, p.Class, p.Race, p.Level))
		sheet.WriteString(fmt.Sprintf("FOR %d DES %d CON %d INT %d SAB %d CAR %d\n",
			p.Stats.Strength, p.Stats.Dexterity, p.Stats.Constitution,
			p.Stats.Intelligence, p.Stats.Wisdom, p.Stats.Charisma))
		sheet.WriteString(fmt.Sprintf("Defesa %d, bônus de ataque %+d\n\n", p.Defense, p.AttackBonus))

		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + sheet.String())
		m.chatViewport.GotoBottom()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendTurnMessage(message string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendTurn(m.client, m.config.APIBaseURL, m.gameState.ID, message)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		gs, err := getSession(m.client, m.config.APIBaseURL, m.gameState.ID)
		return sessionMsg{gs, err}
	}
}

func (m ConsoleUI) createSessionForClass(class string) tea.Cmd {
	return func() tea.Msg {
		gs, err := createSession(m.client, m.config.APIBaseURL, m.playerName, class)
		return sessionCreatedMsg{gs, err}
	}
}

func (m ConsoleUI) updateClassModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.gameState = msg.gameState
			m.showClassModal = false
			if m.width > 0 && m.height > 0 {
				m.resizePanels()
			}
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.gameState))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedClass > 0 {
				m.selectedClass--
			}
		case tea.KeyDown:
			if m.selectedClass < len(classes)-1 {
				m.selectedClass++
			}
		case tea.KeyEnter:
			if !m.loading {
				m.loading = true
				return m, m.createSessionForClass(classes[m.selectedClass])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "s", "S", "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Carregando..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Sair do jogo?"))
	content.WriteString("\n\n")
	content.WriteString("Tem certeza de que quer abandonar a aventura?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Pressione S para sair ou N para continuar"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderClassModal() string {
	if m.width == 0 || m.height == 0 {
		return "Carregando..."
	}

	var content strings.Builder

	if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Erro"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Falha ao criar a sessão: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Pressione Ctrl+C para sair")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Criando aventura..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Preparando sua sessão..."))
	} else {
		content.WriteString(modalTitleStyle.Render(fmt.Sprintf("Escolha a classe de %s", m.playerName)))
		content.WriteString("\n\n")

		for i, class := range classes {
			if i == m.selectedClass {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", class)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", class)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ para navegar, Enter para escolher, Ctrl+C para sair"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showClassModal {
		return m.renderClassModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Inicializando..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar draws the animated bar shown while a turn resolves.
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
