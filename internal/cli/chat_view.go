package cli

import (
	"context"
	"strings"

	"github.com/alexanderramin/jess/internal/cli/formatter"
	"github.com/alexanderramin/jess/internal/composer"
	"github.com/alexanderramin/jess/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// maxChatMessages bounds the scrollback kept in the view.
const maxChatMessages = 60

const chatWelcome = "Hi, I'm Jess. Ask me anything about assessment, interventions or report writing.\n" +
	"Commands: /mode simple|dual, /reset, /quit"

// chatReplyMsg carries the result of one composer call back into Update.
type chatReplyMsg struct {
	reply composer.Reply
	next  domain.ConversationState
	err   error
}

// chatView is the interactive chat. It owns the conversation state for the
// lifetime of the program and hands a copy to each composer call.
type chatView struct {
	ctx      context.Context
	composer *composer.Composer
	conv     domain.ConversationState
	mode     domain.ResponseMode
	style    string
	width    int

	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	messages []string
	pending  bool
}

func newChatView(ctx context.Context, c *composer.Composer, mode domain.ResponseMode, style string) *chatView {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.CharLimit = 4000

	v := &chatView{
		ctx:      ctx,
		composer: c,
		mode:     mode,
		style:    style,
		width:    80,
		input:    ti,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(formatter.StylePurple)),
		help:     help.New(),
	}
	v.add(formatter.Dim(chatWelcome))
	return v
}

// ── tea.Model interface ──────────────────────────────────────────────────────

func (v *chatView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *chatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.input.Width = max(msg.Width-12, 10)
		return v, nil

	case chatReplyMsg:
		v.pending = false
		v.handleReply(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.pending {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return v, tea.Quit
		case tea.KeyEnter:
			if v.pending {
				return v, nil
			}
			input := strings.TrimSpace(v.input.Value())
			v.input.Reset()
			if input == "" {
				return v, nil
			}
			return v.handleInput(input)
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *chatView) View() string {
	var b strings.Builder
	for _, m := range v.messages {
		b.WriteString(m)
		b.WriteString("\n")
	}
	if v.pending {
		b.WriteString(v.spinner.View() + " " + formatter.Dim("Thinking...") + "\n")
	}
	b.WriteString(formatter.StylePurple.Render(string(v.mode)) + formatter.Dim("> "))
	b.WriteString(v.input.View())
	b.WriteString("\n" + v.help.ShortHelpView(v.ShortHelp()))
	return b.String()
}

func (v *chatView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit")),
	}
}

// ── input handling ───────────────────────────────────────────────────────────

func (v *chatView) handleInput(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.ToLower(input))
	switch fields[0] {
	case "/quit", "/exit", "/q":
		return v, tea.Quit
	case "/reset":
		v.conv = domain.ConversationState{}
		v.add(formatter.Dim("Started fresh."))
		return v, nil
	case "/mode":
		if len(fields) == 2 {
			var f modeFlag
			if err := f.Set(fields[1]); err != nil {
				v.add(formatter.Error(err))
				return v, nil
			}
			v.mode = f.mode
		}
		v.add(formatter.ModeBadge(v.mode))
		return v, nil
	}

	v.add(formatter.Dim("You: ") + input)
	v.pending = true
	return v, tea.Batch(v.respond(input), v.spinner.Tick)
}

func (v *chatView) respond(utterance string) tea.Cmd {
	conv, mode := v.conv, v.mode
	return func() tea.Msg {
		reply, next, err := v.composer.Respond(v.ctx, utterance, conv, mode)
		return chatReplyMsg{reply: reply, next: next, err: err}
	}
}

func (v *chatView) handleReply(msg chatReplyMsg) {
	if msg.err != nil {
		v.add(formatter.Error(msg.err))
		return
	}
	v.conv = msg.next

	text, err := formatter.RenderMarkdown(msg.reply.Text, v.style, max(v.width-4, 20))
	if err != nil {
		text = msg.reply.Text
	}
	v.add(formatter.StylePurple.Render("Jess") + "\n" + text)
	if msg.reply.Degraded {
		v.add(formatter.Dim("(showing the factual answer only; the follow-up pass failed)"))
	}
}

func (v *chatView) add(m string) {
	v.messages = append(v.messages, m)
	if n := len(v.messages) - maxChatMessages; n > 0 {
		v.messages = v.messages[n:]
	}
}
