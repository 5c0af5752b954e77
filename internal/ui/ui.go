package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/focusdeck/internal/models"
	"github.com/desertthunder/focusdeck/internal/progress"
	"github.com/desertthunder/focusdeck/internal/tasks"
	"github.com/desertthunder/focusdeck/internal/timer"
)

// Model represents the dashboard TUI state.
type Model struct {
	ctx      context.Context
	userID   string
	timer    *timer.Timer
	sessions *tasks.SessionEngine
	engine   *progress.Engine
	poller   *tasks.NowPlayingPoller

	stats        models.SessionStats
	achievements []models.Achievement
	track        *models.Track
	trackErr     error
	status       string
	updates      chan tasks.TrackUpdate

	width  int
	height int
	help   help.Model
	keys   keyMap
	err    error
}

type tickMsg time.Time

type sessionRecordedMsg struct {
	result tasks.SessionResult
	err    error
}

type trackUpdateMsg tasks.TrackUpdate

type pollerStoppedMsg struct{}

// NewModel creates a dashboard model with the provided dependencies.
// The poller may be nil when Spotify is not connected.
func NewModel(ctx context.Context, userID string, t *timer.Timer, engine *progress.Engine, sessions *tasks.SessionEngine, poller *tasks.NowPlayingPoller) *Model {
	stats, achievements := engine.Load(userID)
	return &Model{
		ctx:          ctx,
		userID:       userID,
		timer:        t,
		sessions:     sessions,
		engine:       engine,
		poller:       poller,
		stats:        stats,
		achievements: achievements,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init starts the one-second tick and, when connected, the track poller.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick()}
	if m.poller != nil {
		m.updates = make(chan tasks.TrackUpdate, 1)
		go m.poller.Run(m.ctx, m.updates)
		cmds = append(cmds, m.waitForTrack())
	}
	return tea.Batch(cmds...)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) waitForTrack() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return pollerStoppedMsg{}
		}
		return trackUpdateMsg(update)
	}
}

func (m *Model) recordCompletion(done timer.Completion) tea.Cmd {
	return func() tea.Msg {
		result, err := m.sessions.HandleCompletion(m.userID, done)
		return sessionRecordedMsg{result: result, err: err}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.toggle):
			m.timer.Toggle()
		case key.Matches(msg, m.keys.reset):
			m.timer.Reset()
		case key.Matches(msg, m.keys.swap):
			m.timer.SwitchPhase()
		}
		return m, nil

	case tickMsg:
		if done, ok := m.timer.Tick(); ok {
			return m, tea.Batch(m.tick(), m.recordCompletion(done))
		}
		return m, m.tick()

	case sessionRecordedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if msg.result.Recorded {
			m.stats = msg.result.Stats
			m.achievements = msg.result.Achievements
			if n := len(msg.result.NewlyUnlocked); n > 0 {
				m.status = fmt.Sprintf("Unlocked: %s", msg.result.NewlyUnlocked[0].Title)
			} else {
				m.status = "Focus session complete, time for a break"
			}
		} else {
			m.status = "Break over, ready for the next session"
		}
		return m, nil

	case trackUpdateMsg:
		m.track = msg.Track
		m.trackErr = msg.Err
		return m, m.waitForTrack()

	case pollerStoppedMsg:
		m.updates = nil
		return m, nil
	}

	return m, nil
}

// View renders the dashboard panels.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	out := m.renderTimer() + "\n" + m.renderStats() + "\n" + m.renderAchievements()
	if m.poller != nil {
		out += "\n" + m.renderTrack()
	}
	if m.status != "" {
		out += "\n" + styles.ok.Render(m.status)
	}
	return out + "\n\n" + m.help.ShortHelpView(m.keys.ShortHelp())
}

func (m *Model) renderTimer() string {
	accent := styles.focus
	label := "Focus Time"
	if m.timer.Phase() == timer.Break {
		accent = styles.rest
		label = "Break Time"
	}

	state := "paused"
	if m.timer.Running() {
		state = "running"
	}

	remaining := m.timer.Remaining()
	clock := fmt.Sprintf("%02d:%02d", remaining/60, remaining%60)

	return styles.panel.Render(fmt.Sprintf("%s\n%s  (%s)", accent.Render(label), clock, state))
}

func (m *Model) renderStats() string {
	return styles.panel.Render(fmt.Sprintf(
		"Sessions: %d   Focus: %dm   Streak: %d",
		m.stats.SessionsCompleted, m.stats.TotalFocusMinutes, m.stats.CurrentStreak,
	))
}

func (m *Model) renderAchievements() string {
	unlocked, inProgress, _ := progress.Partition(m.achievements)

	body := fmt.Sprintf("Achievements %d/%d", len(unlocked), len(m.achievements))
	for _, a := range unlocked {
		body += "\n" + styles.ok.Render("✓ "+a.Title)
	}
	for _, a := range inProgress {
		body += fmt.Sprintf("\n· %s (%d/%d)", a.Title, a.Progress, a.MaxProgress)
	}

	return styles.panel.Render(body)
}

func (m *Model) renderTrack() string {
	switch {
	case m.trackErr != nil:
		return styles.panel.Render(styles.err.Render("Spotify: " + m.trackErr.Error()))
	case m.track == nil:
		return styles.panel.Render(styles.help.Render("Nothing playing"))
	default:
		line := fmt.Sprintf("♪ %s - %s", m.track.Title, m.track.Artist)
		if m.track.Album != "" {
			line += fmt.Sprintf("\n  %s", m.track.Album)
		}
		return styles.panel.Render(line)
	}
}
