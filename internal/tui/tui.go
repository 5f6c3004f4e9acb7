// Package tui draws the game in a terminal with termbox and turns mouse and
// key input into board clicks, drags and player actions.
package tui

import (
	"context"
	"fmt"

	"github.com/nsf/termbox-go"

	"chessclient/internal/board"
	"chessclient/internal/game"
	"chessclient/internal/logging"
	"chessclient/internal/theme"
	"chessclient/internal/toast"
)

// Actions are the player commands bound to keys.
type Actions interface {
	Resign() error
	OfferDraw() error
	Ping() error
	Leave() error
}

// UI is the terminal front end of one game.
type UI struct {
	game    *game.Game
	board   *board.Board
	actions Actions
	toasts  *toast.Sink
	themes  *theme.Store
	player  string

	// pressed is the square under a held mouse button.
	pressed string
}

// New creates a UI. Nothing touches the terminal until Run.
func New(g *game.Game, b *board.Board, a Actions, toasts *toast.Sink, themes *theme.Store, player string) *UI {
	return &UI{game: g, board: b, actions: a, toasts: toasts, themes: themes, player: player}
}

// Frame captures what the next redraw shows.
func (u *UI) Frame() Frame {
	return Frame{
		Game:    u.game.Snapshot(),
		Toasts:  u.toasts.Active(),
		Palette: PaletteFor(u.themes.Theme()),
		Player:  u.player,
	}
}

// Handle applies one input event. It returns false when the user quits.
func (u *UI) Handle(ev termbox.Event) bool {
	switch ev.Type {
	case termbox.EventKey:
		return u.handleKey(ev)
	case termbox.EventMouse:
		u.handleMouse(ev)
	case termbox.EventError:
		logging.Errorf("terminal: %v", ev.Err)
	}
	return true
}

func (u *UI) handleKey(ev termbox.Event) bool {
	switch {
	case ev.Key == termbox.KeyEsc, ev.Key == termbox.KeyCtrlC, ev.Ch == 'q':
		if err := u.actions.Leave(); err != nil {
			logging.Debugf("leave: %v", err)
		}
		return false
	case ev.Ch == 't':
		u.themes.Toggle()
	case ev.Ch == 'r':
		u.report("resign", u.actions.Resign())
	case ev.Ch == 'd':
		u.report("offer draw", u.actions.OfferDraw())
	case ev.Ch == 'p':
		u.report("ping", u.actions.Ping())
	case ev.Key == termbox.KeySpace:
		u.board.ClearSelection()
	}
	return true
}

// handleMouse treats press and release on one square as a click and on two
// squares as a drag of the pressed piece.
func (u *UI) handleMouse(ev termbox.Event) {
	sq, onBoard := SquareAt(ev.MouseX, ev.MouseY)
	switch ev.Key {
	case termbox.MouseLeft:
		// termbox repeats the press while the button is held.
		if u.pressed == "" && onBoard {
			u.pressed = sq
		}
	case termbox.MouseRelease:
		from := u.pressed
		u.pressed = ""
		if from == "" {
			return
		}
		if !onBoard {
			u.board.DragEnd()
			return
		}
		if from == sq {
			u.report("click", u.board.ClickSquare(sq))
			return
		}
		if _, ok := u.board.PieceAt(from); !ok {
			return
		}
		if err := u.board.DragStart(from); err != nil {
			u.report("drag", err)
			return
		}
		u.report("drop", u.board.Drop(sq))
		u.board.DragEnd()
	}
}

func (u *UI) report(what string, err error) {
	if err == nil {
		return
	}
	logging.Warnf("%s: %v", what, err)
	u.toasts.Show(fmt.Sprintf("Could not %s: %v", what, err), toast.Warning)
}

// Run takes over the terminal until the user quits or ctx is done.
func (u *UI) Run(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)

	redraw := make(chan struct{}, 1)
	poke := func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	}
	u.game.AddWatcher(redraw)
	defer u.game.RemoveWatcher(redraw)
	u.toasts.OnChange(poke)
	defer u.toasts.OnChange(nil)
	u.themes.OnChange(func(theme.Theme) { poke() })

	events := make(chan termbox.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()
	defer termbox.Interrupt()

	u.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !u.Handle(ev) {
				return nil
			}
			u.draw()
		case <-redraw:
			u.draw()
		}
	}
}

func (u *UI) draw() {
	f := u.Frame()
	_ = termbox.Clear(f.Palette.Text, f.Palette.Background)
	Render(termboxCanvas{}, f)
	_ = termbox.Flush()
}
