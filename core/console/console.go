package console

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run connects to the session websocket at url and runs the terminal UI
// until the user quits or ctx is cancelled.
func Run(ctx context.Context, url string) error {
	client, err := Dial(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	program := tea.NewProgram(NewModel(client, client.Frames()), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("console failed: %w", err)
	}

	return client.Err()
}
