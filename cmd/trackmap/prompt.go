package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// Prompter asks the user questions on the terminal.
type Prompter interface {
	Confirm(title string) (bool, error)
	Input(title, initial string) (string, error)
}

type huhPrompter struct{}

func (huhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return ok, nil
}

func (huhPrompter) Input(title, initial string) (string, error) {
	value := initial
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&value).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("value is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("failed to read value: %w", err)
	}
	return value, nil
}
