package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// promptWithRetry asks until validator accepts the answer. A closed input ends the wizard.
func promptWithRetry(reader *bufio.Reader, prompt string, validator func(string) (string, error)) (string, error) {
	for {
		fmt.Print(prompt)
		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		eof := errors.Is(err, io.EOF)
		input = strings.TrimSpace(input)

		result, verr := validator(input)
		if verr == nil {
			return result, nil
		}
		if eof {
			return "", fmt.Errorf("input closed: %w", verr)
		}

		fmt.Printf("%s❌ %s%s\n\n", ErrorStyle, verr.Error(), Reset)
	}
}

// promptYesNo prompts for yes/no input, empty meaning no
func promptYesNo(reader *bufio.Reader, prompt string) (bool, error) {
	result, err := promptWithRetry(reader, prompt, func(input string) (string, error) {
		switch lower := strings.ToLower(input); lower {
		case "y", "yes", "n", "no", "":
			return lower, nil
		}
		return "", fmt.Errorf("invalid input: %s (enter y/yes/n/no or press Enter for no)", input)
	})
	if err != nil {
		return false, err
	}

	return result == "y" || result == "yes", nil
}

// promptOptional prompts for optional input with default value
func promptOptional(reader *bufio.Reader, prompt string, defaultValue string) (string, error) {
	return promptWithRetry(reader, prompt, func(input string) (string, error) {
		if input == "" {
			return defaultValue, nil
		}
		return input, nil
	})
}
