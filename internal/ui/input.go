package ui

import (
	"bufio"
	"os"
	"strings"
)

// Confirm asks the user to type expected verbatim before a destructive
// action proceeds. Anything else, including EOF, declines.
func Confirm(prompt string, expected string) bool {
	os.Stdout.WriteString(prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.TrimSpace(scanner.Text()) == expected
}
