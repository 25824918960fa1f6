package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const promptText = "Enter Target IPv4 Address: "

// promptTarget asks for the target address and reads a single line from in.
// Reaching the end of input returns whatever was typed, possibly nothing.
func promptTarget(in io.Reader, out io.Writer) (string, error) {
	if _, err := io.WriteString(out, promptText); err != nil {
		return "", fmt.Errorf("writing prompt: %w", err)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading target: %w", err)
	}
	return strings.TrimSpace(line), nil
}
