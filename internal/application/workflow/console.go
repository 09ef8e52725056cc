package workflow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ErrInputClosed is returned when a prompt reaches the end of input
var ErrInputClosed = errors.New("input closed while waiting for a response")

// Default pacing between console messages
const (
	DefaultPrintPause = time.Second
	DefaultWarnPause  = 500 * time.Millisecond
)

// Console is the human-facing surface used by steps
type Console struct {
	in         *bufio.Reader
	out        io.Writer
	errOut     io.Writer
	printPause time.Duration
	warnPause  time.Duration
	sleep      func(time.Duration)
}

// NewConsole creates a console over the given streams
func NewConsole(in io.Reader, out, errOut io.Writer, printPause, warnPause time.Duration) *Console {
	return &Console{
		in:         bufio.NewReader(in),
		out:        out,
		errOut:     errOut,
		printPause: printPause,
		warnPause:  warnPause,
		sleep:      time.Sleep,
	}
}

// StdConsole uses the process streams with default pacing
func StdConsole() *Console {
	return NewConsole(os.Stdin, os.Stdout, os.Stderr, DefaultPrintPause, DefaultWarnPause)
}

// Print writes a blank line and the message, then pauses so sequential
// messages stay readable.
func (c *Console) Print(message string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, message)
	c.sleep(c.printPause)
}

// Warn writes the message to the error stream and pauses to keep its
// ordering relative to the main output.
func (c *Console) Warn(message string) {
	fmt.Fprintln(c.errOut, message)
	c.sleep(c.warnPause)
}

// Input prints the message and reads one line after the hint
func (c *Console) Input(message, hint string) (string, error) {
	c.Print(message)
	fmt.Fprint(c.out, hint+" : ")
	return c.readLine()
}

// WaitForDone prints the message and blocks until the user confirms with y
func (c *Console) WaitForDone(message string) error {
	c.Print(message)
	for {
		fmt.Fprint(c.out, "Step complete? y / [n] : ")
		answer, err := c.readLine()
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "y") {
			return nil
		}
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
		// last line without a trailing newline
	case errors.Is(err, io.EOF):
		return "", ErrInputClosed
	default:
		return "", fmt.Errorf("failed to read user input: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	return norm.NFC.String(line), nil
}

// ParseFunc converts raw input into a field value.
// Returning ok=false rejects the input and the prompt is repeated.
type ParseFunc func(input string) (value any, ok bool)

// OneOf accepts only the listed options
func OneOf(options ...string) ParseFunc {
	return func(input string) (any, bool) {
		for _, o := range options {
			if input == o {
				return input, true
			}
		}
		return nil, false
	}
}

// ParseInt accepts base-10 integers
func ParseInt(input string) (any, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}
