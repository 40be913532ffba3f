package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// secrets reads passwords that were not passed as flags, so they stay out
// of shell history and the process list. A terminal is prompted with echo
// off; anything else is read one line per secret.
type secrets struct {
	cmd  *cobra.Command
	term int
	r    *bufio.Reader
}

func newSecrets(cmd *cobra.Command) *secrets {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &secrets{cmd: cmd, term: int(f.Fd())}
	}
	return &secrets{cmd: cmd, term: -1, r: bufio.NewReader(in)}
}

// get returns flag unless it is empty, in which case the secret is read.
func (s *secrets) get(flag, prompt string) (string, error) {
	if flag != "" {
		return flag, nil
	}

	if s.term >= 0 {
		fmt.Fprintf(s.cmd.ErrOrStderr(), "%s: ", prompt)
		b, err := term.ReadPassword(s.term)
		fmt.Fprintln(s.cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read %s: %w", prompt, err)
		}
		return s.nonEmpty(string(b), prompt)
	}

	line, err := s.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", prompt, err)
	}
	return s.nonEmpty(strings.TrimRight(line, "\r\n"), prompt)
}

func (s *secrets) nonEmpty(v, prompt string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("%s is required (flag or stdin)", strings.ToLower(prompt))
	}
	return v, nil
}
