package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"i4.energy/across/smswatch/modem"
)

// runTerminal opens one session and relays commands typed on in to the
// modem, printing every reply line to out. An empty line or EOF ends it.
func runTerminal(ctx context.Context, m *modem.Modem, in io.Reader, out io.Writer) (err error) {
	s, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fmt.Fprintln(out, "Connected. Enter AT commands, an empty line quits.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		cmd := strings.TrimSpace(scanner.Text())
		if cmd == "" {
			return nil
		}

		res, err := s.Exec(ctx, cmd)
		if err != nil {
			return err
		}
		for _, line := range res.Lines() {
			fmt.Fprintln(out, line)
		}
	}
}

// confirmFrom asks question on out and reads a yes/no answer from in.
func confirmFrom(in io.Reader, out io.Writer, question string) func() bool {
	return func() bool {
		fmt.Fprintf(out, "%s [y/N] ", question)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
