package browse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const help = "j/k: move  enter: toggle  l/h: expand/collapse  q: quit"

// Render writes the visible rows with the cursor marked by '>'
func Render(w io.Writer, nav *Navigator) error {
	for _, line := range nav.Visible() {
		cursor := " "
		if line.Selected {
			cursor = ">"
		}

		marker := " "
		if line.Node.Expandable() {
			marker = "+"
			if line.Node.Expanded() {
				marker = "-"
			}
		}

		if _, err := fmt.Fprintf(w, "%s %s%s %s\n", cursor, strings.Repeat("  ", line.Depth), marker, line.Node.Label); err != nil {
			return err
		}
	}
	return nil
}

// Run reads one command per line from in and redraws the tree to out after
// each one. It returns when the user quits or in is exhausted.
func Run(in io.Reader, out io.Writer, nav *Navigator) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := Render(out, nav); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "[%s] > ", help); err != nil {
			return err
		}

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		for _, cmd := range commands(scanner.Text()) {
			switch cmd {
			case "q", "quit":
				return nil
			case "j", "down":
				nav.Down()
			case "k", "up":
				nav.Up()
			case "l", "right":
				nav.Expand()
			case "h", "left":
				nav.Collapse()
			case "", "enter":
				nav.Toggle()
			default:
				fmt.Fprintf(out, "unknown command %q\n", cmd)
			}
		}
	}
}

// commands splits a line into commands. A bare line is enter, "jjj" repeats
// single-letter moves, and words are kept whole.
func commands(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return []string{""}
	}

	var cmds []string
	for _, field := range strings.Fields(line) {
		if strings.Trim(field, "jkhlq") == "" {
			for _, r := range field {
				cmds = append(cmds, string(r))
			}
			continue
		}
		cmds = append(cmds, field)
	}
	return cmds
}
