package charm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kr/text"
	"golang.org/x/term"
)

// HelpOutput is where help is written.
var HelpOutput io.Writer = os.Stderr

const tab = "    "

func flagMap(flags string) map[string]bool {
	m := make(map[string]bool)
	for _, flag := range strings.Split(flags, ",") {
		if flag = strings.TrimSpace(flag); flag != "" {
			m[flag] = true
		}
	}
	return m
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func header(heading string) string {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return heading
	}
	return "\033[1m" + heading + "\033[0m"
}

func formatParagraphs(body string, lineWidth int) string {
	var chunks []string
	for _, paragraph := range strings.Split(strings.TrimSpace(body), "\n\n") {
		paragraph = text.Wrap(strings.TrimSpace(paragraph), lineWidth)
		chunks = append(chunks, text.Indent(paragraph, tab))
	}
	return strings.Join(chunks, "\n\n") + "\n\n"
}

func helpDesc(w io.Writer, heading, body string) {
	lineWidth := terminalWidth() - len(tab) - 5
	fmt.Fprint(w, header(heading)+"\n"+formatParagraphs(body, lineWidth))
}

func helpList(w io.Writer, heading string, lines []string) {
	fmt.Fprint(w, header(heading)+"\n"+tab+strings.Join(lines, "\n"+tab)+"\n\n")
}

func commands(spec *Spec, vflag bool) []string {
	var lines []string
	for _, cmd := range spec.children {
		name := cmd.Name
		if cmd.Hidden {
			if !vflag {
				continue
			}
			name = "[" + name + "]"
		}
		lines = append(lines, name+" - "+cmd.Short)
	}
	return lines
}

// options lists the flags of every command in p, innermost first.
func options(p path, vflag bool) []string {
	lines := p.last().options(vflag)
	if len(lines) == 0 {
		lines = []string{"no flags for this command"}
	}
	for k := len(p) - 2; k >= 0; k-- {
		if opts := p[k].options(vflag); len(opts) > 0 {
			lines = append(lines, "", "["+p[:k+1].pathname()+" flags]")
			lines = append(lines, opts...)
		}
	}
	return lines
}

func displayHelp(p path, vflag bool) {
	spec := p.last().spec
	w := HelpOutput
	fmt.Fprint(w, header("NAME")+"\n"+tab+spec.Name+" - "+spec.Short+"\n\n")
	helpDesc(w, "USAGE", spec.Usage)
	helpList(w, "OPTIONS", options(p, vflag))
	if len(spec.children) > 0 {
		helpList(w, "COMMANDS", commands(spec, vflag))
	}
	if spec.Long != "" {
		helpDesc(w, "DESCRIPTION", spec.Long)
	}
}
