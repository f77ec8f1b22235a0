package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"chessroom/internal/client/display"

	"github.com/chzyer/readline"
)

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Group       string
	Handler     func(*Session, []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  *Session
	commands map[string]*Command
	ordered  []*Command
}

func NewRegistry(session *Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerNetworkCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Group:       groupUtility,
		Handler:     r.helpHandler,
	})
	r.Register(&Command{
		Name:        "verbose",
		ShortName:   "v",
		Description: "Toggle printing of every relay event",
		Usage:       "verbose",
		Group:       groupUtility,
		Handler: func(s *Session, args []string) error {
			s.Verbose = !s.Verbose
			s.info(fmt.Sprintf("Verbose: %v", s.Verbose))
			return nil
		},
	})
	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the client",
		Usage:       "exit",
		Group:       groupUtility,
		Handler: func(s *Session, args []string) error {
			return ErrExit
		},
	})

	return r
}

const (
	groupGame    = "Game Commands"
	groupNetwork = "Network Commands"
	groupUtility = "Utility Commands"
)

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
	r.ordered = append(r.ordered, cmd)
}

// Execute runs one input line. It returns ErrExit when the user asked to
// leave; other errors are printed.
func (r *Registry) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	cmd, exists := r.commands[cmdName]
	if !exists {
		r.session.warn("Unknown command: " + cmdName)
		fmt.Fprintln(r.session.out, "Type 'help' for available commands")
		return nil
	}

	r.session.mu.Lock()
	err := cmd.Handler(r.session, parts[1:])
	r.session.mu.Unlock()

	if errors.Is(err, ErrExit) {
		return ErrExit
	}
	if err != nil {
		r.session.warn("Error: " + err.Error())
	}
	return nil
}

// Completer offers command names to readline tab completion
func (r *Registry) Completer() readline.AutoCompleter {
	names := make([]string, 0, len(r.ordered))
	for _, cmd := range r.ordered {
		names = append(names, cmd.Name)
	}
	sort.Strings(names)

	items := make([]readline.PrefixCompleterInterface, len(names))
	for i, name := range names {
		items[i] = readline.PcItem(name)
	}
	return readline.NewPrefixCompleter(items...)
}

func (r *Registry) helpHandler(s *Session, args []string) error {
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(s.out, "\n%s - %s\n", display.Paint(display.Cyan, cmd.Name), cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(s.out, "Short form: %s\n", display.Paint(display.Cyan, cmd.ShortName))
		}
		fmt.Fprintf(s.out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(s.out, "\n%s\n", display.Paint(display.Cyan, "Available Commands:"))
	for _, group := range []string{groupGame, groupNetwork, groupUtility} {
		if group == groupNetwork && !s.Networked() {
			continue
		}
		fmt.Fprintf(s.out, "\n%s\n", display.Paint(display.Yellow, group+":"))
		for _, cmd := range r.ordered {
			if cmd.Group != group {
				continue
			}
			short := "    "
			if cmd.ShortName != "" {
				short = fmt.Sprintf("[%s]", display.Paint(display.Cyan, cmd.ShortName))
				short += strings.Repeat(" ", max(0, 3-len(cmd.ShortName)))
			}
			fmt.Fprintf(s.out, "  %s %-10s %s\n", short, cmd.Name, cmd.Description)
		}
	}

	fmt.Fprintf(s.out, "\nType 'help <command>' for detailed usage\n")
	return nil
}
