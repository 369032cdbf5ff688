package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// Command is a subcommand that can be attached to the root command.
type Command interface {
	Name() string
	Command() *cobra.Command
}

type builtCommand struct {
	cmd *cobra.Command
}

func (b builtCommand) Name() string            { return b.cmd.Name() }
func (b builtCommand) Command() *cobra.Command { return b.cmd }

// Wrap adapts a cobra command to Command.
func Wrap(cmd *cobra.Command) Command {
	return builtCommand{cmd: cmd}
}

// Registry keeps subcommands unique by name.
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

func (r *Registry) Register(cmd Command) error {
	name := cmd.Name()
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s is already registered", name)
	}
	r.commands[name] = cmd
	return nil
}

func (r *Registry) Get(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// List returns all registered command names in alphabetical order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AttachToRoot adds every registered command to rootCmd in name order.
func (r *Registry) AttachToRoot(rootCmd *cobra.Command) error {
	for _, name := range r.List() {
		cobraCmd := r.commands[name].Command()
		if cobraCmd == nil {
			return fmt.Errorf("command %s returned nil cobra.Command", name)
		}
		rootCmd.AddCommand(cobraCmd)
	}
	return nil
}

// Builtin returns a registry holding every avalanche subcommand.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	for _, cmd := range []*cobra.Command{
		NewToggleCmd(),
		NewListCmd(),
		NewConfigCmd(),
		NewStatusCmd(),
		NewSyncCmd(),
		NewRunCmd(),
		NewFreezeCmd(),
		NewUnfreezeCmd(),
	} {
		if err := r.Register(Wrap(cmd)); err != nil {
			return nil, err
		}
	}
	return r, nil
}
