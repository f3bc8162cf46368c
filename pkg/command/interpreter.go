// Package command interprets transcribed utterances as task list commands.
//
// Dispatch is fixed-prefix on the normalized (lowercased, trimmed)
// utterance, checked in order: add, list, remove, unknown. The interpreter
// mutates the store it is given and performs no I/O of its own.
package command

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-taskist/internal/config"
	"github.com/teslashibe/go-taskist/pkg/store"
)

const (
	prefixAdd    = "add "
	prefixList   = "list"
	prefixRemove = "remove "
)

// Interpret parses one utterance, applies it to the store, and returns the
// response text. Raw transcriber output is accepted; normalization happens
// here. Task text keeps its original casing on the way into the store.
func Interpret(utterance string, cfg config.Pipeline, s *store.Store) string {
	trimmed := strings.TrimSpace(utterance)
	normalized := strings.ToLower(trimmed)

	user := cfg.UserID
	category := cfg.Category

	switch {
	case strings.HasPrefix(normalized, prefixAdd):
		task := strings.TrimSpace(trimmed[len(prefixAdd):])
		s.Add(user, category, task)
		return fmt.Sprintf("Added task '%s' to %s todo list for user %s.", task, category, user)

	case strings.HasPrefix(normalized, prefixList):
		tasks := s.Tasks(user, category)
		if len(tasks) == 0 {
			return fmt.Sprintf("No tasks in %s for %s.", category, user)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Tasks in %s for %s:", category, user)
		for _, task := range tasks {
			b.WriteString("\n- ")
			b.WriteString(task)
		}
		return b.String()

	case strings.HasPrefix(normalized, prefixRemove):
		task := strings.TrimSpace(trimmed[len(prefixRemove):])
		if s.Remove(user, category, task) {
			return fmt.Sprintf("Removed task '%s' from %s todo list for user %s.", task, category, user)
		}
		return fmt.Sprintf("Task '%s' not found in %s for %s.", task, category, user)

	default:
		return fmt.Sprintf("Unknown command: %s. Use 'add <task>', 'list', or 'remove <task>'.", utterance)
	}
}
