package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/czar/internal/board"
	"github.com/sandeepkv93/czar/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeEdit     Type = "edit"
	TypeMove     Type = "move"
	TypeArchive  Type = "archive"
	TypeRestore  Type = "restore"
	TypeTag      Type = "tag"
	TypePriority Type = "priority"
	TypeDue      Type = "due"
	TypeFilter   Type = "filter"
	TypeHabit    Type = "habit"
	TypeSub      Type = "sub"
	TypeSchedule Type = "schedule"
)

// Suggestions feeds palette autocompletion.
var Suggestions = []string{
	"/add ", "/edit title ", "/edit note ", "/move ", "/archive", "/restore ",
	"/tag ", "/priority ", "/due ", "/filter ", "/filter clear",
	"/habit add ", "/habit done", "/habit rm",
	"/sub add ", "/sub done ", "/sub undo ", "/sub rm ",
	"/schedule add ", "/schedule rm ",
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs creates a task. Inline options are p:<priority>, due:<date>,
// every:<frequency> and #tag; everything else is the title.
type AddArgs struct {
	Title      string
	Priority   model.Priority
	Due        string
	Tags       []string
	Recurrence model.Frequency
}

type EditField string

const (
	EditTitle EditField = "title"
	EditNote  EditField = "note"
)

type EditArgs struct {
	Field EditField
	Value string
}

type MoveArgs struct {
	Column model.Column
}

// RestoreArgs names an archived task by id or 1-based archive index. Empty
// means the selection.
type RestoreArgs struct {
	Target string
}

// TagArgs adds and removes tags on the selected task. "+x" and bare words add,
// "-x" removes.
type TagArgs struct {
	Add    []string
	Remove []string
}

// PriorityArgs with an empty Priority clears it.
type PriorityArgs struct {
	Priority model.Priority
}

type DueArgs struct {
	When  string
	Clear bool
}

type FilterArgs struct {
	Filter board.Filter
	Clear  bool
}

type HabitAction string

const (
	HabitAdd    HabitAction = "add"
	HabitDone   HabitAction = "done"
	HabitRemove HabitAction = "rm"
)

type HabitArgs struct {
	Action HabitAction
	Title  string
}

type SubAction string

const (
	SubAdd    SubAction = "add"
	SubDone   SubAction = "done"
	SubUndo   SubAction = "undo"
	SubRemove SubAction = "rm"
)

// SubArgs edits the selected task's checklist. Index is 1-based.
type SubArgs struct {
	Action SubAction
	Title  string
	Index  int
}

type ScheduleAction string

const (
	ScheduleAdd    ScheduleAction = "add"
	ScheduleRemove ScheduleAction = "rm"
)

type ScheduleArgs struct {
	Action    ScheduleAction
	Frequency model.Frequency
	Title     string
	Target    string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Edit     *EditArgs
	Move     *MoveArgs
	Restore  *RestoreArgs
	Tag      *TagArgs
	Priority *PriorityArgs
	Due      *DueArgs
	Filter   *FilterArgs
	Habit    *HabitArgs
	Sub      *SubArgs
	Schedule *ScheduleArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	case TypeMove:
		return parseMove(input, args)
	case TypeArchive:
		return Command{Type: TypeArchive, Raw: input}, nil
	case TypeRestore:
		return Command{Type: TypeRestore, Raw: input, Restore: &RestoreArgs{Target: strings.Join(args, " ")}}, nil
	case TypeTag:
		return parseTag(input, args)
	case TypePriority:
		return parsePriority(input, args)
	case TypeDue:
		return parseDue(input, args)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeHabit:
		return parseHabit(input, args)
	case TypeSub:
		return parseSub(input, args)
	case TypeSchedule:
		return parseSchedule(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{}
	var title []string
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "p:"):
			p, err := model.ParsePriority(arg[2:])
			if err != nil {
				return Command{}, invalid("unknown priority %q", arg[2:])
			}
			out.Priority = p
		case strings.HasPrefix(lower, "due:"):
			out.Due = arg[4:]
		case strings.HasPrefix(lower, "every:"):
			f, err := model.ParseFrequency(arg[6:])
			if err != nil {
				return Command{}, invalid("unknown frequency %q", arg[6:])
			}
			out.Recurrence = f
		case len(arg) > 1 && strings.HasPrefix(arg, "#"):
			out.Tags = append(out.Tags, arg[1:])
		default:
			title = append(title, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(title, " "))
	if out.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	out.Tags = model.NormalizeTags(out.Tags)
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("edit requires a field: title or note")
	}
	field := EditField(strings.ToLower(args[0]))
	value := strings.TrimSpace(strings.Join(args[1:], " "))
	switch field {
	case EditTitle:
		if value == "" {
			return Command{}, invalid("edit title requires text")
		}
	case EditNote:
	default:
		return Command{}, invalid("cannot edit %q", args[0])
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{Field: field, Value: value}}, nil
}

var columnAliases = map[string]model.Column{
	"todo":        model.ColumnPending,
	"progress":    model.ColumnInProgress,
	"in-progress": model.ColumnInProgress,
	"wip":         model.ColumnInProgress,
	"taken":       model.ColumnAction,
	"completed":   model.ColumnDone,
}

// ResolveColumn accepts a column id or one of its aliases.
func ResolveColumn(raw string) (model.Column, error) {
	if column, err := model.ParseColumn(raw); err == nil {
		return column, nil
	}
	if alias, ok := columnAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return alias, nil
	}
	return "", invalid("unknown column %q", raw)
}

func parseMove(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("move requires a column")
	}
	column, err := ResolveColumn(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{Column: column}}, nil
}

func parseTag(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("tag requires at least one tag")
	}
	out := TagArgs{}
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "-"):
			out.Remove = append(out.Remove, arg[1:])
		case strings.HasPrefix(arg, "+"):
			out.Add = append(out.Add, arg[1:])
		default:
			out.Add = append(out.Add, arg)
		}
	}
	out.Add = model.NormalizeTags(out.Add)
	out.Remove = model.NormalizeTags(out.Remove)
	if len(out.Add) == 0 && len(out.Remove) == 0 {
		return Command{}, invalid("tag requires at least one tag")
	}
	return Command{Type: TypeTag, Raw: raw, Tag: &out}, nil
}

func parsePriority(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("priority requires a value or none")
	}
	value := strings.Join(args, " ")
	if strings.EqualFold(value, "none") {
		return Command{Type: TypePriority, Raw: raw, Priority: &PriorityArgs{}}, nil
	}
	p, err := model.ParsePriority(value)
	if err != nil {
		return Command{}, invalid("unknown priority %q", value)
	}
	return Command{Type: TypePriority, Raw: raw, Priority: &PriorityArgs{Priority: p}}, nil
}

func parseDue(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("due requires a date or none")
	}
	when := strings.Join(args, " ")
	if strings.EqualFold(when, "none") {
		return Command{Type: TypeDue, Raw: raw, Due: &DueArgs{Clear: true}}, nil
	}
	return Command{Type: TypeDue, Raw: raw, Due: &DueArgs{When: when}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) == 0 || (len(args) == 1 && strings.EqualFold(args[0], "clear")) {
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Clear: true}}, nil
	}
	f := board.Filter{Due: board.DueAll}
	var query []string
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "p:"):
			p, err := model.ParsePriority(arg[2:])
			if err != nil {
				return Command{}, invalid("unknown priority %q", arg[2:])
			}
			f.Priority = p
		case strings.HasPrefix(lower, "tag:"):
			f.Tags = append(f.Tags, arg[4:])
		case len(arg) > 1 && strings.HasPrefix(arg, "#"):
			f.Tags = append(f.Tags, arg[1:])
		case strings.HasPrefix(lower, "due:"):
			w, err := board.ParseDueWindow(arg[4:])
			if err != nil {
				return Command{}, invalid("unknown due window %q", arg[4:])
			}
			f.Due = w
		default:
			query = append(query, arg)
		}
	}
	f.Tags = model.NormalizeTags(f.Tags)
	f.Query = strings.Join(query, " ")
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Filter: f}}, nil
}

func parseHabit(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("habit requires add, done or rm")
	}
	action := HabitAction(strings.ToLower(args[0]))
	title := strings.TrimSpace(strings.Join(args[1:], " "))
	switch action {
	case HabitAdd:
		if title == "" {
			return Command{}, invalid("habit add requires a title")
		}
	case HabitDone, HabitRemove:
	default:
		return Command{}, invalid("unknown habit action %q", args[0])
	}
	return Command{Type: TypeHabit, Raw: raw, Habit: &HabitArgs{Action: action, Title: title}}, nil
}

func parseSub(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("sub requires add, done, undo or rm")
	}
	action := SubAction(strings.ToLower(args[0]))
	rest := args[1:]
	switch action {
	case SubAdd:
		title := strings.TrimSpace(strings.Join(rest, " "))
		if title == "" {
			return Command{}, invalid("sub add requires a title")
		}
		return Command{Type: TypeSub, Raw: raw, Sub: &SubArgs{Action: action, Title: title}}, nil
	case SubDone, SubUndo, SubRemove:
		if len(rest) != 1 {
			return Command{}, invalid("sub %s requires a subtask number", action)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 1 {
			return Command{}, invalid("bad subtask number %q", rest[0])
		}
		return Command{Type: TypeSub, Raw: raw, Sub: &SubArgs{Action: action, Index: n}}, nil
	default:
		return Command{}, invalid("unknown sub action %q", args[0])
	}
}

func parseSchedule(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("schedule requires add or rm")
	}
	switch ScheduleAction(strings.ToLower(args[0])) {
	case ScheduleAdd:
		if len(args) < 3 {
			return Command{}, invalid("schedule add requires a frequency and a title")
		}
		f, err := model.ParseFrequency(args[1])
		if err != nil {
			return Command{}, invalid("unknown frequency %q", args[1])
		}
		return Command{Type: TypeSchedule, Raw: raw, Schedule: &ScheduleArgs{
			Action:    ScheduleAdd,
			Frequency: f,
			Title:     strings.Join(args[2:], " "),
		}}, nil
	case ScheduleRemove:
		if len(args) != 2 {
			return Command{}, invalid("schedule rm requires a schedule id or number")
		}
		return Command{Type: TypeSchedule, Raw: raw, Schedule: &ScheduleArgs{Action: ScheduleRemove, Target: args[1]}}, nil
	default:
		return Command{}, invalid("unknown schedule action %q", args[0])
	}
}
