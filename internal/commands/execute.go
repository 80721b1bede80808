package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Edit     func(EditArgs) (Result, error)
	Move     func(MoveArgs) (Result, error)
	Archive  func() (Result, error)
	Restore  func(RestoreArgs) (Result, error)
	Tag      func(TagArgs) (Result, error)
	Priority func(PriorityArgs) (Result, error)
	Due      func(DueArgs) (Result, error)
	Filter   func(FilterArgs) (Result, error)
	Habit    func(HabitArgs) (Result, error)
	Sub      func(SubArgs) (Result, error)
	Schedule func(ScheduleArgs) (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Edit(*cmd.Edit)
	case TypeMove:
		if handlers.Move == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Move(*cmd.Move)
	case TypeArchive:
		if handlers.Archive == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Archive()
	case TypeRestore:
		if handlers.Restore == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Restore(*cmd.Restore)
	case TypeTag:
		if handlers.Tag == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Tag(*cmd.Tag)
	case TypePriority:
		if handlers.Priority == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Priority(*cmd.Priority)
	case TypeDue:
		if handlers.Due == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Due(*cmd.Due)
	case TypeFilter:
		if handlers.Filter == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Filter(*cmd.Filter)
	case TypeHabit:
		if handlers.Habit == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Habit(*cmd.Habit)
	case TypeSub:
		if handlers.Sub == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Sub(*cmd.Sub)
	case TypeSchedule:
		if handlers.Schedule == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Schedule(*cmd.Schedule)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
