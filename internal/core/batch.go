package core

import (
	"context"
	"fmt"
	"strings"
)

// batchState tracks progression of a multi-operation request. Each operation
// commits independently; a failure stops the run but never unwinds the
// operations that already committed.
type batchState int

const (
	batchPending batchState = iota
	batchRunning
	batchSucceeded
	batchFailed
)

type batchRun struct {
	state    batchState
	index    int
	messages []string
	refs     *refTable
}

func newBatchRun() *batchRun {
	return &batchRun{state: batchPending, refs: newRefTable()}
}

// executeBatch applies the operations in order, binding person refs as add
// operations succeed so later item operations can target them symbolically.
func (s *Service) executeBatch(ctx context.Context, cmd BatchCommand) Result {
	run := newBatchRun()
	for i, op := range cmd.Operations {
		run.state = batchRunning
		run.index = i

		var res Result
		switch op.Intent {
		case IntentEditPerson:
			res = s.executeEditPerson(ctx, *op.Person)
			if res.OK && op.Person.Ref != "" && res.Created != nil {
				run.refs.Bind(op.Person.Ref, res.Created.PersonID)
			}
		case IntentEditItem:
			res = s.executeEditItem(ctx, *op.Item, run.refs)
		default:
			res = failure(fmt.Sprintf("Operation #%d: intent must be edit_person or edit_item.", i+1))
		}

		if !res.OK {
			run.state = batchFailed
			return Result{
				OK: false,
				Message: fmt.Sprintf("Completed %d change(s), then operation #%d failed: %s",
					len(run.messages), i+1, res.Message),
				Errors:    run.messages,
				SessionID: cmd.SessionID,
			}
		}
		run.messages = append(run.messages, res.Message)
	}
	run.state = batchSucceeded
	return Result{
		OK:        true,
		Message:   strings.Join(run.messages, " "),
		SessionID: cmd.SessionID,
	}
}
