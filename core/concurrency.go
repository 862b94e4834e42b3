package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work of a chunked operation.
type Task[T any] struct {
	Input any // reported in CompoundError.Failed when the task fails
	Run   func(context.Context) (T, error)
}

// TaskSummary holds per-task results in task order.
type TaskSummary[T any] struct {
	Results []T
	Errors  []error
	inputs  []any
}

// ExecuteTasks runs every task with at most maxWorkers in flight.
// A failing task does not cancel the others.
func ExecuteTasks[T any](ctx context.Context, maxWorkers int, tasks []Task[T]) *TaskSummary[T] {
	summary := &TaskSummary[T]{
		Results: make([]T, len(tasks)),
		Errors:  make([]error, len(tasks)),
		inputs:  make([]any, len(tasks)),
	}
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	var g errgroup.Group
	g.SetLimit(maxWorkers)
	for i, task := range tasks {
		summary.inputs[i] = task.Input
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				summary.Errors[i] = err
				return nil
			}
			summary.Results[i], summary.Errors[i] = task.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return summary
}

// Succeeded returns the results of tasks that completed without error, in task order.
func (s *TaskSummary[T]) Succeeded() []T {
	out := make([]T, 0, len(s.Results))
	for i, r := range s.Results {
		if s.Errors[i] == nil {
			out = append(out, r)
		}
	}
	return out
}

// Err returns nil when every task succeeded. A single failed task returns its error as is;
// otherwise a *CompoundError describes the partial outcome.
func (s *TaskSummary[T]) Err() error {
	compound := &CompoundError{}
	for i, err := range s.Errors {
		if err != nil {
			compound.Failed = append(compound.Failed, s.inputs[i])
			compound.Errs = append(compound.Errs, err)
		} else {
			compound.Succeeded = append(compound.Succeeded, s.Results[i])
		}
	}
	switch {
	case len(compound.Errs) == 0:
		return nil
	case len(s.Errors) == 1:
		return compound.Errs[0]
	}
	return compound
}
