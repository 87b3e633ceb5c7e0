package domain

import (
	"context"
	"errors"
)

// Step is one ordered action of a create operation. Compensate, when set,
// undoes Run and is only invoked when rollback is requested.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// DeleteTask is one independent action of a delete operation.
type DeleteTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// TaskResult is the outcome of a DeleteTask.
type TaskResult struct {
	Name string
	Err  error
}

// OK reports whether the task succeeded.
func (r TaskResult) OK() bool {
	return r.Err == nil
}

// Summary aggregates the results of a delete operation.
type Summary struct {
	Results []TaskResult
}

// OK reports whether every task succeeded.
func (s Summary) OK() bool {
	for _, r := range s.Results {
		if !r.OK() {
			return false
		}
	}
	return true
}

// Failed returns the failed tasks in execution order.
func (s Summary) Failed() []TaskResult {
	var failed []TaskResult
	for _, r := range s.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err joins the errors of every failed task, or returns nil.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Failed() {
		errs = append(errs, r.Err)
	}
	return errors.Join(errs...)
}
