package publish

import "context"

// Hook system allows observing the publishing pipeline without modifying it.
// Hooks may be called concurrently when units are published in a batch.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	// OnStageChange fires on every state machine transition
	OnStageChange []StageChangeHook

	// AfterUpload fires once per stored artifact
	AfterUpload []AfterUploadHook

	// AfterCommit fires after the metadata transaction commits
	AfterCommit []AfterCommitHook

	// OnError fires when a unit moves to the failed stage
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	StopChain bool // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{Context: ctx}
}

// StageChangeHook is called when a unit changes stage
type StageChangeHook func(hctx *HookContext, unit ContentUnit, from, to Stage)

// AfterUploadHook is called after an artifact is stored
type AfterUploadHook func(hctx *HookContext, key string, size int64)

// AfterCommitHook is called after a unit's metadata is committed
type AfterCommitHook func(hctx *HookContext, result *Result)

// ErrorHook is called when a unit fails
type ErrorHook func(hctx *HookContext, unit string, stage Stage, err error)

func (h *Hooks) executeOnStageChange(ctx context.Context, unit ContentUnit, from, to Stage) {
	if h == nil || len(h.OnStageChange) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnStageChange {
		hook(hctx, unit, from, to)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAfterUpload(ctx context.Context, key string, size int64) {
	if h == nil || len(h.AfterUpload) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterUpload {
		hook(hctx, key, size)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAfterCommit(ctx context.Context, result *Result) {
	if h == nil || len(h.AfterCommit) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterCommit {
		hook(hctx, result)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeOnError(ctx context.Context, unit string, stage Stage, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}
	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, unit, stage, err)
		if hctx.StopChain {
			break
		}
	}
}

// Merge appends the hooks of other to h
func (h *Hooks) Merge(other *Hooks) {
	if other == nil {
		return
	}
	h.OnStageChange = append(h.OnStageChange, other.OnStageChange...)
	h.AfterUpload = append(h.AfterUpload, other.AfterUpload...)
	h.AfterCommit = append(h.AfterCommit, other.AfterCommit...)
	h.OnError = append(h.OnError, other.OnError...)
}

// LoggingHook reports pipeline progress through a printf-style logger
func LoggingHook(logger func(format string, args ...interface{})) *Hooks {
	return &Hooks{
		OnStageChange: []StageChangeHook{
			func(hctx *HookContext, unit ContentUnit, from, to Stage) {
				logger("%s: %s -> %s", unit, from, to)
			},
		},
		AfterUpload: []AfterUploadHook{
			func(hctx *HookContext, key string, size int64) {
				logger("Uploaded %s (%d bytes)", key, size)
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, unit string, stage Stage, err error) {
				logger("Error in %s while %s: %v", unit, stage, err)
			},
		},
	}
}
