package pipeline

import (
	"errors"
	"fmt"

	"touille/internal/pkg/common"
)

// Stage 處理流程的階段
type Stage string

const (
	StageCacheCheck Stage = "cache_check"
	StageDownload   Stage = "download"
	StageTranscribe Stage = "transcribe"
	StageExtract    Stage = "extract"
	StagePersist    Stage = "persist"
	StageDone       Stage = "done"
)

// stageFallback 各階段未分類錯誤的預設對應
var stageFallback = map[Stage]*common.CustomError{
	StageCacheCheck: common.ErrStorageUnavailable,
	StageDownload:   common.ErrDownloadFailed,
	StageTranscribe: common.ErrTranscriptionFailed,
	StageExtract:    common.ErrExtractionFailed,
	StagePersist:    common.ErrStorageUnavailable,
}

// StageError 流程在 Stage 失敗，Err 的錯誤鏈中一定有 CustomError
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf 取出失敗的階段
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

func fail(stage Stage, err error) error {
	var ce *common.CustomError
	if !errors.As(err, &ce) {
		fallback, ok := stageFallback[stage]
		if !ok {
			fallback = common.ErrInternalError
		}
		err = fallback.Wrap(err)
	}
	return &StageError{Stage: stage, Err: err}
}
