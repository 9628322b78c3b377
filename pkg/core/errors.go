package core

import "errors"

// ErrNoRawData is returned when no source table produced a usable raw record.
var ErrNoRawData = errors.New("no raw employment records survived reconciliation")

// ErrNoRecords is returned when a pipeline stage receives an empty table.
var ErrNoRecords = errors.New("no employment records to process")
