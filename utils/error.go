package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

var ErrorRunInProgress = errors.New("completeness check already running")
