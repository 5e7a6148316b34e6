package config

import "errors"

var (
	ErrFileDoesNotExist  = errors.New("config file does not exist")
	ErrReadConfigFail    = errors.New("failed to read config file")
	ErrConfigParsingFail = errors.New("failed to parse config file")
	ErrInvalidConfig     = errors.New("invalid clipmd config")
)
