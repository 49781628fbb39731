package service

import "errors"

var (
	ErrNotFound     = errors.New("plan not found")
	ErrInvalidInput = errors.New("topic is required")
	ErrNoGenerator  = errors.New("plan generator is not configured")
)
