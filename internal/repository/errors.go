package repository

import "errors"

var (
	ErrGameNotFound = errors.New("game not found")
	ErrHandNotFound = errors.New("hand not found")
	ErrInvalidHand  = errors.New("invalid hand payload")
)
