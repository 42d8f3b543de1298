// Package errors defines sentinel errors shared across the copilot.
package errors

import "errors"

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuestion indicates that an empty or blank question was submitted.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrNoDocuments indicates that the document store holds no ingested chunks.
	ErrNoDocuments = errors.New("no documents ingested")
)
