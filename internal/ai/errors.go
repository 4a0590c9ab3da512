package ai

import "errors"

const generationFailedMessage = "Bah, guri(a)! Deu um problema aqui nas minhas coisas e não consegui pensar numa receita. Tenta de novo em um instante, por favor."

// ErrRecipeGeneration matches every GenerationError with errors.Is.
var ErrRecipeGeneration = errors.New(generationFailedMessage)

// GenerationError folds transport, parse and schema failures into the one
// apology the user sees. Cause keeps the real reason for logs.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string { return generationFailedMessage }

func (e *GenerationError) Unwrap() error { return e.Cause }

func (e *GenerationError) Is(target error) bool { return target == ErrRecipeGeneration }
