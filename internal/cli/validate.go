package cli

import (
	"errors"

	"github.com/aretw0/espalier/internal/validator"
)

// ValidateOptions configures the 'validate' command.
type ValidateOptions struct {
	RunOptions
	File string // validate one tree file instead of the whole pack
}

// Validate compiles every section of the configured pack, or a single tree
// file, and reports the structural problems it finds.
func Validate(opts ValidateOptions) error {
	logger := createLogger(opts.Debug)

	engine, err := createEngine(opts.RunOptions, nil, logger)
	if err != nil {
		return err
	}

	if opts.File != "" {
		return validator.ValidateFile(opts.File, engine.Loader())
	}
	if engine.Loader() == nil {
		return errors.New("no pack to validate (set --pack)")
	}
	return validator.ValidatePack(engine.Loader())
}
