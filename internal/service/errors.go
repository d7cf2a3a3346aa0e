package service

import "fmt"

var (
	ErrCannotListEvents  = fmt.Errorf("cannot list events")
	ErrCannotBuildReport = fmt.Errorf("cannot build report")
	ErrCannotLoadStats   = fmt.Errorf("cannot load stats")
	ErrInvalidDimension  = fmt.Errorf("invalid dimension")
	ErrUnknownService    = fmt.Errorf("unknown service")
)
