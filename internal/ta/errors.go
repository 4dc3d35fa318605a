package ta

import "github.com/pkg/errors"

var (
	// ErrInsufficientData: серия короче окна индикатора.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidInput: пустая серия, неположительная цена, кривые параметры окна.
	ErrInvalidInput = errors.New("invalid input")
)

func insufficient(indicator string, need, have int) error {
	return errors.Wrapf(ErrInsufficientData, "%s: need %d values, have %d", indicator, need, have)
}

func invalid(indicator, format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, indicator+": "+format, args...)
}
