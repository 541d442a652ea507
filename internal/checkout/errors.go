package checkout

import "errors"

var (
	ErrNothingSelected     = errors.New("no cart lines selected for checkout")
	ErrMissingShippingInfo = errors.New("shipping name, phone and address are required")
	ErrCommitInProgress    = errors.New("a commit attempt is already running for this session")
	ErrIllegalTransition   = errors.New("illegal transition of checkout state")
)
