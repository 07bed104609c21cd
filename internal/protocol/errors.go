package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Request layer.
	ErrBadRequest        = "E_BAD_REQUEST"
	ErrUnknownFilter     = "E_UNKNOWN_FILTER"
	ErrRegionTooLarge    = "E_REGION_TOO_LARGE"
	ErrDuplicateTerminal = "E_DUPLICATE_TERMINAL"
	ErrInternal          = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrBadRequest:        {},
	ErrUnknownFilter:     {},
	ErrRegionTooLarge:    {},
	ErrDuplicateTerminal: {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
