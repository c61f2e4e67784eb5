package errors

// User-facing messages returned by the API error mapper. The UI shows these
// verbatim, so they stay generic: upstream details live in the technical
// message only.
const (
	MsgInvalidRequest     = "The request is missing required information."
	MsgCaseNotFound       = "No case was found with that ID."
	MsgAddressNotFound    = "No address was found for that search."
	MsgServiceUnavailable = "A backend service is temporarily unavailable. Please try again."
	MsgInternalError      = "Something went wrong. Please try again or contact support."
)
