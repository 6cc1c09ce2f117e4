package errors

import "net/http"

const (
	MsgNoAddresses        = "You have no saved addresses. Add one in settings before checking out."
	MsgAddressNotSelected = "Please select a shipping address."
	MsgInvalidInput       = "Invalid data. Check that you selected a valid address."
	MsgSessionExpired     = "Your session has expired. Please sign in again."
	MsgUnauthorized       = "You are not authorized. Please sign in again."
	MsgOrderCreate        = "The order could not be created."
	MsgPaymentSession     = "The payment page could not be opened."
	MsgPaymentUnverified  = "We could not confirm your payment yet. Check your orders in a few minutes."
	MsgGeneric            = "Something went wrong. Please try again."
)

// UserMessage renders the user-facing message for err. Inside order and
// payment session creation failures, backend statuses 400, 401 and 403 take
// precedence so the message stays actionable.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	typed := As(err)
	if typed == nil {
		return MsgGeneric
	}
	switch typed.Code() {
	case CodeNoAddresses:
		return MsgNoAddresses
	case CodeAddressNotSelected:
		return MsgAddressNotSelected
	case CodeOrderCreateFailed:
		return statusMessage(err, MsgOrderCreate)
	case CodePaymentSessionFailed:
		return statusMessage(err, MsgPaymentSession)
	case CodePaymentUnverified:
		return MsgPaymentUnverified
	case CodeUnauthorized:
		return MsgSessionExpired
	case CodeForbidden:
		return MsgUnauthorized
	case CodeValidation:
		if typed.Message() != "" {
			return typed.Message()
		}
		return MsgGeneric
	}
	return MsgGeneric
}

func statusMessage(err error, fallback string) string {
	switch StatusOf(err) {
	case http.StatusBadRequest:
		return MsgInvalidInput
	case http.StatusUnauthorized:
		return MsgSessionExpired
	case http.StatusForbidden:
		return MsgUnauthorized
	}
	return fallback
}
