package lnurl

// PayParams is the LN SERVICE metadata returned by an LNURL-pay endpoint.
type PayParams struct {
	// Callback is the URL from LN SERVICE which will accept the pay
	// request parameters.
	Callback string `json:"callback"`

	// MaxSendable is the max amount LN SERVICE is willing to receive, in
	// millisatoshis.
	MaxSendable uint64 `json:"maxSendable"`

	// MinSendable is the min amount LN SERVICE is willing to receive, can
	// not be less than 1 or more than MaxSendable.
	MinSendable uint64 `json:"minSendable"`

	// Metadata json which must be presented as raw string here.
	Metadata string `json:"metadata"`

	Tag string `json:"tag"`
}

// InvoiceResponse is the second LNURL-pay response carrying the invoice.
type InvoiceResponse struct {
	PR     string   `json:"pr"`
	Routes []string `json:"routes"`
}

// WithdrawResponse is the first LNURL-withdraw response, served by us to the
// wallet scanning the ATM QR.
type WithdrawResponse struct {
	Tag                string `json:"tag"`
	Callback           string `json:"callback"`
	K1                 string `json:"k1"`
	MinWithdrawable    uint64 `json:"minWithdrawable"`
	MaxWithdrawable    uint64 `json:"maxWithdrawable"`
	DefaultDescription string `json:"defaultDescription"`
}

const (
	TagPayRequest      = "payRequest"
	TagWithdrawRequest = "withdrawRequest"
)

// Response is the generic LNURL status envelope.
type Response struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func OkResponse() Response {
	return Response{Status: "OK"}
}

func ErrorResponse(reason string) Response {
	return Response{Status: "ERROR", Reason: reason}
}
