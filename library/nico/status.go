// Package nico is a client for the niconico search API.
//
// The API answers every search with newline-delimited JSON chunks. This package
// builds the request body from chained builder calls, posts it through a Transport,
// and folds the chunk stream into a single normalized result.
package nico

// API status codes reported by the search API, either as the implicit success
// status or through the errid field of an error chunk.
const (
	APICodeOK                 = 200
	APICodeBadRequest         = 300
	APICodeServiceUnavailable = 101
	APICodeGatewayTimeout     = 1001
)

// Status is an HTTP-like status translated from an API code.
type Status struct {
	Code int    `json:"status"`
	Text string `json:"text"`
}

var (
	statusOK                  = Status{Code: 200, Text: "OK"}
	statusInternalServerError = Status{Code: 500, Text: "Internal Server Error"}

	statusTable = map[int]Status{
		APICodeOK:                 statusOK,
		APICodeBadRequest:         {Code: 400, Text: "Bad Request"},
		APICodeServiceUnavailable: {Code: 503, Text: "Service Unavailable"},
		APICodeGatewayTimeout:     {Code: 504, Text: "Gateway Timeout"},
	}
)

// TranslateStatus maps an API code to its HTTP-like status.
// Unknown codes map to 500 Internal Server Error.
func TranslateStatus(apiCode int) Status {
	if st, ok := statusTable[apiCode]; ok {
		return st
	}
	return statusInternalServerError
}
