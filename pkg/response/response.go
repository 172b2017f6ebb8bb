// Package response holds the JSON bodies the API answers with outside of the
// link payload itself.
package response

type Error struct {
	Error string `json:"error"`
}

type Message struct {
	Message string `json:"message"`
}

type Status struct {
	Status string `json:"status"`
}

var (
	InvalidURLResponse         = Error{Error: "Invalid URL provided"}
	InvalidShortCodeResponse   = Error{Error: "Custom code must be 6-8 alphanumeric characters"}
	InvalidRequestBodyResponse = Error{Error: "Invalid request body"}
	ShortCodeExistsResponse    = Error{Error: "Short code already exists"}
	LinkNotFoundResponse       = Error{Error: "Link not found"}
	ServerErrorResponse        = Error{Error: "Internal server error"}
	NotFoundResponse           = Error{Error: "Not found"}
	MethodNotAllowedResponse   = Error{Error: "Method not allowed"}
)

var (
	LinkDeletedResponse = Message{Message: "Link deleted successfully"}
	HealthyResponse     = Status{Status: "ok"}
)
