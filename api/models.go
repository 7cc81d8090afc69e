package api

// NewSessionResponse is returned from POST /stb/new-session. Key is the
// short one-time code handed to the operator; Secret identifies the session
// in subsequent del-session and poll calls.
type NewSessionResponse struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// ErrorResponse is the JSON body of every non-2xx device API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
