package httpapi

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/krazyTry/lpbot/internal/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type failure struct {
	status  int
	message string
}

// failures maps each kind to its status and client-safe message. Underlying
// errors are only logged.
var failures = map[pipeline.Kind]failure{
	pipeline.KindMissingToken:           {http.StatusUnauthorized, "missing auth token"},
	pipeline.KindInvalidToken:           {http.StatusUnauthorized, "invalid auth token"},
	pipeline.KindInvalidRequest:         {http.StatusBadRequest, "invalid request"},
	pipeline.KindNoDelegatedWallet:      {http.StatusConflict, "no delegated wallet found"},
	pipeline.KindPoolLookupFailed:       {http.StatusBadGateway, "pool lookup failed"},
	pipeline.KindTransactionBuildFailed: {http.StatusInternalServerError, "transaction build failed"},
	pipeline.KindRemoteSigningFailed:    {http.StatusBadGateway, "remote signing failed"},
	pipeline.KindBroadcastFailed:        {http.StatusBadGateway, "broadcast failed"},
	pipeline.KindTimeout:                {http.StatusGatewayTimeout, "upstream timeout"},
	pipeline.KindInternal:               {http.StatusInternalServerError, "internal error"},
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	return failureFor(pipeline.KindOf(err)).status
}

func failureFor(kind pipeline.Kind) failure {
	if f, ok := failures[kind]; ok {
		return f
	}
	return failures[pipeline.KindInternal]
}

func writeError(w http.ResponseWriter, err error) {
	kind := pipeline.KindOf(err)
	f := failureFor(kind)
	writeJSON(w, f.status, errorBody{Error: f.message, Code: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
