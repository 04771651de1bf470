package api

import (
	"net/http"

	"github.com/ignite/hcp-engage/internal/pkg/logger"
)

// respondSafeError logs the full internal error and sends a sanitized JSON
// error response. Internal details (SQL, file paths, connection strings)
// never reach API consumers; the public message is all they see.
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error(publicMsg, "status", code, "error", internalErr.Error())
	}
	respondError(w, code, publicMsg)
}
