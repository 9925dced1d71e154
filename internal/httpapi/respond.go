package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"funding-ledger/internal/chaindata"
	"funding-ledger/internal/deploy"
	"funding-ledger/internal/storage"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// errPrivateKey is returned for any body that carries a private key.
var errPrivateKey = fmt.Errorf("request bodies must not contain private keys; sign transactions client-side and use /api/deploy/prepare and /api/deploy/submit: %w", storage.ErrInvalidInput)

// errorBody is the uniform error response.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Success: false, Error: msg})
}

// writeError maps err onto a status code. Internal errors are logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	status := statusFor(err)
	if errors.Is(err, errPrivateKey) {
		logger.Warn("refused request carrying key material")
	}
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error("request failed")
		writeErrorMessage(w, status, "internal server error")
		return
	}
	writeErrorMessage(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, deploy.ErrNotConfigured), errors.Is(err, chaindata.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, deploy.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the body into v. Bodies carrying a private key field at
// any depth are refused before decoding into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %v: %w", err, storage.ErrInvalidInput)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("malformed json: %v: %w", err, storage.ErrInvalidInput)
	}
	if containsPrivateKey(generic) {
		return errPrivateKey
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed json: %v: %w", err, storage.ErrInvalidInput)
	}
	return nil
}

func containsPrivateKey(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if isPrivateKeyField(k) || containsPrivateKey(child) {
				return true
			}
		}
	case []any:
		for _, child := range t {
			if containsPrivateKey(child) {
				return true
			}
		}
	}
	return false
}

func isPrivateKeyField(k string) bool {
	k = strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(k))
	return k == "privatekey" || k == "mnemonic" || k == "seedphrase"
}
