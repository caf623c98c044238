// Package auth guards the operator endpoints with an API key, checked either
// against a static key or against a Postgres operators table.
package auth

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"net/http"
	"os"

	"github.com/payflow-labs/x402-paygate-go/utils"
)

// Authenticate authenticates an operator request. When neither STATIC_API_KEY
// nor DATABASE_URL is set, no authentication is required.
func Authenticate(r *http.Request) error {

	// Get the API key from the request header
	providedKey := r.Header.Get("X-API-Key")

	// Get the static API key from the environment
	staticKey := os.Getenv("STATIC_API_KEY")

	// Get the database URL from the environment
	databaseURL := os.Getenv("DATABASE_URL")

	// Check if the environment is misconfigured
	if staticKey != "" && databaseURL != "" {
		return utils.NewStatusError(
			errors.New("both static API key and database URL are set"),
			http.StatusInternalServerError,
		)
	}

	// Check the provided key against the static key
	if staticKey != "" {
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(staticKey)) != 1 {
			return utils.NewStatusError(
				errors.New("unauthorized"),
				http.StatusUnauthorized,
			)
		}
	}

	// Check the provided key against the operators table
	if databaseURL != "" {
		return authenticateDatabase(providedKey, databaseURL)
	}

	return nil
}

// authenticateDatabase checks the provided key against the operators table.
func authenticateDatabase(providedKey, databaseURL string) error {

	// Reject an empty key before touching the database
	if providedKey == "" {
		return utils.NewStatusError(
			errors.New("unauthorized"),
			http.StatusUnauthorized,
		)
	}

	// Connect to the database
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return utils.NewStatusError(
			errors.New("failed to connect to database"),
			http.StatusInternalServerError,
		)
	}
	defer db.Close()

	// Check the API key exists in the operators table
	var apiKey string
	err = db.QueryRow(
		"SELECT api_key FROM operators WHERE api_key = $1",
		providedKey,
	).Scan(&apiKey)

	// Check if the query returned a no rows error
	if err == sql.ErrNoRows {
		return utils.NewStatusError(
			errors.New("unauthorized"),
			http.StatusUnauthorized,
		)
	}

	// Check if the query returned a different error
	if err != nil {
		return utils.NewStatusError(
			errors.New("failed to get key from database"),
			http.StatusInternalServerError,
		)
	}

	return nil
}
