package config

import (
	"fmt"
	"os"
	"strings"
)

// ExpectedEnvSchemaVersion is the schema version that the application expects
const ExpectedEnvSchemaVersion = "1.0"

// RequiredEnvVars lists all environment variables that must be set
var RequiredEnvVars = []string{
	"ENV_SCHEMA_VERSION",
	"API_KEY",
	"SESSION_SECRET",
}

// RequiredDBEnvVars must also be set when the postgres backend is selected
var RequiredDBEnvVars = []string{
	"DB_USER",
	"DB_PASSWORD",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
}

// ValidateEnv checks that all required environment variables are set
// and that the schema version matches expectations
func ValidateEnv() error {
	schemaVersion := os.Getenv("ENV_SCHEMA_VERSION")
	if schemaVersion == "" {
		return fmt.Errorf(ErrMsgSchemaNotSet, ExpectedEnvSchemaVersion)
	}

	if schemaVersion != ExpectedEnvSchemaVersion {
		return fmt.Errorf(ErrMsgSchemaMismatch, ExpectedEnvSchemaVersion, schemaVersion)
	}

	required := RequiredEnvVars
	if backend := os.Getenv("LEDGER_BACKEND"); backend == "" || backend == BackendPostgres {
		required = append(append([]string{}, RequiredEnvVars...), RequiredDBEnvVars...)
	}

	var missing []string
	for _, envVar := range required {
		if os.Getenv(envVar) == "" {
			missing = append(missing, envVar)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf(ErrMsgMissingRequired, strings.Join(missing, ", "))
	}

	return nil
}

// ValidateEnvWithWarnings checks environment variables and returns warnings
// for non-critical issues (like using default values)
func ValidateEnvWithWarnings() ([]string, error) {
	if err := ValidateEnv(); err != nil {
		return nil, err
	}

	var warnings []string

	if os.Getenv("DB_PASSWORD") == ExamplePassword {
		warnings = append(warnings, WarnMsgExamplePassword)
	}

	if os.Getenv("API_KEY") == ExampleAPIKey {
		warnings = append(warnings, WarnMsgExampleAPIKey)
	}

	if os.Getenv("SESSION_SECRET") == ExampleSecret {
		warnings = append(warnings, WarnMsgExampleSecret)
	}

	return warnings, nil
}
