package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	apierrors "github.com/diogo/gptchat/internal/errors"
	"github.com/diogo/gptchat/internal/models"
)

// DotEnvFile is the file read from the working directory before the environment
const DotEnvFile = ".env"

// LoadDotEnv loads variables from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadCredential reads the API key from .env and the environment.
// The returned error is only about reading .env; validation is separate.
func LoadCredential() (string, error) {
	err := LoadDotEnv(DotEnvFile)
	return os.Getenv(models.CredentialEnvVar), err
}

// ValidateCredential checks the key is present and carries the expected prefix
func ValidateCredential(key string) error {
	if key == "" {
		return apierrors.NewConfigError(apierrors.ReasonMissing,
			fmt.Sprintf("%s is not set", models.CredentialEnvVar))
	}
	if !strings.HasPrefix(key, models.CredentialPrefix) {
		return apierrors.NewConfigError(apierrors.ReasonMalformed,
			fmt.Sprintf("%s must start with %q", models.CredentialEnvVar, models.CredentialPrefix))
	}
	return nil
}

// MaskCredential returns a short, log-safe form of the key
func MaskCredential(key string) string {
	if key == "" {
		return "<missing>"
	}
	runes := []rune(key)
	if len(runes) <= 5 {
		return string(runes[:1]) + "..."
	}
	return string(runes[:5]) + "..."
}

// RemediationSteps returns the instructions shown when the credential check fails
func RemediationSteps() []string {
	return []string{
		fmt.Sprintf("Create a %s file in the directory you run gptchat from", DotEnvFile),
		fmt.Sprintf("Add your API key: %s=%syour_api_key_here", models.CredentialEnvVar, models.CredentialPrefix),
		"Restart gptchat",
	}
}

// RemediationNote is shown below the remediation steps
const RemediationNote = "If you've already done this, make sure there are no spaces around '=' in your .env file, " +
	"or export " + models.CredentialEnvVar + " in your shell, and restart."
