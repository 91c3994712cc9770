package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadAccessToken reads {"access_token": "..."} from path.
func LoadAccessToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", Wrap(ErrConfiguration, "", "read token file", path, err)
	}
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &token); err != nil {
		return "", Wrap(ErrConfiguration, "", "decode token file", path, err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return "", fmt.Errorf("%w: token file %s has no access_token", ErrConfiguration, path)
	}
	return strings.TrimSpace(token.AccessToken), nil
}
