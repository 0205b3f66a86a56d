package scoring

import (
	"encoding/json"
	"fmt"
	"os"
)

type authorsFile struct {
	Authors []string `json:"authors"`
}

type sourcesFile struct {
	Sources []struct {
		Domain    string `json:"domain"`
		VenueType string `json:"venue_type"`
	} `json:"sources"`
}

// LoadCredibilityConfig reads the trusted-author and trusted-domain datasets
// from JSON files and builds the immutable config. Either path may be empty,
// in which case that dataset is empty and contributes no bonuses.
func LoadCredibilityConfig(authorsPath, sourcesPath string) (*CredibilityConfig, error) {
	var authors []string
	if authorsPath != "" {
		data, err := os.ReadFile(authorsPath)
		if err != nil {
			return nil, fmt.Errorf("read authors dataset: %w", err)
		}
		var f authorsFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse authors dataset %s: %w", authorsPath, err)
		}
		authors = f.Authors
	}

	sources := make(map[string]string)
	if sourcesPath != "" {
		data, err := os.ReadFile(sourcesPath)
		if err != nil {
			return nil, fmt.Errorf("read sources dataset: %w", err)
		}
		var f sourcesFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse sources dataset %s: %w", sourcesPath, err)
		}
		for _, s := range f.Sources {
			sources[s.Domain] = s.VenueType
		}
	}

	return NewCredibilityConfig(authors, sources), nil
}
