package review

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ExcludedUsers is the content of an exclude file:
//
//	{"items": [{"login": "octocat", "reason": "already contacted"}]}
type ExcludedUsers struct {
	Items []*ExcludedUser `json:"items"`
}

type ExcludedUser struct {
	Login  string `json:"login"`
	Reason string `json:"reason,omitempty"`
}

func (e *ExcludedUsers) Logins() []string {
	logins := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		if item == nil {
			continue
		}
		if login := strings.TrimSpace(item.Login); login != "" {
			logins = append(logins, login)
		}
	}
	return logins
}

// LoadExcludeFile reads an exclude file. An empty file excludes nobody.
func LoadExcludeFile(path string) (*ExcludedUsers, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedUsers{}, nil
	}

	var excluded ExcludedUsers
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decoding exclude file %q: %w", path, err)
	}
	return &excluded, nil
}
