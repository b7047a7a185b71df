package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const SortPushed = "pushed"

type Repository struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Fork        bool      `json:"fork"`
	PushedAt    time.Time `json:"pushed_at"`
}

type ListReposParams struct {
	Sort    string
	PerPage int
}

// ListRepos returns one page of the user's public repositories.
func (c *Client) ListRepos(ctx context.Context, login string, params ListReposParams) ([]*Repository, error) {
	q := url.Values{}
	if params.Sort != "" {
		q.Set("sort", params.Sort)
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}

	var repos []*Repository
	if err := c.getJSON(ctx, fmt.Sprintf("%s/users/%s/repos", c.APIURL, url.PathEscape(login)), q, &repos); err != nil {
		return nil, err
	}

	return repos, nil
}

// ListLanguages returns the repository languages in the order GitHub reports
// them (largest byte count first).
func (c *Client) ListLanguages(ctx context.Context, owner, repo string) ([]string, error) {
	var langs orderedKeys
	apiURL := fmt.Sprintf("%s/repos/%s/%s/languages", c.APIURL, url.PathEscape(owner), url.PathEscape(repo))
	if err := c.getJSON(ctx, apiURL, nil, &langs); err != nil {
		return nil, err
	}

	return langs, nil
}

// orderedKeys decodes a JSON object keeping only its keys, in document order.
type orderedKeys []string

func (k *orderedKeys) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}

	*k = keys
	return nil
}
