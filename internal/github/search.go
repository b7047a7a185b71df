package github

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchUsersPath = "/search/users"

	SortRepositories = "repositories"
	OrderDesc        = "desc"
)

// SearchParams are the query parameters of the user search endpoint.
type SearchParams struct {
	// ghparam is custom tag for reflect. Please see buildParams.
	Query   string `ghparam:"q"`
	Sort    string `ghparam:"sort"`
	Order   string `ghparam:"order"`
	PerPage int    `ghparam:"per_page"`
	Page    int    `ghparam:"page"`
}

// UserQuery composes the search qualifiers for one relaxation level.
type UserQuery struct {
	Language     string
	MinFollowers int
	MinRepos     int
}

// String renders the qualifiers, e.g. "language:python followers:>50 repos:>10".
func (q UserQuery) String() string {
	return fmt.Sprintf("language:%s followers:>%d repos:>%d",
		strings.ToLower(strings.TrimSpace(q.Language)), q.MinFollowers, q.MinRepos)
}

// UserSummary is one user search hit.
type UserSummary struct {
	Login   string `json:"login"`
	Type    string `json:"type"`
	HTMLURL string `json:"html_url"`
}

type Users struct {
	Total int
	Items []*UserSummary
}

type searchResponse struct {
	TotalCount int    `json:"total_count"`
	Items      []Item `json:"items"`
}

type Item map[string]interface{}

func (c *Client) SearchUsers(ctx context.Context, params *SearchParams) (*Users, error) {
	var response searchResponse
	if err := c.getJSON(ctx, c.APIURL+SearchUsersPath, buildParams(params), &response); err != nil {
		return nil, err
	}

	var users []*UserSummary
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &users,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(response.Items); err != nil {
		return nil, fmt.Errorf("decode search items: %w", err)
	}

	return &Users{Total: response.TotalCount, Items: users}, nil
}

func (u *Users) Len() int {
	if u == nil {
		return 0
	}
	return len(u.Items)
}

func (u *Users) Logins() []string {
	logins := make([]string, 0, u.Len())
	for _, user := range u.Items {
		logins = append(logins, user.Login)
	}
	return logins
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	if params == nil {
		return q
	}

	v := reflect.ValueOf(params).Elem()
	for _, field := range reflect.VisibleFields(v.Type()) {
		key := field.Tag.Get("ghparam")
		if key == "" {
			continue
		}

		value := v.FieldByIndex(field.Index)
		switch value.Kind() {
		case reflect.Int:
			if n := value.Int(); n != 0 {
				q.Set(key, strconv.FormatInt(n, 10))
			}
		case reflect.String:
			if s := value.String(); s != "" {
				q.Set(key, s)
			}
		}
	}

	return q
}
