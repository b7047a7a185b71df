package github

import (
	"context"
	"fmt"
	"net/url"
)

const TypeOrganization = "Organization"

type User struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	HTMLURL     string `json:"html_url"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	Followers   int    `json:"followers"`
	PublicRepos int    `json:"public_repos"`
}

func (u *User) IsOrganization() bool {
	return u != nil && u.Type == TypeOrganization
}

func (c *Client) GetUser(ctx context.Context, login string) (*User, error) {
	if login == "" {
		return nil, fmt.Errorf("login is required")
	}

	var user User
	if err := c.getJSON(ctx, fmt.Sprintf("%s/users/%s", c.APIURL, url.PathEscape(login)), nil, &user); err != nil {
		return nil, err
	}

	return &user, nil
}
