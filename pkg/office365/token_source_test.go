package office365

import "golang.org/x/oauth2"

// staticTokenSource always returns the same access token, standing in for a
// refreshing source in persistence tests.
type staticTokenSource struct {
	accessToken string
}

func (s staticTokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.accessToken}, nil
}
