package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf holds the client-credentials settings for a routing provider.
type Conf struct {
	ClientID     string `koanf:"client_id" json:"client_id"`
	ClientSecret string `koanf:"client_secret" json:"client_secret"`
	AuthURL      string `koanf:"auth_url" json:"auth_url"`
}

// Enabled reports whether authentication is configured.
func (c Conf) Enabled() bool { return c.AuthURL != "" }

func (c *Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
	}
}
