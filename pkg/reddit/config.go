package reddit

// Config holds the OAuth application credentials issued by Reddit.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	UserAgent    string
}

// Scopes requested during authorization.
const (
	authScope    = "identity read"
	authDuration = "permanent"
)

// Validate reports missing credentials as a ConfigError. The redirect URI is
// part of the registered application and is required for both the
// authorization URL and the token exchange.
func (c Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "redirect uri")
	}
	if len(missing) > 0 {
		return ConfigError{Missing: missing}
	}
	return nil
}

func (c Config) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return "web:reddit-manager:v1.0.0"
}
