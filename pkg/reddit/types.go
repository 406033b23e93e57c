package reddit

// TokenResponse is the token endpoint's success payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// tokenErrorResponse is the token endpoint's failure payload.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Identity is the authenticated user's profile from /api/v1/me.
type Identity struct {
	Name         string  `json:"name"`
	TotalKarma   int     `json:"total_karma"`
	LinkKarma    int     `json:"link_karma"`
	CommentKarma int     `json:"comment_karma"`
	CreatedUTC   float64 `json:"created_utc"`
}

// Subreddit is a subreddit summary from the public search and about
// endpoints.
type Subreddit struct {
	DisplayName       string  `json:"display_name"`
	Title             string  `json:"title"`
	Subscribers       int     `json:"subscribers"`
	PublicDescription string  `json:"public_description"`
	CreatedUTC        float64 `json:"created_utc"`
	IconImg           string  `json:"icon_img,omitempty"`
	CommunityIcon     string  `json:"community_icon,omitempty"`
}

// listingEnvelope wraps reddit's Listing responses.
type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data Subreddit `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// aboutEnvelope wraps the single-subreddit about response.
type aboutEnvelope struct {
	Data Subreddit `json:"data"`
}
