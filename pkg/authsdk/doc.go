// Package authsdk holds the wire types shared by the identity provider and
// its clients, plus a small client used by resource APIs to fetch signing
// keys and by tests to obtain tokens.
//
//	c := authsdk.NewClient("https://idp.example.com")
//	jwks, err := c.FetchJWKS(ctx)
//	tok, err := c.PasswordGrant(ctx, "imagegalleryclient", "ada@example.com", "pw", []string{"openid", "imagegallery.read"})
package authsdk
