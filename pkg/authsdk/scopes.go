package authsdk

// Scopes understood by the identity provider and the gallery API.
const (
	ScopeOpenID  = "openid"
	ScopeProfile = "profile"
	ScopeRoles   = "roles"

	ScopeGalleryRead  = "imagegallery.read"
	ScopeGalleryWrite = "imagegallery.write"
)

// IdentityScopes may be granted to any user regardless of role.
var IdentityScopes = []string{ScopeOpenID, ScopeProfile, ScopeRoles}

// MFAMethodTOTP is the only second factor offered.
const MFAMethodTOTP = "totp"
