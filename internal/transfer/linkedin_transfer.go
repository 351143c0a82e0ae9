package transfer

// LinkedinUserInfo is the OpenID Connect userinfo response.
type LinkedinUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type LinkedinErrorResponse struct {
	Message       string `json:"message"`
	ServiceError  int    `json:"serviceErrorCode"`
	Status        int    `json:"status"`
	ErrorCode     string `json:"errorCode,omitempty"`
	ErrorDetail   string `json:"error,omitempty"`
	ErrorDescribe string `json:"error_description,omitempty"`
}

type LinkedinPostResponse struct {
	ID string `json:"id"`
}

// UGC post payload, per the ugcPosts API.

type UGCShareCommentary struct {
	Text string `json:"text"`
}

type UGCMedia struct {
	Status      string              `json:"status"`
	Description *UGCShareCommentary `json:"description,omitempty"`
	Media       string              `json:"media,omitempty"`
	OriginalURL string              `json:"originalUrl,omitempty"`
	Title       *UGCShareCommentary `json:"title,omitempty"`
}

type UGCShareContent struct {
	ShareCommentary    UGCShareCommentary `json:"shareCommentary"`
	ShareMediaCategory string             `json:"shareMediaCategory"`
	Media              []UGCMedia         `json:"media,omitempty"`
}

type UGCSpecificContent struct {
	ShareContent UGCShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type UGCVisibility struct {
	MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

type UGCPost struct {
	Author          string             `json:"author"`
	LifecycleState  string             `json:"lifecycleState"`
	SpecificContent UGCSpecificContent `json:"specificContent"`
	Visibility      UGCVisibility      `json:"visibility"`
}
