package domain

// LoginRequest is the credential pair submitted to login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest carries the old and new credential values.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UserData is the serialized principal returned on login.
// Password carries the stored credential hash and is only populated for
// superuser callers; for everyone else it is stripped.
type UserData struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
	Password    string `json:"password,omitempty"`
}

// LoginResult bundles the successful login response: the opaque session
// key, a freshly minted internal token, the serialized principal, and
// the (possibly placeholder) HR enrichment object.
type LoginResult struct {
	SessionID     string   `json:"sessionid"`
	InternalToken string   `json:"internal_token"`
	UserData      UserData `json:"user_data"`
	EmployeeData  any      `json:"employee_data"`
}

// VerifyResult is the successful verify-session response.
type VerifyResult struct {
	Valid         bool   `json:"valid"`
	UserID        int    `json:"user_id"`
	InternalToken string `json:"internal_token"`
}
