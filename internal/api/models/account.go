package models

// Account is the public view of a registered account.
type Account struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// RegistrationRequest is the request body for POST /registration.
type RegistrationRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AccountUpdateRequest is the request body for PUT /accounts/{accountId}.
type AccountUpdateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// LoginRequest is the request body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse identifies the signed-in account and carries its access token.
type LoginResponse struct {
	ID          int64  `json:"id"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// AccountSearch holds the optional substring filters for account search.
type AccountSearch struct {
	FirstName *string
	LastName  *string
	Email     *string
}
