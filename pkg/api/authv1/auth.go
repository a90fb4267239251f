// Package authv1 defines the shopcredit.auth.v1 wire messages and service glue.
package authv1

type Party struct {
	Id          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	CreditLimit string `json:"creditLimit,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	// Role is "wholesaler" or "shop_owner".
	Role string `json:"role"`
}

type RegisterResponse struct {
	Party     *Party `json:"party"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Party     *Party `json:"party"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type SetCreditLimitRequest struct {
	PartyId string `json:"partyId"`
	// CreditLimit is a decimal string; "0" clears the limit.
	CreditLimit string `json:"creditLimit"`
}

type SetCreditLimitResponse struct {
	Party *Party `json:"party"`
}
