package domain

import "time"

type User struct {
	Id         UserId
	ExternalId string // auth-provider identifier, resolved by the auth middleware
	Username   string
	Avatar     string
	InvitedBy  *UserId
	CreatedOn  time.Time
}

type Invite struct {
	Nonce        string
	InviterId    UserId
	InviteeEmail string
	Used         bool
	Expired      bool
}

// BobadexIdentity is one entry of a user's secret-identity catalogue.
// Index is stable: assigned by identity creation order.
type BobadexIdentity struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Caught bool   `json:"caught"`
}
