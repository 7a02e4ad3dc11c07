// Package identity models the caller profile supplied by the external
// authentication layer. The backend never validates authentication itself;
// it only snapshots whatever identity fields the collaborator provides.
package identity

import "net/http"

// Fallbacks used when profile fields are absent.
const (
	UnknownName = "Unknown"
	UnknownFlat = "N/A"
)

// Profile carries the raw identity fields for the authenticated member.
// Different registration flows populated different field names over time,
// hence the fallback chains in ResolveName and ResolveFlat.
type Profile struct {
	UID         *string `json:"uid,omitempty"`
	FullName    string  `json:"fullName,omitempty"`
	Name        string  `json:"name,omitempty"`
	DisplayName string  `json:"displayName,omitempty"`
	FlatNumber  string  `json:"flatNumber,omitempty"`
	Flat        string  `json:"flat,omitempty"`
	Email       string  `json:"email,omitempty"`
}

// ResolveName returns fullName, then name, then displayName, then "Unknown".
func (p Profile) ResolveName() string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Name != "":
		return p.Name
	case p.DisplayName != "":
		return p.DisplayName
	default:
		return UnknownName
	}
}

// ResolveFlat returns flatNumber, then flat, then "N/A".
func (p Profile) ResolveFlat() string {
	switch {
	case p.FlatNumber != "":
		return p.FlatNumber
	case p.Flat != "":
		return p.Flat
	default:
		return UnknownFlat
	}
}

// Header names the auth reverse proxy sets on forwarded requests.
const (
	HeaderUID   = "X-Society-Uid"
	HeaderName  = "X-Society-Name"
	HeaderFlat  = "X-Society-Flat"
	HeaderEmail = "X-Society-Email"
)

// FromRequest extracts the forwarded caller profile from request headers.
// Absent headers simply leave fields empty; resolution happens at use sites.
func FromRequest(r *http.Request) Profile {
	p := Profile{
		FullName:   r.Header.Get(HeaderName),
		FlatNumber: r.Header.Get(HeaderFlat),
		Email:      r.Header.Get(HeaderEmail),
	}
	if uid := r.Header.Get(HeaderUID); uid != "" {
		p.UID = &uid
	}
	return p
}
