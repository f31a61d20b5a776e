package infrastructure

import (
	"strconv"

	"user-service/internal/users/domain"
)

// Link is a single hypermedia reference
type Link struct {
	Href string `json:"href" example:"/api/users/1"`
}

// Links maps a relation name to its target
type Links map[string]Link

// UserResource is a user view carrying navigation links
type UserResource struct {
	domain.UserView
	Links Links `json:"_links"`
}

// UserCollection wraps a list of linked users
type UserCollection struct {
	Embedded struct {
		Users []UserResource `json:"users"`
	} `json:"_embedded"`
	Links Links `json:"_links"`
}

// Link relations
const (
	RelSelf        = "self"
	RelAllUsers    = "all-users"
	RelUserDetails = "user-details"
	RelCreateUser  = "create-user"
	RelUpdateUser  = "update-user"
	RelDeleteUser  = "delete-user"
)

// LinkBuilder renders links relative to the collection path a request came in on
type LinkBuilder struct {
	base string
}

// NewLinkBuilder creates a builder rooted at base, e.g. "/api/users"
func NewLinkBuilder(base string) LinkBuilder {
	return LinkBuilder{base: base}
}

func (b LinkBuilder) collection() Link {
	return Link{Href: b.base}
}

func (b LinkBuilder) item(id uint) Link {
	return Link{Href: b.base + "/" + strconv.FormatUint(uint64(id), 10)}
}

// Detail links a single fetched user
func (b LinkBuilder) Detail(v domain.UserView) UserResource {
	return UserResource{UserView: v, Links: Links{
		RelSelf:       b.item(v.ID),
		RelAllUsers:   b.collection(),
		RelUpdateUser: b.item(v.ID),
		RelDeleteUser: b.item(v.ID),
	}}
}

// Created links a freshly created user
func (b LinkBuilder) Created(v domain.UserView) UserResource {
	return UserResource{UserView: v, Links: Links{
		RelSelf:     b.item(v.ID),
		RelAllUsers: b.collection(),
	}}
}

// Updated links a user after an update
func (b LinkBuilder) Updated(v domain.UserView) UserResource {
	return UserResource{UserView: v, Links: Links{
		RelSelf:       b.item(v.ID),
		RelAllUsers:   b.collection(),
		RelDeleteUser: b.item(v.ID),
	}}
}

// Collection links every user and the collection itself
func (b LinkBuilder) Collection(views []domain.UserView) UserCollection {
	var out UserCollection
	out.Embedded.Users = make([]UserResource, 0, len(views))
	for _, v := range views {
		out.Embedded.Users = append(out.Embedded.Users, UserResource{UserView: v, Links: Links{
			RelSelf:        b.item(v.ID),
			RelUserDetails: b.item(v.ID),
		}})
	}
	out.Links = Links{
		RelSelf:       b.collection(),
		RelCreateUser: b.collection(),
	}
	return out
}

// Location returns the URI of a user resource
func (b LinkBuilder) Location(id uint) string {
	return b.item(id).Href
}
