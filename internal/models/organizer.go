package models

import (
	"time"

	"github.com/google/uuid"
)

// OrganizerProfile is an event organizer's profile, one per user.
type OrganizerProfile struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	OwnerUsername         string
	OwnerEmail            string
	OrganizationName      string
	ProfilePicture        string
	Bio                   *string
	ContactPerson         string
	Phone                 string
	Email                 string
	Location              Location
	Website               *string
	OrganizationType      string
	EventTypes            []string
	Photos                []string
	Videos                []string
	VerificationDocuments []string
	IsVerified            bool
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OrganizerResponse is the wire shape of an organizer profile.
type OrganizerResponse struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId"`
	OwnerUsername         string    `json:"ownerUsername,omitempty"`
	OwnerEmail            string    `json:"ownerEmail,omitempty"`
	OrganizationName      string    `json:"organizationName"`
	ProfilePicture        string    `json:"profilePicture"`
	Bio                   *string   `json:"bio,omitempty"`
	ContactPerson         string    `json:"contactPerson"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email"`
	Location              Location  `json:"location"`
	Website               *string   `json:"website,omitempty"`
	OrganizationType      string    `json:"organizationType"`
	EventTypes            []string  `json:"eventTypes"`
	Photos                []string  `json:"photos"`
	Videos                []string  `json:"videos"`
	VerificationDocuments []string  `json:"verificationDocuments"`
	IsVerified            bool      `json:"isVerified"`
	IsActive              bool      `json:"isActive"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ToResponse converts the profile, mapping stored file references through fileURL.
func (o *OrganizerProfile) ToResponse(fileURL func(string) string) OrganizerResponse {
	pic := o.ProfilePicture
	if pic != "" {
		pic = fileURL(pic)
	}
	return OrganizerResponse{
		ID:                    o.ID.String(),
		UserID:                o.UserID.String(),
		OwnerUsername:         o.OwnerUsername,
		OwnerEmail:            o.OwnerEmail,
		OrganizationName:      o.OrganizationName,
		ProfilePicture:        pic,
		Bio:                   o.Bio,
		ContactPerson:         o.ContactPerson,
		Phone:                 o.Phone,
		Email:                 o.Email,
		Location:              o.Location,
		Website:               o.Website,
		OrganizationType:      o.OrganizationType,
		EventTypes:            nonNil(o.EventTypes),
		Photos:                mapRefs(o.Photos, fileURL),
		Videos:                mapRefs(o.Videos, fileURL),
		VerificationDocuments: mapRefs(o.VerificationDocuments, fileURL),
		IsVerified:            o.IsVerified,
		IsActive:              o.IsActive,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

// MediaRefs returns every stored file the profile owns, picture included.
func (o *OrganizerProfile) MediaRefs() []string {
	refs := make([]string, 0, 1+len(o.Photos)+len(o.Videos)+len(o.VerificationDocuments))
	if o.ProfilePicture != "" {
		refs = append(refs, o.ProfilePicture)
	}
	refs = append(refs, o.Photos...)
	refs = append(refs, o.Videos...)
	return append(refs, o.VerificationDocuments...)
}

// OrganizerFilter narrows an organizer search. Zero values mean no constraint.
type OrganizerFilter struct {
	City             string
	Country          string
	OrganizationType string
	EventTypes       []string
	IsVerified       *bool
	IsActive         *bool
	Page             int
	Limit            int
}
