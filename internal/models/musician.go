package models

import (
	"time"

	"github.com/google/uuid"
)

// MusicianProfile is a musician's public profile, one per user.
type MusicianProfile struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Username        string
	Email           string
	StageName       string
	ProfilePicture  string
	Bio             *string
	Phone           string
	Location        Location
	Genres          []string
	Instruments     []string
	ExperienceYears int
	HourlyRate      *float64
	Photos          []string
	Videos          []string
	AudioSamples    []string
	IsAvailable     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MusicianResponse is the wire shape of a musician profile.
type MusicianResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Username        string    `json:"username,omitempty"`
	Email           string    `json:"email,omitempty"`
	StageName       string    `json:"stageName"`
	ProfilePicture  string    `json:"profilePicture"`
	Bio             *string   `json:"bio,omitempty"`
	Phone           string    `json:"phone"`
	Location        Location  `json:"location"`
	Genres          []string  `json:"genres"`
	Instruments     []string  `json:"instruments"`
	ExperienceYears int       `json:"experienceYears"`
	HourlyRate      *float64  `json:"hourlyRate,omitempty"`
	Photos          []string  `json:"photos"`
	Videos          []string  `json:"videos"`
	AudioSamples    []string  `json:"audioSamples"`
	IsAvailable     bool      `json:"isAvailable"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ToResponse converts the profile, mapping stored file references through fileURL.
func (m *MusicianProfile) ToResponse(fileURL func(string) string) MusicianResponse {
	pic := m.ProfilePicture
	if pic != "" {
		pic = fileURL(pic)
	}
	return MusicianResponse{
		ID:              m.ID.String(),
		UserID:          m.UserID.String(),
		Username:        m.Username,
		Email:           m.Email,
		StageName:       m.StageName,
		ProfilePicture:  pic,
		Bio:             m.Bio,
		Phone:           m.Phone,
		Location:        m.Location,
		Genres:          nonNil(m.Genres),
		Instruments:     nonNil(m.Instruments),
		ExperienceYears: m.ExperienceYears,
		HourlyRate:      m.HourlyRate,
		Photos:          mapRefs(m.Photos, fileURL),
		Videos:          mapRefs(m.Videos, fileURL),
		AudioSamples:    mapRefs(m.AudioSamples, fileURL),
		IsAvailable:     m.IsAvailable,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// MediaRefs returns every stored file the profile owns, picture included.
func (m *MusicianProfile) MediaRefs() []string {
	refs := make([]string, 0, 1+len(m.Photos)+len(m.Videos)+len(m.AudioSamples))
	if m.ProfilePicture != "" {
		refs = append(refs, m.ProfilePicture)
	}
	refs = append(refs, m.Photos...)
	refs = append(refs, m.Videos...)
	return append(refs, m.AudioSamples...)
}

// MusicianFilter narrows a musician search. Zero values mean no constraint.
type MusicianFilter struct {
	City        string
	Country     string
	Genres      []string
	Instruments []string
	IsAvailable *bool
	Page        int
	Limit       int
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func mapRefs(refs []string, fileURL func(string) string) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = fileURL(r)
	}
	return out
}
