// Package profileview builds the JSON view models rendered for browse cards,
// unlocked detail views and public shared profiles. This is the only place
// that interprets ExtraData keys; the access-control core never does.
package profileview

import (
	"strings"
	"time"

	"github.com/vedicvivaha/backend/internal/db"
)

// Basic is the redacted candidate card shown in listings and locked details.
type Basic struct {
	ProfileID                 string `json:"profile_id"`
	Name                      string `json:"name"`
	Gender                    string `json:"gender,omitempty"`
	Age                       *int   `json:"age"`
	Height                    string `json:"height"`
	StarPadham                string `json:"star_padham"`
	Rasi                      string `json:"rasi,omitempty"`
	Nakshatra                 string `json:"nakshatra,omitempty"`
	Sect                      string `json:"sect,omitempty"`
	Subsect                   string `json:"subsect,omitempty"`
	HoroscopeMatchingRequired string `json:"horoscope_matching_required,omitempty"`
	City                      string `json:"city,omitempty"`
	Education                 string `json:"education,omitempty"`
	Occupation                string `json:"occupation,omitempty"`
	ImageURL                  string `json:"image_url,omitempty"`
	HasPhoto                  bool   `json:"has_photo"`
	Unlocked                  bool   `json:"unlocked"`
}

// FullDetails is rendered only after an unlock.
type FullDetails struct {
	About          string     `json:"about,omitempty"`
	FamilyDetails  string     `json:"family_details,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Email          string     `json:"email,omitempty"`
	DOB            string     `json:"dob,omitempty"`
	City           string     `json:"city,omitempty"`
	Address        string     `json:"address,omitempty"`
	Education      string     `json:"education,omitempty"`
	Occupation     string     `json:"occupation,omitempty"`
	Gothram        string     `json:"gothram,omitempty"`
	AdditionalData db.JSONMap `json:"additional_data"`
}

// Contact is the contact block on a shared profile, present only when the
// share link was created with include_contact_details.
type Contact struct {
	Phone                  string `json:"phone,omitempty"`
	WhatsappNumber         string `json:"whatsapp_number,omitempty"`
	AlternateContactNumber string `json:"alternate_contact_number,omitempty"`
	Email                  string `json:"email,omitempty"`
	PrimaryContactName     string `json:"primary_contact_name,omitempty"`
	PrimaryContactRelation string `json:"primary_contact_relation,omitempty"`
}

// Shared is the public view behind a share link.
type Shared struct {
	Name          string   `json:"name"`
	Gender        string   `json:"gender,omitempty"`
	DOB           string   `json:"dob,omitempty"`
	Age           *int     `json:"age"`
	Location      string   `json:"location,omitempty"`
	Education     string   `json:"education,omitempty"`
	Occupation    string   `json:"occupation,omitempty"`
	Gothram       string   `json:"gothram,omitempty"`
	Nakshatra     string   `json:"nakshatra,omitempty"`
	Sect          string   `json:"sect,omitempty"`
	Subsect       string   `json:"subsect,omitempty"`
	About         string   `json:"about,omitempty"`
	FamilyDetails string   `json:"family_details,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Contact       *Contact `json:"contact,omitempty"`
}

// Age computes full years from a loosely formatted YYYY-MM-DD date of birth.
// Unparseable input yields nil rather than an error.
func Age(dob string) *int {
	parts := strings.SplitN(strings.TrimSpace(dob), "-", 3)
	if len(parts) != 3 {
		return nil
	}
	born, err := time.Parse("2006-1-2", strings.Join(parts, "-"))
	if err != nil {
		return nil
	}
	now := time.Now()
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	if years < 0 {
		return nil
	}
	return &years
}

// ImageURL digs a usable image reference out of ExtraData: a plain imageUrl
// string, a profilePhoto string, or a profilePhoto object with one of the
// known url-ish keys.
func ImageURL(extra db.JSONMap) string {
	if v := strings.TrimSpace(extra.String("imageUrl")); v != "" {
		return v
	}
	switch photo := extra["profilePhoto"].(type) {
	case string:
		return strings.TrimSpace(photo)
	case map[string]any:
		for _, key := range []string{"url", "dataUrl", "preview", "path"} {
			if v, ok := photo[key].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// starPadham composes the display value from starPadham, or from
// nakshatra + padham, falling back to "-".
func starPadham(extra db.JSONMap) string {
	if v := strings.TrimSpace(extra.String("starPadham")); v != "" {
		return v
	}
	nakshatra := strings.TrimSpace(extra.String("nakshatra"))
	padham := strings.TrimSpace(extra.String("padham"))
	switch {
	case nakshatra != "" && padham != "":
		return nakshatra + " - " + padham
	case nakshatra != "":
		return nakshatra
	default:
		return "-"
	}
}

func hasPhoto(extra db.JSONMap) bool {
	if v, ok := extra["hasPhoto"].(bool); ok && v {
		return true
	}
	return extra["profilePhoto"] != nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// NewBasic builds the candidate card for a member.
func NewBasic(m *db.Member, unlocked bool) Basic {
	extra := m.ExtraData
	if extra == nil {
		extra = db.JSONMap{}
	}

	height := strings.TrimSpace(extra.String("height"))
	if height == "" {
		height = "-"
	}

	return Basic{
		ProfileID:                 m.MemberID,
		Name:                      m.Name,
		Gender:                    m.Gender,
		Age:                       Age(m.DOB),
		Height:                    height,
		StarPadham:                starPadham(extra),
		Rasi:                      extra.String("rasi"),
		Nakshatra:                 strings.TrimSpace(extra.String("nakshatra")),
		Sect:                      extra.String("sect"),
		Subsect:                   extra.String("subsect"),
		HoroscopeMatchingRequired: extra.String("horoscopeMatchingRequired"),
		City:                      firstNonEmpty(m.City, extra.String("currentLocation")),
		Education:                 m.Education,
		Occupation:                m.Occupation,
		ImageURL:                  ImageURL(extra),
		HasPhoto:                  hasPhoto(extra),
		Unlocked:                  unlocked,
	}
}

// NewFullDetails builds the unlocked view of a member.
func NewFullDetails(m *db.Member) *FullDetails {
	extra := m.ExtraData
	if extra == nil {
		extra = db.JSONMap{}
	}
	return &FullDetails{
		About:          firstNonEmpty(m.Message, extra.String("aboutMe")),
		FamilyDetails:  firstNonEmpty(m.Address, extra.String("familyPropertyDetails")),
		Phone:          m.Phone,
		Email:          m.Email,
		DOB:            m.DOB,
		City:           firstNonEmpty(m.City, extra.String("currentLocation")),
		Address:        m.Address,
		Education:      firstNonEmpty(m.Education, extra.String("highestQualification")),
		Occupation:     m.Occupation,
		Gothram:        m.Gothram,
		AdditionalData: extra,
	}
}

// NewShared builds the public shared view. The contact block is gated by the
// flag captured at link-creation time, never by the requester.
func NewShared(m *db.Member, includeContactDetails bool) Shared {
	extra := m.ExtraData
	if extra == nil {
		extra = db.JSONMap{}
	}

	var contact *Contact
	if includeContactDetails {
		contact = &Contact{
			Phone:                  m.Phone,
			WhatsappNumber:         extra.String("whatsappNumber"),
			AlternateContactNumber: extra.String("alternateContactNumber"),
			Email:                  m.Email,
			PrimaryContactName:     extra.String("primaryContactName"),
			PrimaryContactRelation: extra.String("primaryContactRelation"),
		}
	}

	return Shared{
		Name:          m.Name,
		Gender:        m.Gender,
		DOB:           m.DOB,
		Age:           Age(m.DOB),
		Location:      firstNonEmpty(m.City, extra.String("currentLocation")),
		Education:     firstNonEmpty(m.Education, extra.String("highestQualification")),
		Occupation:    m.Occupation,
		Gothram:       m.Gothram,
		Nakshatra:     extra.String("nakshatra"),
		Sect:          extra.String("sect"),
		Subsect:       extra.String("subsect"),
		About:         firstNonEmpty(m.Message, extra.String("aboutMe")),
		FamilyDetails: extra.String("familyPropertyDetails"),
		ImageURL:      ImageURL(extra),
		Contact:       contact,
	}
}
