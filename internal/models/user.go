package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// User is the canonical user record.
//
// Optional fields are nil when the backend did not provide them.
type User struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	DisplayName       *string `json:"full_name,omitempty"`
	Age               *int    `json:"age,omitempty"`
	Gender            *string `json:"gender,omitempty"`
	Location          *string `json:"location,omitempty"`
	MaritalStatus     *string `json:"marital_status,omitempty"`
	FavoriteCountries *string `json:"favorite_countries,omitempty"`
	AvatarURL         *string `json:"avatar_url,omitempty"`
}

// wireUser lists every field name the backend (and older cached records) use for a user.
type wireUser struct {
	ID       json.RawMessage `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`

	FullName    *string `json:"full_name"`
	FullNameAlt *string `json:"fullName"`
	DisplayName *string `json:"display_name"`
	Name        *string `json:"name"`

	Age    json.RawMessage `json:"age"`
	Gender *string         `json:"gender"`

	Location *string `json:"location"`

	MaritalStatus    *string `json:"marital_status"`
	MaritalStatusAlt *string `json:"maritalStatus"`

	FavoriteCountries    json.RawMessage `json:"favorite_countries"`
	FavoriteCountriesAlt json.RawMessage `json:"favoriteCountries"`

	AvatarURL      *string `json:"avatar_url"`
	Avatar         *string `json:"avatar"`
	ProfilePicture *string `json:"profile_picture"`
}

// UnmarshalJSON resolves field-name aliases into the canonical schema.
func (u *User) UnmarshalJSON(data []byte) error {
	var w wireUser
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}

	age, err := decodeAge(w.Age)
	if err != nil {
		return fmt.Errorf("user age: %w", err)
	}

	countries, err := decodeCountries(w.FavoriteCountries)
	if err != nil {
		return fmt.Errorf("user favorite_countries: %w", err)
	}
	if countries == nil {
		if countries, err = decodeCountries(w.FavoriteCountriesAlt); err != nil {
			return fmt.Errorf("user favoriteCountries: %w", err)
		}
	}

	*u = User{
		ID:                id,
		Username:          w.Username,
		Email:             w.Email,
		DisplayName:       firstPresent(w.FullName, w.FullNameAlt, w.DisplayName, w.Name),
		Age:               age,
		Gender:            firstPresent(w.Gender),
		Location:          firstPresent(w.Location),
		MaritalStatus:     firstPresent(w.MaritalStatus, w.MaritalStatusAlt),
		FavoriteCountries: countries,
		AvatarURL:         firstPresent(w.AvatarURL, w.Avatar, w.ProfilePicture),
	}
	return nil
}

// firstPresent returns the first non-empty value, or nil.
func firstPresent(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			s := *v
			return &s
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func decodeID(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeAge(raw json.RawMessage) (*int, error) {
	if isNull(raw) {
		return nil, nil
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// decodeCountries accepts a comma separated string or a list of strings.
func decodeCountries(raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return firstPresent(&s), nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	joined := strings.Join(list, ", ")
	return firstPresent(&joined), nil
}

// Demographics holds the optional demographic profile fields.
type Demographics struct {
	Age               *int    `json:"age,omitempty"`
	Gender            *string `json:"gender,omitempty"`
	Location          *string `json:"location,omitempty"`
	MaritalStatus     *string `json:"marital_status,omitempty"`
	FavoriteCountries *string `json:"favorite_countries,omitempty"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username          string `json:"username"`
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	Age               *int   `json:"age,omitempty"`
	Gender            string `json:"gender,omitempty"`
	Location          string `json:"location,omitempty"`
	MaritalStatus     string `json:"marital_status,omitempty"`
	FavoriteCountries string `json:"favorite_countries,omitempty"`
}

// Validate checks the fields the backend requires.
func (r RegisterRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Username) == "":
		return fmt.Errorf("username is required")
	case strings.TrimSpace(r.Email) == "":
		return fmt.Errorf("email is required")
	case r.Password == "":
		return fmt.Errorf("password is required")
	case strings.TrimSpace(r.FullName) == "":
		return fmt.Errorf("full name is required")
	}
	return nil
}

// ProfileUpdate holds the profile form fields; empty values are not sent.
type ProfileUpdate struct {
	Username          string
	FullName          string
	Email             string
	Age               string
	Gender            string
	Location          string
	MaritalStatus     string
	FavoriteCountries string
	Password          string
	AvatarURL         string
}

// Fields returns the non-empty form fields keyed by their backend names.
func (p ProfileUpdate) Fields() map[string]string {
	all := map[string]string{
		"username":           p.Username,
		"full_name":          p.FullName,
		"email":              p.Email,
		"age":                p.Age,
		"gender":             p.Gender,
		"location":           p.Location,
		"marital_status":     p.MaritalStatus,
		"favorite_countries": p.FavoriteCountries,
		"password":           p.Password,
		"avatar_url":         p.AvatarURL,
	}

	fields := make(map[string]string, len(all))
	for k, v := range all {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}
	return fields
}
