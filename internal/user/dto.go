// AngelaMos | 2026
// dto.go

package user

import (
	"fmt"
	"time"
)

const timeLayout = time.RFC3339Nano

type PhoneDTO struct {
	Number      string `json:"number"       validate:"max=32"`
	CityCode    string `json:"city_code"    validate:"max=8"`
	CountryCode string `json:"country_code" validate:"max=8"`
	E164        string `json:"e164,omitempty"`
}

type CreateUserRequest struct {
	Name     string     `json:"name"     validate:"max=100"`
	Email    string     `json:"email"    validate:"max=255"`
	Password string     `json:"password" validate:"max=128"`
	Phones   []PhoneDTO `json:"phones"   validate:"max=20,dive"`
}

// UpdateUserRequest replaces name and phones wholesale. A nil Email or
// Password leaves the stored value untouched.
type UpdateUserRequest struct {
	ID       string     `json:"id,omitempty"`
	Name     string     `json:"name"               validate:"max=100"`
	Email    *string    `json:"email,omitempty"    validate:"omitempty,max=255"`
	Password *string    `json:"password,omitempty" validate:"omitempty,max=128"`
	Phones   []PhoneDTO `json:"phones"             validate:"max=20,dive"`
}

// UserResponse is the public projection of a User. It never carries the
// password.
type UserResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Created   string     `json:"created"`
	Modified  string     `json:"modified"`
	LastLogin string     `json:"last_login"`
	IsActive  bool       `json:"is_active"`
	Token     string     `json:"token"`
	Phones    []PhoneDTO `json:"phones"`
}

type SavedUserResponse struct {
	ID        string `json:"id"`
	Created   string `json:"created"`
	Modified  string `json:"modified"`
	LastLogin string `json:"last_login"`
	Token     string `json:"token"`
	IsActive  bool   `json:"is_active"`
}

type Principal struct {
	UserID   string
	Email    string
	Roles    []string
	IsActive bool
}

func (r CreateUserRequest) ToUser() *User {
	return &User{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Phones:   toPhones(r.Phones),
	}
}

func ToUserResponse(u *User) UserResponse {
	created := formatTime(&u.CreatedAt)

	lastLogin := formatTime(u.LastLoginAt)
	if lastLogin == "" {
		lastLogin = created
	}

	token := ""
	if u.Token != nil {
		token = *u.Token
	}

	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Created:   created,
		Modified:  formatTime(u.ModifiedAt),
		LastLogin: lastLogin,
		IsActive:  u.IsActive,
		Token:     token,
		Phones:    toPhoneDTOs(u.Phones),
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

func ToSavedUserResponse(u *User) SavedUserResponse {
	view := ToUserResponse(u)
	return SavedUserResponse{
		ID:        view.ID,
		Created:   view.Created,
		Modified:  view.Modified,
		LastLogin: view.LastLogin,
		Token:     view.Token,
		IsActive:  view.IsActive,
	}
}

// FromUserResponse rebuilds the User fields carried by a projection. The
// password is never part of a projection and stays empty.
//
// A projection shows the creation time as last login when the user never
// logged in, so a last login equal to the creation time reads back as nil.
// A login recorded at the exact creation instant is lost the same way.
func FromUserResponse(r UserResponse) (*User, error) {
	u := &User{
		ID:       r.ID,
		Name:     r.Name,
		Email:    r.Email,
		IsActive: r.IsActive,
		Phones:   toPhones(r.Phones),
	}

	created, err := parseTime(r.Created)
	if err != nil {
		return nil, fmt.Errorf("parse created: %w", err)
	}
	if created != nil {
		u.CreatedAt = *created
	}

	if u.ModifiedAt, err = parseTime(r.Modified); err != nil {
		return nil, fmt.Errorf("parse modified: %w", err)
	}

	if r.LastLogin != r.Created {
		if u.LastLoginAt, err = parseTime(r.LastLogin); err != nil {
			return nil, fmt.Errorf("parse last login: %w", err)
		}
	}

	if r.Token != "" {
		token := r.Token
		u.Token = &token
	}

	return u, nil
}

func toPhones(dtos []PhoneDTO) []Phone {
	phones := make([]Phone, 0, len(dtos))
	for _, p := range dtos {
		phones = append(phones, Phone{
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
		})
	}
	return phones
}

func toPhoneDTOs(phones []Phone) []PhoneDTO {
	dtos := make([]PhoneDTO, 0, len(phones))
	for _, p := range phones {
		dtos = append(dtos, PhoneDTO{
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
			E164:        p.E164(),
		})
	}
	return dtos
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent timestamp
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
