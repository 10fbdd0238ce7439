// AngelaMos | 2026
// entity.go

package user

import (
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

type User struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Email       string     `db:"email"`
	Password    string     `db:"password_hash"`
	CreatedAt   time.Time  `db:"created_at"`
	ModifiedAt  *time.Time `db:"modified_at"`
	LastLoginAt *time.Time `db:"last_login_at"`
	IsActive    bool       `db:"is_active"`
	Token       *string    `db:"token"`
	Phones      []Phone    `db:"-"`
	Roles       []Role     `db:"-"`
}

// Phone is owned by exactly one User. The owner id only exists as a
// persistence column.
type Phone struct {
	Number      string `db:"number"`
	CityCode    string `db:"city_code"`
	CountryCode string `db:"country_code"`
}

// E164 formats the phone as +<country><city><number>, or returns "" when
// the digits do not form a possible number.
func (p Phone) E164() string {
	raw := "+" + digits(p.CountryCode) + digits(p.CityCode) + digits(p.Number)
	if len(raw) < 4 {
		return ""
	}

	num, err := phonenumbers.Parse(raw, "")
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return ""
	}

	return phonenumbers.Format(num, phonenumbers.E164)
}

type Role struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

func (u *User) touch(now time.Time) {
	u.ModifiedAt = &now
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
