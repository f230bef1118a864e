package models

import "time"

// StatusAvailable is the status every new user starts with.
const StatusAvailable = "Disponible"

type User struct {
	ID             int        `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	Skills         StringList `json:"skills"`
	Age            *int       `json:"age"`
	BirthDate      string     `json:"birthDate"`
	Languages      string     `json:"languages"`
	Specialization string     `json:"specialization"`
	Phone          string     `json:"phone"`
	Linkedin       string     `json:"linkedin"`
	Github         string     `json:"github"`
	Portfolio      string     `json:"portfolio"`
	Bio            string     `json:"bio"`
	Status         string     `json:"status"`
	Certifications StringList `json:"certifications"`
	Interests      StringList `json:"interests"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UserSummary is the public part of a user returned by register and login.
type UserSummary struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// ProfilePatch holds the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfilePatch struct {
	FirstName      *string     `json:"firstName"`
	LastName       *string     `json:"lastName"`
	Age            *int        `json:"age"`
	BirthDate      *string     `json:"birthDate"`
	Languages      *string     `json:"languages"`
	Specialization *string     `json:"specialization"`
	Phone          *string     `json:"phone"`
	Linkedin       *string     `json:"linkedin"`
	Github         *string     `json:"github"`
	Portfolio      *string     `json:"portfolio"`
	Bio            *string     `json:"bio"`
	Skills         *StringList `json:"skills"`
	Certifications *StringList `json:"certifications"`
	Interests      *StringList `json:"interests"`
}

// Apply copies every non-nil field of p onto u.
func (p ProfilePatch) Apply(u *User) {
	setString(&u.FirstName, p.FirstName)
	setString(&u.LastName, p.LastName)
	if p.Age != nil {
		age := *p.Age
		u.Age = &age
	}
	setString(&u.BirthDate, p.BirthDate)
	setString(&u.Languages, p.Languages)
	setString(&u.Specialization, p.Specialization)
	setString(&u.Phone, p.Phone)
	setString(&u.Linkedin, p.Linkedin)
	setString(&u.Github, p.Github)
	setString(&u.Portfolio, p.Portfolio)
	setString(&u.Bio, p.Bio)
	setList(&u.Skills, p.Skills)
	setList(&u.Certifications, p.Certifications)
	setList(&u.Interests, p.Interests)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *StringList, src *StringList) {
	if src != nil {
		*dst = src.Clone()
	}
}
