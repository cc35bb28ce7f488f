package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreationDate time.Time `json:"creationDate"`
	LastUpdate   time.Time `json:"lastUpdate"`
}

func (u User) OwnerIDs() []string {
	return []string{u.ID}
}

type UserPatch struct {
	Name     Optional[string] `json:"name"`
	Email    Optional[string] `json:"email"`
	Password Optional[string] `json:"password"`
	IsAdmin  Optional[bool]   `json:"isAdmin"`
}

var SortableUserFields = map[string]string{
	"CREATION_DATE": "created_at",
	"LAST_UPDATE":   "updated_at",
	"NAME":          "name",
	"EMAIL":         "email",
}
