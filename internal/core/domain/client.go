package domain

import "time"

type Lifetime string

const (
	LifetimePermanent Lifetime = "PERMANENT"
	LifetimeTemporary Lifetime = "TEMPORARY"
)

// Client is a device answering surveys. Permanent clients are owned by
// users and log in with an access code, temporary clients are single
// survey-taking sessions bound to one domain.
type Client struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Lifetime     Lifetime  `bson:"lifetime" json:"lifetime"`
	Owners       []string  `bson:"owners,omitempty" json:"owners,omitempty"`
	Domain       *string   `bson:"domain,omitempty" json:"domain"`
	Code         *string   `bson:"code,omitempty" json:"code,omitempty"`
	CreationDate time.Time `bson:"creationDate" json:"creationDate"`
	LastUpdate   time.Time `bson:"lastUpdate" json:"lastUpdate"`
}

func (c Client) OwnerIDs() []string {
	return c.Owners
}

func (c Client) IsTemporary() bool {
	return c.Lifetime == LifetimeTemporary
}

type ClientPatch struct {
	Name   Optional[string] `json:"name"`
	Domain Optional[string] `json:"domain"`
}

func (p ClientPatch) Keys() []string {
	var keys []string
	if p.Name.Set {
		keys = append(keys, "name")
	}
	if p.Domain.Set {
		keys = append(keys, "domain")
	}
	return keys
}

// IsOnlyDomainRemoval reports whether the patch is exactly {domain: null}.
func (p ClientPatch) IsOnlyDomainRemoval() bool {
	keys := p.Keys()
	return len(keys) == 1 && keys[0] == "domain" && p.Domain.IsNull()
}

var SortableClientFields = map[string]string{
	"CREATION_DATE": "creationDate",
	"LAST_UPDATE":   "lastUpdate",
	"NAME":          "name",
	"DOMAIN":        "domain",
	"OWNERS":        "owners",
}
