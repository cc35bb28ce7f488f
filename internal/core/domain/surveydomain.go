package domain

import (
	"slices"
	"time"
)

// State is a free-form key/value pair attached to a domain.
type State struct {
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
}

// Domain is the place where a survey is published and answered.
type Domain struct {
	ID             string    `bson:"_id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Owners         []string  `bson:"owners" json:"owners,omitempty"`
	ActiveSurvey   *string   `bson:"activeSurvey,omitempty" json:"activeSurvey"`
	ActiveQuestion *string   `bson:"activeQuestion,omitempty" json:"activeQuestion"`
	IsPublic       bool      `bson:"isPublic" json:"isPublic"`
	States         []State   `bson:"states" json:"states"`
	CreationDate   time.Time `bson:"creationDate" json:"creationDate"`
	LastUpdate     time.Time `bson:"lastUpdate" json:"lastUpdate"`
}

func (d Domain) OwnerIDs() []string {
	return d.Owners
}

func (d Domain) State(key string) (State, bool) {
	i := slices.IndexFunc(d.States, func(s State) bool { return s.Key == key })
	if i < 0 {
		return State{}, false
	}
	return d.States[i], true
}

type DomainPatch struct {
	Name           Optional[string] `json:"name"`
	ActiveSurvey   Optional[string] `json:"activeSurvey"`
	ActiveQuestion Optional[string] `json:"activeQuestion"`
	IsPublic       Optional[bool]   `json:"isPublic"`
}

// Keys lists the JSON names of the fields present in the patch.
func (p DomainPatch) Keys() []string {
	var keys []string
	if p.Name.Set {
		keys = append(keys, "name")
	}
	if p.ActiveSurvey.Set {
		keys = append(keys, "activeSurvey")
	}
	if p.ActiveQuestion.Set {
		keys = append(keys, "activeQuestion")
	}
	if p.IsPublic.Set {
		keys = append(keys, "isPublic")
	}
	return keys
}

// OnlyActiveQuestion reports whether activeQuestion is the single key touched.
func (p DomainPatch) OnlyActiveQuestion() bool {
	keys := p.Keys()
	return len(keys) == 1 && keys[0] == "activeQuestion"
}

var SortableDomainFields = map[string]string{
	"CREATION_DATE":   "creationDate",
	"LAST_UPDATE":     "lastUpdate",
	"NAME":            "name",
	"ACTIVE_SURVEY":   "activeSurvey",
	"ACTIVE_QUESTION": "activeQuestion",
	"IS_PUBLIC":       "isPublic",
	"OWNERS":          "owners",
}
