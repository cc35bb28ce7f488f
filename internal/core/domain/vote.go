package domain

import "time"

// Answer is a client's response to a single question. Ranking answers use
// Values, every other type uses Value.
type Answer struct {
	Question string   `json:"question"`
	Value    *string  `json:"value,omitempty"`
	Values   []string `json:"values,omitempty"`
}

// AnswerSet holds the answers of one client while the survey is in progress.
type AnswerSet struct {
	Survey  string            `json:"survey"`
	Domain  string            `json:"domain"`
	Client  string            `json:"client"`
	Answers map[string]Answer `json:"answers"`
}

type Vote struct {
	ID           string    `json:"id"`
	Survey       string    `json:"survey"`
	Version      string    `json:"version"`
	Domain       string    `json:"domain"`
	Client       string    `json:"client"`
	Answers      []Answer  `json:"answers"`
	CreationDate time.Time `json:"creationDate"`
}

var SortableVoteFields = map[string]string{
	"CREATION_DATE": "created_at",
}
