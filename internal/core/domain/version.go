package domain

import "time"

type SummaryData struct {
	Label string  `bson:"label" json:"label"`
	Value float64 `bson:"value" json:"value"`
}

// Summary aggregates the answers given to one question within a version.
type Summary struct {
	Question      string        `bson:"question" json:"question"`
	Type          QuestionType  `bson:"type" json:"type"`
	NumberOfVotes int64         `bson:"numberOfVotes" json:"numberOfVotes"`
	Data          []SummaryData `bson:"data" json:"data"`
}

// Version is a snapshot of a survey's questions. The open version has no
// end date and no question snapshot.
type Version struct {
	ID            string     `bson:"_id" json:"id"`
	Survey        string     `bson:"survey" json:"survey"`
	VersionNumber int        `bson:"versionNumber" json:"versionNumber"`
	From          time.Time  `bson:"from" json:"from"`
	To            *time.Time `bson:"to,omitempty" json:"to"`
	Questions     []Question `bson:"questions,omitempty" json:"questions,omitempty"`
	Summaries     []Summary  `bson:"summaries,omitempty" json:"summaries,omitempty"`
	CreationDate  time.Time  `bson:"creationDate" json:"creationDate"`
	LastUpdate    time.Time  `bson:"lastUpdate" json:"lastUpdate"`
}

func (v Version) IsOpen() bool {
	return v.To == nil
}

// EffectiveTo returns the end of the version, defaulting to now while open.
func (v Version) EffectiveTo(now time.Time) time.Time {
	if v.To == nil {
		return now
	}
	return *v.To
}

type Results struct {
	Survey        string    `json:"survey"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	NumberOfVotes int64     `json:"numberOfVotes"`
	Versions      []Version `json:"versions"`
}

// Tally counts how often a value was given for a question.
type Tally struct {
	Question string
	Value    string
	Count    int64
}
