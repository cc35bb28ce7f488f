package domain

// Kind names a persisted entity. It prefixes lifecycle event topics.
type Kind string

const (
	KindDomain   Kind = "Domain"
	KindClient   Kind = "Client"
	KindSurvey   Kind = "Survey"
	KindQuestion Kind = "Question"
	KindItem     Kind = "Item"
	KindLabel    Kind = "Label"
	KindChoice   Kind = "Choice"
	KindImage    Kind = "Image"
	KindVersion  Kind = "Version"
	KindUser     Kind = "User"
	KindVote     Kind = "Vote"
	KindState    Kind = "State"
)
