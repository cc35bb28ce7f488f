package domain

import "time"

type Item struct {
	ID    string  `bson:"_id" json:"id"`
	Label string  `bson:"label" json:"label"`
	Image *string `bson:"image,omitempty" json:"image"`
}

type Label struct {
	ID    string  `bson:"_id" json:"id"`
	Value float64 `bson:"value" json:"value"`
	Label string  `bson:"label" json:"label"`
	Image *string `bson:"image,omitempty" json:"image"`
}

type Choice struct {
	ID    string  `bson:"_id" json:"id"`
	Code  string  `bson:"code" json:"code"`
	Label string  `bson:"label" json:"label"`
	Image *string `bson:"image,omitempty" json:"image"`
}

type Question struct {
	ID           string       `bson:"_id" json:"id"`
	Survey       string       `bson:"survey" json:"survey"`
	Value        string       `bson:"value" json:"value"`
	Description  string       `bson:"description" json:"description"`
	Type         QuestionType `bson:"type" json:"type"`
	Items        []Item       `bson:"items" json:"items"`
	Labels       []Label      `bson:"labels" json:"labels"`
	Choices      []Choice     `bson:"choices" json:"choices"`
	LikeIcon     *string      `bson:"likeIcon,omitempty" json:"likeIcon"`
	DislikeIcon  *string      `bson:"dislikeIcon,omitempty" json:"dislikeIcon"`
	Min          *float64     `bson:"min,omitempty" json:"min,omitempty"`
	Max          *float64     `bson:"max,omitempty" json:"max,omitempty"`
	StepSize     *float64     `bson:"stepSize,omitempty" json:"stepSize,omitempty"`
	Default      *float64     `bson:"default,omitempty" json:"default,omitempty"`
	CreationDate time.Time    `bson:"creationDate" json:"creationDate"`
	LastUpdate   time.Time    `bson:"lastUpdate" json:"lastUpdate"`
}

// ImageIDs lists every image referenced by the question and its children.
func (q Question) ImageIDs() []string {
	var ids []string
	for _, ref := range []*string{q.LikeIcon, q.DislikeIcon} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	for _, it := range q.Items {
		if it.Image != nil {
			ids = append(ids, *it.Image)
		}
	}
	for _, l := range q.Labels {
		if l.Image != nil {
			ids = append(ids, *l.Image)
		}
	}
	for _, c := range q.Choices {
		if c.Image != nil {
			ids = append(ids, *c.Image)
		}
	}
	return ids
}

func (q Question) Item(id string) (Item, bool) {
	for _, it := range q.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (q Question) Label(id string) (Label, bool) {
	for _, l := range q.Labels {
		if l.ID == id {
			return l, true
		}
	}
	return Label{}, false
}

func (q Question) Choice(id string) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// ClampDefault keeps a regulator default within [min, max].
func (q *Question) ClampDefault() {
	if q.Default == nil {
		return
	}
	if q.Max != nil && *q.Default > *q.Max {
		q.Default = Ptr(*q.Max)
	}
	if q.Min != nil && *q.Default < *q.Min {
		q.Default = Ptr(*q.Min)
	}
}

type QuestionPatch struct {
	Value       Optional[string]  `json:"value"`
	Description Optional[string]  `json:"description"`
	LikeIcon    Optional[string]  `json:"likeIcon"`
	DislikeIcon Optional[string]  `json:"dislikeIcon"`
	Min         Optional[float64] `json:"min"`
	Max         Optional[float64] `json:"max"`
	StepSize    Optional[float64] `json:"stepSize"`
	Default     Optional[float64] `json:"default"`
}

type ItemPatch struct {
	Label Optional[string] `json:"label"`
	Image Optional[string] `json:"-"`
}

type LabelPatch struct {
	Value Optional[float64] `json:"value"`
	Label Optional[string]  `json:"label"`
	Image Optional[string]  `json:"-"`
}

type ChoicePatch struct {
	Code  Optional[string] `json:"code"`
	Label Optional[string] `json:"label"`
	Image Optional[string] `json:"-"`
}

var SortableQuestionFields = map[string]string{
	"CREATION_DATE": "creationDate",
	"LAST_UPDATE":   "lastUpdate",
	"VALUE":         "value",
	"TYPE":          "type",
}
