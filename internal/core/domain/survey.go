package domain

import "time"

type QuestionType string

const (
	QuestionLike        QuestionType = "LIKE"
	QuestionLikeDislike QuestionType = "LIKEDISLIKE"
	QuestionChoice      QuestionType = "CHOICE"
	QuestionRegulator   QuestionType = "REGULATOR"
	QuestionRanking     QuestionType = "RANKING"
	QuestionFavorite    QuestionType = "FAVORITE"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionLike, QuestionLikeDislike, QuestionChoice, QuestionRegulator, QuestionRanking, QuestionFavorite:
		return true
	default:
		return false
	}
}

type Survey struct {
	ID            string         `bson:"_id" json:"id"`
	Creator       string         `bson:"creator" json:"creator"`
	Title         string         `bson:"title" json:"title"`
	Description   string         `bson:"description" json:"description"`
	Types         []QuestionType `bson:"types" json:"types"`
	IsActive      bool           `bson:"isActive" json:"isActive"`
	QuestionOrder []string       `bson:"questionOrder" json:"questionOrder"`
	PreviewImage  *string        `bson:"previewImage,omitempty" json:"previewImage"`
	CreationDate  time.Time      `bson:"creationDate" json:"creationDate"`
	LastUpdate    time.Time      `bson:"lastUpdate" json:"lastUpdate"`
}

func (s Survey) OwnerIDs() []string {
	return []string{s.Creator}
}

type SurveyPatch struct {
	Title         Optional[string]         `json:"title"`
	Description   Optional[string]         `json:"description"`
	Types         Optional[[]QuestionType] `json:"types"`
	IsActive      Optional[bool]           `json:"isActive"`
	QuestionOrder Optional[[]string]       `json:"questionOrder"`
	PreviewImage  Optional[string]         `json:"-"`
}

func (p SurveyPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Types.Set &&
		!p.IsActive.Set && !p.QuestionOrder.Set && !p.PreviewImage.Set
}

var SortableSurveyFields = map[string]string{
	"CREATION_DATE": "creationDate",
	"LAST_UPDATE":   "lastUpdate",
	"TITLE":         "title",
	"DESCRIPTION":   "description",
	"IS_ACTIVE":     "isActive",
	"CREATOR":       "creator",
}
