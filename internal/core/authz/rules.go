package authz

import "github.com/vncsmyrnk/evaluation/internal/core/domain"

// Operation is the name of an API operation guarded by the rule table.
type Operation string

const (
	OpDomains        Operation = "domains"
	OpDomain         Operation = "domain"
	OpState          Operation = "state"
	OpDomainAmount   Operation = "domainAmount"
	OpActiveQuestion Operation = "activeQuestion"
	OpClients        Operation = "clients"
	OpClient         Operation = "client"
	OpClientAmount   Operation = "clientAmount"
	OpVotes          Operation = "votes"
	OpVoteAmount     Operation = "voteAmount"
	OpSurveys        Operation = "surveys"
	OpSurvey         Operation = "survey"
	OpSurveyAmount   Operation = "surveyAmount"
	OpQuestions      Operation = "questions"
	OpUsers          Operation = "users"
	OpUser           Operation = "user"
	OpUserAmount     Operation = "userAmount"
	OpResults        Operation = "results"
	OpImages         Operation = "images"

	OpCreateDomain      Operation = "createDomain"
	OpUpdateDomain      Operation = "updateDomain"
	OpDeleteDomain      Operation = "deleteDomain"
	OpSetDomainOwner    Operation = "setDomainOwner"
	OpRemoveDomainOwner Operation = "removeDomainOwner"
	OpSetState          Operation = "setState"
	OpRemoveState       Operation = "removeState"

	OpLogin                 Operation = "login"
	OpLoginWithGoogle       Operation = "loginWithGoogle"
	OpLoginClient           Operation = "loginClient"
	OpCreateUser            Operation = "createUser"
	OpUpdateUser            Operation = "updateUser"
	OpDeleteUser            Operation = "deleteUser"
	OpCreatePermanentClient Operation = "createPermanentClient"
	OpCreateTemporaryClient Operation = "createTemporaryClient"
	OpUpdateClient          Operation = "updateClient"
	OpDeleteClient          Operation = "deleteClient"
	OpSetClientOwner        Operation = "setClientOwner"
	OpRemoveClientOwner     Operation = "removeClientOwner"

	OpCreateSurvey             Operation = "createSurvey"
	OpUpdateSurvey             Operation = "updateSurvey"
	OpDeleteSurvey             Operation = "deleteSurvey"
	OpSetSurveyPreviewImage    Operation = "setSurveyPreviewImage"
	OpRemoveSurveyPreviewImage Operation = "removeSurveyPreviewImage"
	OpCreateQuestion           Operation = "createQuestion"
	OpUpdateQuestion           Operation = "updateQuestion"
	OpDeleteQuestion           Operation = "deleteQuestion"
	OpCreateItem               Operation = "createItem"
	OpUpdateItem               Operation = "updateItem"
	OpDeleteItem               Operation = "deleteItem"
	OpSetItemImage             Operation = "setItemImage"
	OpRemoveItemImage          Operation = "removeItemImage"
	OpCreateLabel              Operation = "createLabel"
	OpUpdateLabel              Operation = "updateLabel"
	OpDeleteLabel              Operation = "deleteLabel"
	OpSetLabelImage            Operation = "setLabelImage"
	OpRemoveLabelImage         Operation = "removeLabelImage"
	OpCreateChoice             Operation = "createChoice"
	OpUpdateChoice             Operation = "updateChoice"
	OpDeleteChoice             Operation = "deleteChoice"
	OpSetChoiceImage           Operation = "setChoiceImage"
	OpRemoveChoiceImage        Operation = "removeChoiceImage"
	OpUploadImage              Operation = "uploadImage"
	OpDeleteImage              Operation = "deleteImage"

	OpSetAnswer    Operation = "setAnswer"
	OpRemoveAnswer Operation = "removeAnswer"

	OpDomainUpdate Operation = "domainUpdate"
	OpClientUpdate Operation = "clientUpdate"
)

// Rule is a boolean expression over the caller's role.
type Rule func(p domain.Principal) bool

func Anyone(domain.Principal) bool { return true }

func Authenticated(p domain.Principal) bool { return p.Authenticated() }

func Admin(p domain.Principal) bool { return p.IsAdmin() }

func User(p domain.Principal) bool { return p.IsUser() }

func Client(p domain.Principal) bool { return p.IsClient() }

func PermanentClient(p domain.Principal) bool { return p.IsPermanentClient() }

func Or(rules ...Rule) Rule {
	return func(p domain.Principal) bool {
		for _, r := range rules {
			if r(p) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is the static permission table of the API.
func DefaultRules() map[Operation]Rule {
	adminOrUser := Or(Admin, User)

	rules := map[Operation]Rule{
		OpDomains:        Or(Admin, User, PermanentClient),
		OpDomain:         Authenticated,
		OpState:          Authenticated,
		OpDomainAmount:   Authenticated,
		OpActiveQuestion: Authenticated,
		OpClients:        Authenticated,
		OpClient:         Authenticated,
		OpClientAmount:   Authenticated,
		OpVotes:          Authenticated,
		OpVoteAmount:     Authenticated,

		OpUpdateDomain: Authenticated,
		OpSetState:     Authenticated,
		OpRemoveState:  Authenticated,
		OpDeleteClient: Authenticated,
		OpDomainUpdate: Authenticated,
		OpClientUpdate: Authenticated,
		OpUpdateClient: Or(Admin, User, Client),
		OpSetAnswer:    Client,
		OpRemoveAnswer: Client,

		OpLogin:                 Anyone,
		OpLoginWithGoogle:       Anyone,
		OpLoginClient:           Anyone,
		OpCreateUser:            Anyone,
		OpCreatePermanentClient: Anyone,
		OpCreateTemporaryClient: Anyone,

		OpSetClientOwner:    Or(Admin, User, PermanentClient),
		OpRemoveClientOwner: Or(Admin, User, PermanentClient),
	}

	for _, op := range []Operation{
		OpSurveys, OpSurvey, OpSurveyAmount, OpQuestions, OpUsers, OpUser, OpUserAmount, OpResults, OpImages,
		OpCreateDomain, OpDeleteDomain, OpSetDomainOwner, OpRemoveDomainOwner,
		OpUpdateUser, OpDeleteUser,
		OpCreateSurvey, OpUpdateSurvey, OpDeleteSurvey, OpSetSurveyPreviewImage, OpRemoveSurveyPreviewImage,
		OpCreateQuestion, OpUpdateQuestion, OpDeleteQuestion,
		OpCreateItem, OpUpdateItem, OpDeleteItem, OpSetItemImage, OpRemoveItemImage,
		OpCreateLabel, OpUpdateLabel, OpDeleteLabel, OpSetLabelImage, OpRemoveLabelImage,
		OpCreateChoice, OpUpdateChoice, OpDeleteChoice, OpSetChoiceImage, OpRemoveChoiceImage,
		OpUploadImage, OpDeleteImage,
	} {
		rules[op] = adminOrUser
	}

	return rules
}
