package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// CascadeDeps are the stores the cascade reactions write to.
type CascadeDeps struct {
	Images    ports.ImageRepository
	Storage   ports.ImageStorage
	Questions ports.QuestionRepository
	Domains   ports.DomainRepository
	Clients   ports.ClientRepository
}

// Reaction is one cascade rule bound to a lifecycle topic.
type Reaction func(ctx context.Context, ev domain.Event, deps CascadeDeps) error

// Cascade keeps dependent entities consistent after deletions and image
// replacements. Reactions run on the event bus worker; their failures are
// logged and never reach the request that caused them.
type Cascade struct {
	deps      CascadeDeps
	log       logrus.FieldLogger
	reactions map[string][]Reaction
}

func NewCascade(deps CascadeDeps, log logrus.FieldLogger) *Cascade {
	return &Cascade{
		deps: deps,
		log:  log.WithField("component", "cascade"),
		reactions: map[string][]Reaction{
			domain.Topic(domain.KindSurvey, domain.OpDelete):   {onSurveyDelete},
			domain.Topic(domain.KindSurvey, domain.OpUpdate):   {onSurveyUpdate},
			domain.Topic(domain.KindQuestion, domain.OpDelete): {onQuestionDelete},
			domain.Topic(domain.KindQuestion, domain.OpUpdate): {onQuestionUpdate},
			domain.Topic(domain.KindItem, domain.OpUpdate):     {onNestedUpdate(itemImage)},
			domain.Topic(domain.KindItem, domain.OpDelete):     {onNestedDelete(itemImage)},
			domain.Topic(domain.KindLabel, domain.OpUpdate):    {onNestedUpdate(labelImage)},
			domain.Topic(domain.KindLabel, domain.OpDelete):    {onNestedDelete(labelImage)},
			domain.Topic(domain.KindChoice, domain.OpUpdate):   {onNestedUpdate(choiceImage)},
			domain.Topic(domain.KindChoice, domain.OpDelete):   {onNestedDelete(choiceImage)},
			domain.Topic(domain.KindDomain, domain.OpDelete):   {onDomainDelete},
			domain.Topic(domain.KindImage, domain.OpDelete):    {onImageDelete},
		},
	}
}

// Handle runs the reactions registered for the event topic. It always
// returns nil.
func (c *Cascade) Handle(ctx context.Context, ev domain.Event) error {
	for _, react := range c.reactions[ev.Topic()] {
		if err := react(ctx, ev, c.deps); err != nil {
			c.log.WithError(err).WithField("topic", ev.Topic()).Error("cascade reaction failed")
		}
	}
	return nil
}

func onSurveyDelete(ctx context.Context, ev domain.Event, deps CascadeDeps) error {
	change, ok := ev.(domain.Change[domain.Survey])
	if !ok {
		return nil
	}
	var errs []error
	for _, survey := range change.Old {
		if survey.PreviewImage != nil {
			errs = append(errs, deleteImages(ctx, deps, *survey.PreviewImage))
		}
		_, err := deps.Images.Delete(ctx, ports.ImageFilter{Surveys: []string{survey.ID}})
		errs = append(errs, ignoreMissing(err))

		_, err = deps.Questions.Delete(ctx, ports.QuestionFilter{Surveys: []string{survey.ID}})
		errs = append(errs, ignoreMissing(err))

		_, err = deps.Domains.Update(ctx, ports.DomainFilter{ActiveSurvey: survey.ID}, domain.DomainPatch{
			ActiveSurvey:   domain.Null[string](),
			ActiveQuestion: domain.Null[string](),
		})
		errs = append(errs, ignoreMissing(err))
	}
	return errors.Join(errs...)
}

func onSurveyUpdate(ctx context.Context, ev domain.Event, deps CascadeDeps) error {
	change, ok := ev.(domain.Change[domain.Survey])
	if !ok {
		return nil
	}
	var replaced []string
	for i := range min(len(change.Old), len(change.New)) {
		replaced = appendReplaced(replaced, change.Old[i].PreviewImage, change.New[i].PreviewImage)
	}
	return deleteImages(ctx, deps, replaced...)
}

func onQuestionDelete(ctx context.Context, ev domain.Event, deps CascadeDeps) error {
	change, ok := ev.(domain.Change[domain.Question])
	if !ok {
		return nil
	}
	var errs []error
	for _, q := range change.Old {
		errs = append(errs, deleteImages(ctx, deps, q.ImageIDs()...))

		_, err := deps.Images.Delete(ctx, ports.ImageFilter{Questions: []string{q.ID}})
		errs = append(errs, ignoreMissing(err))

		_, err = deps.Domains.Update(ctx, ports.DomainFilter{ActiveQuestion: q.ID}, domain.DomainPatch{
			ActiveQuestion: domain.Null[string](),
		})
		errs = append(errs, ignoreMissing(err))
	}
	return errors.Join(errs...)
}

func onQuestionUpdate(ctx context.Context, ev domain.Event, deps CascadeDeps) error {
	change, ok := ev.(domain.Change[domain.Question])
	if !ok {
		return nil
	}
	var replaced []string
	for i := range min(len(change.Old), len(change.New)) {
		replaced = appendReplaced(replaced, change.Old[i].LikeIcon, change.New[i].LikeIcon)
		replaced = appendReplaced(replaced, change.Old[i].DislikeIcon, change.New[i].DislikeIcon)
	}
	return deleteImages(ctx, deps, replaced...)
}

func itemImage(it domain.Item) *string { return it.Image }

func labelImage(l domain.Label) *string { return l.Image }

func choiceImage(c domain.Choice) *string { return c.Image }

func onNestedUpdate[T any](image func(T) *string) Reaction {
	return func(ctx context.Context, ev domain.Event, deps CascadeDeps) error {
		change, ok := ev.(domain.Change[T])
		if !ok {
			return nil
		}
		var replaced []string
		for i := range min(len(change.Old), len(change.New)) {
			replaced = appendReplaced(replaced, image(change.Old[i]), image(change.New[i]))
		}
		return deleteImages(ctx, deps, replaced...)
	}
}

func onNestedDelete[T any](image func(T) *string) Reaction {
	return func(ctx context.Context, ev domain.Event, deps CascadeDeps) error {
		change, ok := ev.(domain.Change[T])
		if !ok {
			return nil
		}
		var ids []string
		for _, old := range change.Old {
			if ref := image(old); ref != nil {
				ids = append(ids, *ref)
			}
		}
		return deleteImages(ctx, deps, ids...)
	}
}

func onDomainDelete(ctx context.Context, ev domain.Event, deps CascadeDeps) error {
	change, ok := ev.(domain.Change[domain.Domain])
	if !ok {
		return nil
	}
	var errs []error
	for _, d := range change.Old {
		_, err := deps.Clients.Update(ctx, ports.ClientFilter{Domain: d.ID}, domain.ClientPatch{Domain: domain.Null[string]()})
		errs = append(errs, ignoreMissing(err))
	}
	return errors.Join(errs...)
}

func onImageDelete(ctx context.Context, ev domain.Event, deps CascadeDeps) error {
	change, ok := ev.(domain.Change[domain.Image])
	if !ok {
		return nil
	}
	var errs []error
	for _, img := range change.Old {
		if err := deps.Storage.Remove(ctx, img.URL); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove file of image %s: %w", img.ID, err))
		}
	}
	return errors.Join(errs...)
}

// appendReplaced collects old when a non-null reference changed.
func appendReplaced(ids []string, old, updated *string) []string {
	if old == nil || domain.SamePtr(old, updated) {
		return ids
	}
	return append(ids, *old)
}

func deleteImages(ctx context.Context, deps CascadeDeps, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := deps.Images.Delete(ctx, ports.ImageFilter{IDs: ids})
	return ignoreMissing(err)
}

// ignoreMissing treats "nothing to cascade to" as success.
func ignoreMissing(err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDeleteFailed) {
		return nil
	}
	return err
}
