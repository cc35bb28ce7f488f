package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type Questions struct {
	t   *table[domain.Question]
	pub ports.EventPublisher
	clk *clock
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Items = slices.Clone(q.Items)
	for i := range q.Items {
		q.Items[i].Image = cloneRef(q.Items[i].Image)
	}
	q.Labels = slices.Clone(q.Labels)
	for i := range q.Labels {
		q.Labels[i].Image = cloneRef(q.Labels[i].Image)
	}
	q.Choices = slices.Clone(q.Choices)
	for i := range q.Choices {
		q.Choices[i].Image = cloneRef(q.Choices[i].Image)
	}
	q.LikeIcon = cloneRef(q.LikeIcon)
	q.DislikeIcon = cloneRef(q.DislikeIcon)
	q.Min = cloneRef(q.Min)
	q.Max = cloneRef(q.Max)
	q.StepSize = cloneRef(q.StepSize)
	q.Default = cloneRef(q.Default)
	return q
}

func matchQuestion(f ports.QuestionFilter) func(domain.Question) bool {
	return func(q domain.Question) bool {
		switch {
		case len(f.IDs) > 0 && !slices.Contains(f.IDs, q.ID):
			return false
		case len(f.Surveys) > 0 && !slices.Contains(f.Surveys, q.Survey):
			return false
		}
		return true
	}
}

func (r *Questions) Get(_ context.Context, filter ports.QuestionFilter, page domain.Page) ([]domain.Question, error) {
	found := r.t.find(matchQuestion(filter), page)
	if len(found) == 0 {
		return nil, domain.NotFound(domain.KindQuestion)
	}
	return found, nil
}

func (r *Questions) Insert(ctx context.Context, q domain.Question) (domain.Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Items == nil {
		q.Items = []domain.Item{}
	}
	if q.Labels == nil {
		q.Labels = []domain.Label{}
	}
	if q.Choices == nil {
		q.Choices = []domain.Choice{}
	}
	now := r.clk.now()
	q.CreationDate, q.LastUpdate = now, now
	inserted := r.t.insert(q)
	r.pub.Publish(ctx, domain.Inserted(domain.KindQuestion, inserted))
	return inserted, nil
}

func (r *Questions) Update(ctx context.Context, filter ports.QuestionFilter, patch domain.QuestionPatch) ([]domain.Question, error) {
	if isZero(filter) {
		return nil, domain.Errorf(domain.ErrValidation, "refusing to update every question")
	}
	now := r.clk.now()
	old, updated := r.t.update(matchQuestion(filter), func(q *domain.Question) {
		setString(&q.Value, patch.Value)
		setString(&q.Description, patch.Description)
		setRef(&q.LikeIcon, patch.LikeIcon)
		setRef(&q.DislikeIcon, patch.DislikeIcon)
		setRef(&q.Min, patch.Min)
		setRef(&q.Max, patch.Max)
		setRef(&q.StepSize, patch.StepSize)
		setRef(&q.Default, patch.Default)
		q.LastUpdate = now
	})
	if len(updated) == 0 {
		return nil, domain.NotFound(domain.KindQuestion)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindQuestion, old, updated))
	return updated, nil
}

func (r *Questions) Delete(ctx context.Context, filter ports.QuestionFilter) (int64, error) {
	if isZero(filter) {
		return 0, domain.Errorf(domain.ErrValidation, "refusing to delete every question")
	}
	removed := r.t.remove(matchQuestion(filter))
	if len(removed) == 0 {
		return 0, domain.Errorf(domain.ErrDeleteFailed, "Question could not be deleted.")
	}
	r.pub.Publish(ctx, domain.Deleted(domain.KindQuestion, removed...))
	return int64(len(removed)), nil
}

// nested runs fn against the question and reports whether fn found its target.
func (r *Questions) nested(questionID string, fn func(*domain.Question) bool) (bool, error) {
	found := false
	now := r.clk.now()
	_, updated := r.t.update(matchQuestion(ports.QuestionFilter{IDs: []string{questionID}}), func(q *domain.Question) {
		if found = fn(q); found {
			q.LastUpdate = now
		}
	})
	if len(updated) == 0 {
		return false, domain.NotFound(domain.KindQuestion)
	}
	return found, nil
}

func (r *Questions) InsertItem(ctx context.Context, questionID string, item domain.Item) (domain.Item, error) {
	item.ID = uuid.NewString()
	if _, err := r.nested(questionID, func(q *domain.Question) bool {
		q.Items = append(q.Items, item)
		return true
	}); err != nil {
		return domain.Item{}, err
	}
	r.pub.Publish(ctx, domain.Inserted(domain.KindItem, item))
	return item, nil
}

func (r *Questions) UpdateItem(ctx context.Context, questionID, itemID string, patch domain.ItemPatch) (domain.Item, error) {
	var old, updated domain.Item
	ok, err := r.nested(questionID, func(q *domain.Question) bool {
		i := slices.IndexFunc(q.Items, func(it domain.Item) bool { return it.ID == itemID })
		if i < 0 {
			return false
		}
		old = q.Items[i]
		setString(&q.Items[i].Label, patch.Label)
		setRef(&q.Items[i].Image, patch.Image)
		updated = q.Items[i]
		return true
	})
	if err != nil {
		return domain.Item{}, err
	}
	if !ok {
		return domain.Item{}, domain.NotFound(domain.KindItem)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindItem, []domain.Item{old}, []domain.Item{updated}))
	return updated, nil
}

func (r *Questions) DeleteItem(ctx context.Context, questionID, itemID string) error {
	var old domain.Item
	ok, err := r.nested(questionID, func(q *domain.Question) bool {
		i := slices.IndexFunc(q.Items, func(it domain.Item) bool { return it.ID == itemID })
		if i < 0 {
			return false
		}
		old = q.Items[i]
		q.Items = slices.Delete(q.Items, i, i+1)
		return true
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.Errorf(domain.ErrDeleteFailed, "Item could not be deleted.")
	}
	r.pub.Publish(ctx, domain.Deleted(domain.KindItem, old))
	return nil
}

func (r *Questions) InsertLabel(ctx context.Context, questionID string, label domain.Label) (domain.Label, error) {
	label.ID = uuid.NewString()
	if _, err := r.nested(questionID, func(q *domain.Question) bool {
		q.Labels = append(q.Labels, label)
		return true
	}); err != nil {
		return domain.Label{}, err
	}
	r.pub.Publish(ctx, domain.Inserted(domain.KindLabel, label))
	return label, nil
}

func (r *Questions) UpdateLabel(ctx context.Context, questionID, labelID string, patch domain.LabelPatch) (domain.Label, error) {
	var old, updated domain.Label
	ok, err := r.nested(questionID, func(q *domain.Question) bool {
		i := slices.IndexFunc(q.Labels, func(l domain.Label) bool { return l.ID == labelID })
		if i < 0 {
			return false
		}
		old = q.Labels[i]
		setValue(&q.Labels[i].Value, patch.Value)
		setString(&q.Labels[i].Label, patch.Label)
		setRef(&q.Labels[i].Image, patch.Image)
		updated = q.Labels[i]
		return true
	})
	if err != nil {
		return domain.Label{}, err
	}
	if !ok {
		return domain.Label{}, domain.NotFound(domain.KindLabel)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindLabel, []domain.Label{old}, []domain.Label{updated}))
	return updated, nil
}

func (r *Questions) DeleteLabel(ctx context.Context, questionID, labelID string) error {
	var old domain.Label
	ok, err := r.nested(questionID, func(q *domain.Question) bool {
		i := slices.IndexFunc(q.Labels, func(l domain.Label) bool { return l.ID == labelID })
		if i < 0 {
			return false
		}
		old = q.Labels[i]
		q.Labels = slices.Delete(q.Labels, i, i+1)
		return true
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.Errorf(domain.ErrDeleteFailed, "Label could not be deleted.")
	}
	r.pub.Publish(ctx, domain.Deleted(domain.KindLabel, old))
	return nil
}

func (r *Questions) InsertChoice(ctx context.Context, questionID string, choice domain.Choice) (domain.Choice, error) {
	choice.ID = uuid.NewString()
	if _, err := r.nested(questionID, func(q *domain.Question) bool {
		q.Choices = append(q.Choices, choice)
		return true
	}); err != nil {
		return domain.Choice{}, err
	}
	r.pub.Publish(ctx, domain.Inserted(domain.KindChoice, choice))
	return choice, nil
}

func (r *Questions) UpdateChoice(ctx context.Context, questionID, choiceID string, patch domain.ChoicePatch) (domain.Choice, error) {
	var old, updated domain.Choice
	ok, err := r.nested(questionID, func(q *domain.Question) bool {
		i := slices.IndexFunc(q.Choices, func(c domain.Choice) bool { return c.ID == choiceID })
		if i < 0 {
			return false
		}
		old = q.Choices[i]
		setString(&q.Choices[i].Code, patch.Code)
		setString(&q.Choices[i].Label, patch.Label)
		setRef(&q.Choices[i].Image, patch.Image)
		updated = q.Choices[i]
		return true
	})
	if err != nil {
		return domain.Choice{}, err
	}
	if !ok {
		return domain.Choice{}, domain.NotFound(domain.KindChoice)
	}
	r.pub.Publish(ctx, domain.Updated(domain.KindChoice, []domain.Choice{old}, []domain.Choice{updated}))
	return updated, nil
}

func (r *Questions) DeleteChoice(ctx context.Context, questionID, choiceID string) error {
	var old domain.Choice
	ok, err := r.nested(questionID, func(q *domain.Question) bool {
		i := slices.IndexFunc(q.Choices, func(c domain.Choice) bool { return c.ID == choiceID })
		if i < 0 {
			return false
		}
		old = q.Choices[i]
		q.Choices = slices.Delete(q.Choices, i, i+1)
		return true
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.Errorf(domain.ErrDeleteFailed, "Choice could not be deleted.")
	}
	r.pub.Publish(ctx, domain.Deleted(domain.KindChoice, old))
	return nil
}
