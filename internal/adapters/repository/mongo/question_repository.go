package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionRepository keeps items, labels and choices as arrays inside the
// question document. Writes to them publish events of their own kind.
type QuestionRepository struct {
	c collection[domain.Question]
}

func NewQuestionRepository(db *mongodb.Database, pub ports.EventPublisher) *QuestionRepository {
	return &QuestionRepository{
		c: newCollection(db, questionsCollection, domain.KindQuestion, func(q domain.Question) string { return q.ID }, pub),
	}
}

func questionFilter(f ports.QuestionFilter) bson.M {
	filter := bson.M{}
	if len(f.IDs) > 0 {
		filter["_id"] = in(f.IDs)
	}
	if len(f.Surveys) > 0 {
		filter["survey"] = in(f.Surveys)
	}
	return filter
}

func (r *QuestionRepository) Get(ctx context.Context, filter ports.QuestionFilter, page domain.Page) ([]domain.Question, error) {
	return r.c.find(ctx, questionFilter(filter), page)
}

func (r *QuestionRepository) Insert(ctx context.Context, q domain.Question) (domain.Question, error) {
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
	ts := now()
	q.CreationDate, q.LastUpdate = ts, ts
	return r.c.insert(ctx, q)
}

func (r *QuestionRepository) Update(ctx context.Context, filter ports.QuestionFilter, p domain.QuestionPatch) ([]domain.Question, error) {
	update := newPatch()
	field(update, "value", p.Value)
	field(update, "description", p.Description)
	field(update, "likeIcon", p.LikeIcon)
	field(update, "dislikeIcon", p.DislikeIcon)
	field(update, "min", p.Min)
	field(update, "max", p.Max)
	field(update, "stepSize", p.StepSize)
	field(update, "default", p.Default)
	return r.c.update(ctx, questionFilter(filter), update.doc())
}

func (r *QuestionRepository) Delete(ctx context.Context, filter ports.QuestionFilter) (int64, error) {
	removed, err := r.c.remove(ctx, questionFilter(filter), nil)
	return int64(len(removed)), err
}

// nested describes one array of sub-documents of a question.
type nested[T any] struct {
	kind  domain.Kind
	array string
	list  func(domain.Question) []T
	id    func(T) string
}

var (
	items = nested[domain.Item]{
		kind:  domain.KindItem,
		array: "items",
		list:  func(q domain.Question) []domain.Item { return q.Items },
		id:    func(it domain.Item) string { return it.ID },
	}
	labels = nested[domain.Label]{
		kind:  domain.KindLabel,
		array: "labels",
		list:  func(q domain.Question) []domain.Label { return q.Labels },
		id:    func(l domain.Label) string { return l.ID },
	}
	choices = nested[domain.Choice]{
		kind:  domain.KindChoice,
		array: "choices",
		list:  func(q domain.Question) []domain.Choice { return q.Choices },
		id:    func(c domain.Choice) string { return c.ID },
	}
)

// key addresses a field of the element selected by the "e" array filter.
func (n nested[T]) key(name string) string {
	return n.array + ".$[e]." + name
}

func (n nested[T]) find(q domain.Question, id string) (T, bool) {
	for _, el := range n.list(q) {
		if n.id(el) == id {
			return el, true
		}
	}
	var zero T
	return zero, false
}

func (n nested[T]) insert(ctx context.Context, c collection[domain.Question], questionID string, el T) (T, error) {
	if _, _, err := c.apply(ctx, bson.M{"_id": questionID}, bson.M{"$push": bson.M{n.array: el}}); err != nil {
		return el, err
	}
	c.pub.Publish(ctx, domain.Inserted(n.kind, el))
	return el, nil
}

func (n nested[T]) update(ctx context.Context, c collection[domain.Question], questionID, id string, p *patch) (T, error) {
	var zero T
	current, err := c.get(ctx, questionID)
	if err != nil {
		return zero, err
	}
	old, ok := n.find(current, id)
	if !ok {
		return zero, domain.NotFound(n.kind)
	}

	opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"e._id": id}}})
	_, after, err := c.apply(ctx, bson.M{"_id": questionID}, p.doc(), opts)
	if err != nil {
		return zero, err
	}
	updated, ok := n.find(after[0], id)
	if !ok {
		return zero, domain.NotFound(n.kind)
	}
	c.pub.Publish(ctx, domain.Updated(n.kind, []T{old}, []T{updated}))
	return updated, nil
}

func (n nested[T]) delete(ctx context.Context, c collection[domain.Question], questionID, id string) error {
	current, err := c.get(ctx, questionID)
	if err != nil {
		return err
	}
	old, ok := n.find(current, id)
	if !ok {
		return domain.Errorf(domain.ErrDeleteFailed, "%s could not be deleted.", n.kind)
	}
	if _, _, err := c.apply(ctx, bson.M{"_id": questionID}, bson.M{"$pull": bson.M{n.array: bson.M{"_id": id}}}); err != nil {
		return err
	}
	c.pub.Publish(ctx, domain.Deleted(n.kind, old))
	return nil
}

func (r *QuestionRepository) InsertItem(ctx context.Context, questionID string, item domain.Item) (domain.Item, error) {
	item.ID = uuid.NewString()
	return items.insert(ctx, r.c, questionID, item)
}

func (r *QuestionRepository) UpdateItem(ctx context.Context, questionID, itemID string, p domain.ItemPatch) (domain.Item, error) {
	update := newPatch()
	field(update, items.key("label"), p.Label)
	field(update, items.key("image"), p.Image)
	return items.update(ctx, r.c, questionID, itemID, update)
}

func (r *QuestionRepository) DeleteItem(ctx context.Context, questionID, itemID string) error {
	return items.delete(ctx, r.c, questionID, itemID)
}

func (r *QuestionRepository) InsertLabel(ctx context.Context, questionID string, label domain.Label) (domain.Label, error) {
	label.ID = uuid.NewString()
	return labels.insert(ctx, r.c, questionID, label)
}

func (r *QuestionRepository) UpdateLabel(ctx context.Context, questionID, labelID string, p domain.LabelPatch) (domain.Label, error) {
	update := newPatch()
	field(update, labels.key("value"), p.Value)
	field(update, labels.key("label"), p.Label)
	field(update, labels.key("image"), p.Image)
	return labels.update(ctx, r.c, questionID, labelID, update)
}

func (r *QuestionRepository) DeleteLabel(ctx context.Context, questionID, labelID string) error {
	return labels.delete(ctx, r.c, questionID, labelID)
}

func (r *QuestionRepository) InsertChoice(ctx context.Context, questionID string, choice domain.Choice) (domain.Choice, error) {
	choice.ID = uuid.NewString()
	return choices.insert(ctx, r.c, questionID, choice)
}

func (r *QuestionRepository) UpdateChoice(ctx context.Context, questionID, choiceID string, p domain.ChoicePatch) (domain.Choice, error) {
	update := newPatch()
	field(update, choices.key("code"), p.Code)
	field(update, choices.key("label"), p.Label)
	field(update, choices.key("image"), p.Image)
	return choices.update(ctx, r.c, questionID, choiceID, update)
}

func (r *QuestionRepository) DeleteChoice(ctx context.Context, questionID, choiceID string) error {
	return choices.delete(ctx, r.c, questionID, choiceID)
}
