package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"github.com/vncsmyrnk/evaluation/internal/core/services"
)

func TestDeleteQuestion_RemovesEveryReferencedImage(t *testing.T) {
	app := setupApp(t)
	_, p := app.user(t, "Owner")
	survey := app.survey(t, p, domain.QuestionChoice)
	q := app.question(t, p, survey.ID, domain.QuestionChoice)

	// 1. Reference an own image from every slot of the question
	likeIcon := app.image(t, p, survey.ID)
	dislikeIcon := app.defaultImage(t)
	_, err := app.questions.UpdateQuestion(app.ctx, p, q.ID, domain.QuestionPatch{
		LikeIcon:    domain.Some(likeIcon.ID),
		DislikeIcon: domain.Some(dislikeIcon.ID),
	})
	require.NoError(t, err)

	item, err := app.questions.CreateItem(app.ctx, p, q.ID, ports.ItemInput{Label: "Coffee"})
	require.NoError(t, err)
	itemImage := app.image(t, p, survey.ID)
	_, err = app.questions.SetItemImage(app.ctx, p, q.ID, item.ID, itemImage.ID)
	require.NoError(t, err)

	label, err := app.questions.CreateLabel(app.ctx, p, q.ID, ports.LabelInput{Value: 1, Label: "Low"})
	require.NoError(t, err)
	labelImage := app.image(t, p, survey.ID)
	_, err = app.questions.SetLabelImage(app.ctx, p, q.ID, label.ID, labelImage.ID)
	require.NoError(t, err)

	choice := app.choice(t, p, q.ID, "A")
	choiceImage := app.image(t, p, survey.ID)
	_, err = app.questions.SetChoiceImage(app.ctx, p, q.ID, choice.ID, choiceImage.ID)
	require.NoError(t, err)

	unrelated := app.image(t, p, survey.ID)
	app.settle()

	// 2. Delete the question
	require.NoError(t, app.questions.DeleteQuestion(app.ctx, p, q.ID))
	app.settle()

	// 3. Own images are gone, the default icon and unrelated images stay
	for _, img := range []domain.Image{likeIcon, itemImage, labelImage, choiceImage} {
		assert.False(t, app.fetchable(img.ID), "image %s should have been deleted", img.Name)
	}
	assert.True(t, app.fetchable(dislikeIcon.ID))
	assert.True(t, app.fetchable(unrelated.ID))

	survey, err = app.surveys.Survey(app.ctx, p, survey.ID)
	require.NoError(t, err)
	assert.Empty(t, survey.QuestionOrder)
}

func TestSetChoiceImage_ReplacedImageIsDeleted(t *testing.T) {
	app := setupApp(t)
	_, p := app.user(t, "Owner")
	survey := app.survey(t, p, domain.QuestionChoice)
	q := app.question(t, p, survey.ID, domain.QuestionChoice)
	choice := app.choice(t, p, q.ID, "A")

	t.Run("own image", func(t *testing.T) {
		a := app.image(t, p, survey.ID)
		b := app.image(t, p, survey.ID)

		_, err := app.questions.SetChoiceImage(app.ctx, p, q.ID, choice.ID, a.ID)
		require.NoError(t, err)
		updated, err := app.questions.SetChoiceImage(app.ctx, p, q.ID, choice.ID, b.ID)
		require.NoError(t, err)
		app.settle()

		assert.Equal(t, b.ID, *updated.Image)
		assert.False(t, app.fetchable(a.ID))
		assert.True(t, app.fetchable(b.ID))
	})

	t.Run("default image", func(t *testing.T) {
		a := app.defaultImage(t)
		b := app.image(t, p, survey.ID)

		_, err := app.questions.SetChoiceImage(app.ctx, p, q.ID, choice.ID, a.ID)
		require.NoError(t, err)
		_, err = app.questions.SetChoiceImage(app.ctx, p, q.ID, choice.ID, b.ID)
		require.NoError(t, err)
		app.settle()

		assert.True(t, app.fetchable(a.ID))
		assert.True(t, app.fetchable(b.ID))
	})

	t.Run("removed image", func(t *testing.T) {
		c := app.image(t, p, survey.ID)
		_, err := app.questions.SetChoiceImage(app.ctx, p, q.ID, choice.ID, c.ID)
		require.NoError(t, err)

		updated, err := app.questions.RemoveChoiceImage(app.ctx, p, q.ID, choice.ID)
		require.NoError(t, err)
		app.settle()

		assert.Nil(t, updated.Image)
		assert.False(t, app.fetchable(c.ID))
	})
}

func TestNestedDeletes_RemoveTheirImages(t *testing.T) {
	app := setupApp(t)
	_, p := app.user(t, "Owner")
	survey := app.survey(t, p, domain.QuestionRanking)
	q := app.question(t, p, survey.ID, domain.QuestionRanking)

	item, err := app.questions.CreateItem(app.ctx, p, q.ID, ports.ItemInput{Label: "Tea"})
	require.NoError(t, err)
	img := app.image(t, p, survey.ID)
	_, err = app.questions.SetItemImage(app.ctx, p, q.ID, item.ID, img.ID)
	require.NoError(t, err)

	require.NoError(t, app.questions.DeleteItem(app.ctx, p, q.ID, item.ID))
	app.settle()

	assert.False(t, app.fetchable(img.ID))
	err = app.questions.DeleteItem(app.ctx, p, q.ID, item.ID)
	assert.ErrorIs(t, err, domain.ErrDeleteFailed)
}

func TestUpdateQuestion_ReplacedIconIsDeleted(t *testing.T) {
	app := setupApp(t)
	_, p := app.user(t, "Owner")
	survey := app.survey(t, p, domain.QuestionLike)
	q := app.question(t, p, survey.ID, domain.QuestionLike)
	first := app.image(t, p, survey.ID)
	second := app.image(t, p, survey.ID)

	_, err := app.questions.UpdateQuestion(app.ctx, p, q.ID, domain.QuestionPatch{LikeIcon: domain.Some(first.ID)})
	require.NoError(t, err)
	_, err = app.questions.UpdateQuestion(app.ctx, p, q.ID, domain.QuestionPatch{LikeIcon: domain.Some(second.ID)})
	require.NoError(t, err)
	app.settle()

	assert.False(t, app.fetchable(first.ID))
	assert.True(t, app.fetchable(second.ID))
}

func TestDeleteSurvey_CascadesToQuestionsImagesAndDomains(t *testing.T) {
	app := setupApp(t)
	_, p := app.user(t, "Owner")
	survey := app.survey(t, p, domain.QuestionLike)
	q := app.question(t, p, survey.ID, domain.QuestionLike)
	preview := app.image(t, p, survey.ID)
	_, err := app.surveys.SetSurveyPreviewImage(app.ctx, p, survey.ID, preview.ID)
	require.NoError(t, err)
	attached := app.image(t, p, survey.ID)
	d := app.liveDomain(t, p, survey.ID)

	require.NoError(t, app.surveys.DeleteSurvey(app.ctx, p, survey.ID))
	app.settle()

	assert.False(t, app.fetchable(preview.ID))
	assert.False(t, app.fetchable(attached.ID))

	_, err = app.store.Questions.Get(app.ctx, ports.QuestionFilter{IDs: []string{q.ID}}, domain.Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	d, err = app.domains.Domain(app.ctx, p, d.ID)
	require.NoError(t, err)
	assert.Nil(t, d.ActiveSurvey)
	assert.Nil(t, d.ActiveQuestion)
}

func TestDeleteImage(t *testing.T) {
	app := setupApp(t)
	_, owner := app.user(t, "Owner")
	_, stranger := app.user(t, "Stranger")
	admin := app.admin(t)
	survey := app.survey(t, owner, domain.QuestionLike)
	img := app.image(t, owner, survey.ID)
	protected := app.defaultImage(t)

	assert.ErrorIs(t, app.images.DeleteImage(app.ctx, stranger, img.ID), domain.ErrUnauthorized)
	assert.ErrorIs(t, app.images.DeleteImage(app.ctx, admin, protected.ID), domain.ErrValidation)

	require.NoError(t, app.images.DeleteImage(app.ctx, owner, img.ID))
	assert.False(t, app.fetchable(img.ID))
	assert.True(t, app.fetchable(protected.ID))

	_, err := app.images.UploadImage(app.ctx, owner, ports.UploadImageInput{Name: "notes.txt", ContentType: "text/plain"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

type failingImages struct {
	ports.ImageRepository
}

func (failingImages) Delete(context.Context, ports.ImageFilter) ([]domain.Image, error) {
	return nil, errors.New("connection reset")
}

func TestCascade_FailuresAreLoggedAndSwallowed(t *testing.T) {
	log, hook := test.NewNullLogger()
	cascade := services.NewCascade(services.CascadeDeps{Images: failingImages{}}, log)

	ev := domain.Deleted(domain.KindChoice, domain.Choice{ID: "c1", Image: domain.Ptr("i1")})
	require.NoError(t, cascade.Handle(context.Background(), ev))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "Choice/Delete", entry.Data["topic"])
	assert.Equal(t, "cascade", entry.Data["component"])
}

func TestCascade_IgnoresUnrelatedTopics(t *testing.T) {
	log, hook := test.NewNullLogger()
	cascade := services.NewCascade(services.CascadeDeps{Images: failingImages{}}, log)

	require.NoError(t, cascade.Handle(context.Background(), domain.Inserted(domain.KindChoice, domain.Choice{ID: "c1"})))
	require.NoError(t, cascade.Handle(context.Background(), domain.Updated(domain.KindChoice,
		[]domain.Choice{{ID: "c1", Image: domain.Ptr("i1")}},
		[]domain.Choice{{ID: "c1", Image: domain.Ptr("i1")}},
	)))
	assert.Empty(t, hook.AllEntries())
}
