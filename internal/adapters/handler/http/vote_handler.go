package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

func (h *Handler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	var input ports.AnswerInput
	if err := decode(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.svc.Votes.SetAnswer(r.Context(), principalFrom(r.Context()), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Vote != nil {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, result)
}

func (h *Handler) RemoveAnswer(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Votes.RemoveAnswer(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "questionID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	noContent(w)
}

func listVotesInput(r *http.Request) (ports.ListVotesInput, error) {
	pg, err := page(r, domain.SortableVoteFields)
	if err != nil {
		return ports.ListVotesInput{}, err
	}
	return ports.ListVotesInput{Survey: r.URL.Query().Get("survey"), Page: pg}, nil
}

func (h *Handler) ListVotes(w http.ResponseWriter, r *http.Request) {
	input, err := listVotesInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	votes, err := h.svc.Votes.Votes(r.Context(), principalFrom(r.Context()), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, votes)
}

func (h *Handler) VoteAmount(w http.ResponseWriter, r *http.Request) {
	input, err := listVotesInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n := h.svc.Votes.VoteAmount(r.Context(), principalFrom(r.Context()), input)
	writeJSON(w, r, http.StatusOK, amountBody{Amount: n})
}
