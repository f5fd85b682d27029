package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
)

type commandView struct {
	Name        string             `json:"name"`
	Permission  domain.Role        `json:"permission"`
	Type        domain.CommandType `json:"type"`
	Description string             `json:"description"`
}

type commandBody struct {
	Response    string `json:"response"`
	Permission  string `json:"permission"`
	Type        string `json:"type"`
	Enabled     *bool  `json:"enabled"`
	Description string `json:"description"`
}

type rewardView struct {
	ID          string      `json:"id,omitempty"`
	Title       string      `json:"title"`
	Permission  domain.Role `json:"permission"`
	Description string      `json:"description"`
}

type rewardBody struct {
	Title       string `json:"title"`
	Response    string `json:"response"`
	Permission  string `json:"permission"`
	Enabled     *bool  `json:"enabled"`
	Description string `json:"description"`
}

func (s *Server) listCommands(w http.ResponseWriter, _ *http.Request) {
	list := s.commands.List()
	out := make([]commandView, 0, len(list))
	for _, c := range list {
		out = append(out, commandView{Name: c.Key(), Permission: c.Permission, Type: c.Type, Description: c.Description})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) putCommand(w http.ResponseWriter, r *http.Request) {
	var body commandBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cmd, err := s.commands.AddOrUpdatePersisted(r.Context(), chi.URLParam(r, "name"), body.Response,
		permission(body.Permission), domain.ParseCommandType(body.Type), enabled(body.Enabled), body.Description)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, commandView{Name: cmd.Key(), Permission: cmd.Permission, Type: cmd.Type,
		Description: cmd.Description})
}

func (s *Server) deleteCommand(w http.ResponseWriter, r *http.Request) {
	removed, err := s.commands.RemovePersisted(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, domain.ErrCommandNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRewards(w http.ResponseWriter, _ *http.Request) {
	list := s.rewards.List()
	out := make([]rewardView, 0, len(list))
	for _, rw := range list {
		out = append(out, toRewardView(rw))
	}

	writeJSON(w, http.StatusOK, out)
}

// putReward treats a GUID key as the platform reward id and anything else as the title.
func (s *Server) putReward(w http.ResponseWriter, r *http.Request) {
	var body rewardBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	key := domain.ParseRewardKey(chi.URLParam(r, "key"))

	var id string
	title := body.Title
	if key.HasID() {
		id = key.ID.String()
	} else if title == "" {
		title = key.Title
	}

	reward, err := s.rewards.AddOrUpdatePersisted(r.Context(), id, title, body.Response,
		permission(body.Permission), enabled(body.Enabled), body.Description)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRewardView(reward))
}

func (s *Server) deleteReward(w http.ResponseWriter, r *http.Request) {
	removed, err := s.rewards.RemovePersisted(r.Context(), domain.ParseRewardKey(chi.URLParam(r, "key")))
	if err != nil {
		s.fail(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, domain.ErrRewardNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// postRedemption accepts an already decoded redemption and handles it in the background.
func (s *Server) postRedemption(w http.ResponseWriter, r *http.Request) {
	var redemption domain.Redemption
	if err := json.NewDecoder(r.Body).Decode(&redemption); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if redemption.ID == "" || (redemption.RewardID == "" && redemption.RewardTitle == "") {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidRewardKey)
		return
	}

	go s.redemptions.HandleRedemption(s.redemptionCtx, redemption)

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidCommand) || errors.Is(err, domain.ErrInvalidRewardKey) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.l.Error().Err(err).Msg("admin request failed")
	writeError(w, http.StatusInternalServerError, err)
}

func toRewardView(r domain.TwitchReward) rewardView {
	v := rewardView{Title: r.Title, Permission: r.Permission, Description: r.Description}
	if r.ID != uuid.Nil {
		v.ID = r.ID.String()
	}
	return v
}

func permission(s string) domain.Role {
	if s == "" {
		return domain.RoleEveryone
	}
	return domain.ParseRole(s)
}

func enabled(b *bool) bool {
	return b == nil || *b
}
